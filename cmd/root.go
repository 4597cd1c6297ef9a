// Package cmd defines and implements the CLI commands for the techjobs
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "techjobs",
		Short: "Scrapes job boards and alerts on new postings.",
		Long: `techjobs runs a stateless scrape of configured job boards, extracts
structured postings, drops everything already alerted on in prior runs,
and delivers the rest through Telegram or Pub/Sub. Dedup state is carried
between runs as a line-delimited artifact in external storage.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./techjobs.yaml)")

	cmd.AddCommand(newRunCmd())
	return cmd
}

// Execute runs the CLI. A run-fatal error exits non-zero; per-source
// degradation does not.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
