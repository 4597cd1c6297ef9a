// Package pipeline defines core types shared across subsystems.
package pipeline

import (
	"time"
)

// JobPosting is one structured listing produced by extraction. Instances are
// built fresh each run and never mutated afterwards; only the ID outlives the
// run, inside the seen store.
type JobPosting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	Source      string    `json:"source"`
}

// RawPage is one rendered listing page returned by a Fetcher.
type RawPage struct {
	Source    string
	URL       string
	Number    int
	HTML      string
	FetchedAt time.Time
	Duration  time.Duration
}

// Selectors holds the per-source CSS selectors driving extraction.
type Selectors struct {
	Card        string `mapstructure:"card"`
	Title       string `mapstructure:"title"`
	Link        string `mapstructure:"link"`
	Company     string `mapstructure:"company"`
	Location    string `mapstructure:"location"`
	Description string `mapstructure:"description"`
	Tags        string `mapstructure:"tags"`
	Date        string `mapstructure:"date"`
}

// SourceConfig describes one configured job-listing origin.
type SourceConfig struct {
	Name      string    `mapstructure:"name"`
	URL       string    `mapstructure:"url"`
	Render    bool      `mapstructure:"render"`
	Pages     int       `mapstructure:"pages"`
	PageParam string    `mapstructure:"page_param"`
	Selectors Selectors `mapstructure:"selectors"`
}

// RunResult records the per-source outcome of one run. It is used for
// observability and exit-code decisions only and is never persisted.
type RunResult struct {
	Source       string
	Pages        int
	Extracted    int
	New          int
	Notified     int
	NotifyFailed int
	Err          error
}

// RunSummary aggregates the results of a complete run.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []RunResult
}

// SourceErrors counts the sources whose result carries an error.
func (s RunSummary) SourceErrors() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// TotalNew sums the new-posting counts across sources.
func (s RunSummary) TotalNew() int {
	n := 0
	for _, r := range s.Results {
		n += r.New
	}
	return n
}
