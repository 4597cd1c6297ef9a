// Package telegram delivers job alerts through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// MaxMessageLength is the hard limit the Bot API enforces per message.
const MaxMessageLength = 4096

const truncationMarker = "\n... (description truncated)"

// Config holds the transport settings for the notifier.
type Config struct {
	Token   string
	ChatID  string
	BaseURL string        // override for tests, defaults to the public API
	Timeout time.Duration // per-request timeout
	// IncludeDate adds the parsed posting date to the message.
	IncludeDate bool
	// MessagesPerSecond throttles sends. Telegram allows roughly one
	// message per second per chat.
	MessagesPerSecond float64
}

// Notifier sends one message per posting to a Telegram chat.
type Notifier struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New validates cfg and builds a Notifier.
func New(cfg Config, logger *zap.Logger) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram: chat id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), 1),
		logger:  logger,
	}, nil
}

var _ pipeline.Notifier = (*Notifier)(nil)

// Notify formats the posting and sends it as a single HTML message.
func (n *Notifier) Notify(ctx context.Context, p pipeline.JobPosting) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return &pipeline.NotifyError{PostingID: p.ID, Err: err}
	}
	if !n.cfg.IncludeDate {
		p.PostedAt = time.Time{}
	}
	if err := n.send(ctx, FormatMessage(p)); err != nil {
		pipeline.NotificationsFailed.Inc()
		return &pipeline.NotifyError{PostingID: p.ID, Err: err}
	}
	pipeline.NotificationsSent.Inc()
	n.logger.Debug("notification sent",
		zap.String("posting_id", p.ID),
		zap.String("source", p.Source),
	)
	return nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (n *Notifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                n.cfg.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(n.cfg.BaseURL, "/"), n.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("telegram: status %d: unreadable response", resp.StatusCode)
	}
	if parsed.OK {
		return nil
	}

	apiErr := fmt.Errorf("telegram: api error %d: %s", parsed.ErrorCode, parsed.Description)
	if permanentAPIError(parsed) {
		return pipeline.Permanent(apiErr)
	}
	return apiErr
}

// permanentAPIError reports failures that will not succeed on retry, such
// as a bad chat id or a bot the user has blocked. Rate limiting (429) and
// server errors stay retryable.
func permanentAPIError(r apiResponse) bool {
	if r.ErrorCode == http.StatusTooManyRequests {
		return false
	}
	if r.ErrorCode >= 500 {
		return false
	}
	desc := strings.ToLower(r.Description)
	switch {
	case strings.Contains(desc, "chat not found"):
		return true
	case strings.Contains(desc, "bot was blocked"):
		return true
	case strings.Contains(desc, "message is too long"):
		return true
	case strings.Contains(desc, "can't parse entities"):
		return true
	}
	return r.ErrorCode >= 400 && r.ErrorCode < 500
}
