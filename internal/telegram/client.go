package telegram

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/risk"
)

const apiBase = "https://api.telegram.org"

// Notifier pushes assistant output to the trader's chat.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendDecision(ctx context.Context, decision *risk.Decision) error
}

// Client is a client for the Telegram Bot API. Outgoing messages are rate
// limited because the Bot API throttles chatty bots hard.
type Client struct {
	client  *resty.Client
	token   string
	chatID  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ Notifier = (*Client)(nil)

// NewClient creates a new Telegram Bot API client.
func NewClient(cfg config.Telegram, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(apiBase),
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// Disabled is a Notifier that drops everything. It stands in when telegram
// is switched off so callers never need a nil check.
type Disabled struct{}

func (Disabled) SendMessage(context.Context, string) error         { return nil }
func (Disabled) SendDecision(context.Context, *risk.Decision) error { return nil }

// FromConfig returns the configured notifier, or Disabled when telegram is
// switched off.
func FromConfig(cfg config.Telegram, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		logger.Info("Telegram notifications disabled")
		return Disabled{}
	}
	return NewClient(cfg, logger)
}

// apiResponse is the envelope every Bot API call comes back in.
type apiResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers a Markdown-formatted message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"chat_id":    c.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&apiResponse{})

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/bot%s/sendMessage", c.token), req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	result := resp.Result().(*apiResponse)
	if !result.Ok {
		return fmt.Errorf("telegram rejected the message: %s", result.Description)
	}

	c.logger.Debug("Telegram message sent", zap.Int("length", len(text)))
	return nil
}

// SendDecision delivers a formatted evaluation summary.
func (c *Client) SendDecision(ctx context.Context, decision *risk.Decision) error {
	return c.SendMessage(ctx, formatDecision(decision))
}

// doRequest executes the request with rate limiting and bounded retries.
// Telegram answers floods with 429 plus a Retry-After header, which the
// retry loop honors before falling back to exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(method, url)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Telegram request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

func formatDecision(decision *risk.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pre-trade assessment* %s\n", decision.Timestamp.Format("2006-01-02 15:04"))

	if !decision.HardStops.Passed {
		b.WriteString("🚫 *Session blocked by hard stops*\n")
		for _, check := range decision.HardStops.FailedChecks {
			fmt.Fprintf(&b, "  - %s\n", check)
		}
		b.WriteString("No trading today. The rules caught you before the market did.")
		return b.String()
	}

	fmt.Fprintf(&b, "Score: *%.1f*/100\n", decision.FinalScore)
	if decision.ShouldTrade {
		fmt.Fprintf(&b, "Decision: ✅ trade at *%.0f%%* risk\n", decision.RiskPercent)
	} else {
		b.WriteString("Decision: ⚠️ stand aside, the score is not there\n")
	}
	if decision.LotSize != nil && decision.TradeDetails != nil {
		fmt.Fprintf(&b, "Size: *%.2f lots* on %s (%.0f pips stop, $%.2f at risk)\n",
			*decision.LotSize,
			decision.TradeDetails.Instrument,
			decision.TradeDetails.StopLossPips,
			risk.RiskAmount(decision.TradeDetails.AccountBalance, decision.RiskPercent))
	}
	return b.String()
}
