// Package oracle wraps the external reasoning service behind a single
// invoke operation shared by the scoring and narrative calls.
package oracle

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/resilience"
	"github.com/JvdW123/shelf-accuracy/pkg/anthropic"
)

// Request describes one logical oracle call. Exactly one message is
// sent per invocation; there is no chunking or follow-up.
type Request struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int64

	// ThinkingBudget > 0 enables extended thinking. The thinking trace
	// in the response is discarded and never surfaced as data.
	ThinkingBudget int64

	// Phase labels the call in cost logs ("scoring", "narrative").
	Phase string
}

// Gateway issues oracle calls with rate limiting and bounded retry on
// transient transport failures. It is safe for concurrent use.
type Gateway struct {
	client  anthropic.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewGateway builds a Gateway from configuration. MaxRetries counts
// retries, not attempts.
func NewGateway(client anthropic.Client, cfg config.AnthropicConfig) *Gateway {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	retry.OnRetry = resilience.RetryLogger("anthropic", "messages.create")

	return &Gateway{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		retry:   retry,
	}
}

// Invoke performs one oracle call and returns the final text content.
// Thinking blocks are dropped. A well-formed but empty response is
// returned as-is; judging its usefulness is the caller's job.
func (g *Gateway) Invoke(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "oracle: rate limiter")
	}

	start := time.Now()
	resp, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:          req.Model,
			MaxTokens:      req.MaxTokens,
			System:         req.System,
			ThinkingBudget: req.ThinkingBudget,
			Messages:       []anthropic.Message{{Role: "user", Content: req.Prompt}},
		})
	})
	if err != nil {
		return "", eris.Wrap(err, "oracle: invoke")
	}

	resp.Usage.LogCost(req.Model, req.Phase)
	zap.L().Info("oracle call complete",
		zap.String("phase", req.Phase),
		zap.String("model", req.Model),
		zap.String("stop_reason", resp.StopReason),
		zap.Duration("elapsed", time.Since(start)),
	)

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
