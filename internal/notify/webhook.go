package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"demo-options-trader/internal/config"
	"demo-options-trader/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebhookNotifier POSTs every notification as JSON to a configured URL.
type WebhookNotifier struct {
	client      *resty.Client
	url         string
	timeout     time.Duration
	baseBackoff time.Duration
	logger      *zap.Logger
	limiter     *rate.Limiter
}

var _ Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier from the notify section of the config.
func NewWebhookNotifier(cfg *config.Notify, logger *zap.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &WebhookNotifier{
		client:      resty.New().SetTimeout(timeout),
		url:         cfg.WebhookURL,
		timeout:     timeout,
		baseBackoff: time.Second,
		logger:      logger.Named("webhook"),
		limiter:     limiter,
	}
}

// Notify hands the notification to a goroutine and returns immediately.
func (w *WebhookNotifier) Notify(n models.Notification) {
	go func() {
		// Retries included, one delivery gets a few timeouts' worth of time.
		ctx, cancel := context.WithTimeout(context.Background(), 4*w.timeout)
		defer cancel()
		if err := w.Deliver(ctx, n); err != nil {
			w.logger.Warn("Failed to deliver notification",
				zap.String("event", string(n.Event)),
				zap.Error(err),
			)
		}
	}()
}

// Deliver sends one notification synchronously.
func (w *WebhookNotifier) Deliver(ctx context.Context, n models.Notification) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(n)

	if err := w.post(ctx, req); err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	return nil
}

const deliveryAttempts = 3

// post sends req, retrying throttled, 5xx and transport failures.
func (w *WebhookNotifier) post(ctx context.Context, req *resty.Request) error {
	var lastErr error
	for attempt := 0; attempt < deliveryAttempts; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("webhook rate limit: %w", err)
		}

		resp, err := req.Post(w.url)
		if err == nil && !resp.IsError() {
			return nil
		}

		delay, retry := w.retryDelay(attempt, resp, err)
		if !retry {
			return fmt.Errorf("webhook rejected notification with %s: %s", resp.Status(), resp.String())
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %s", resp.Status())
		}
		if attempt == deliveryAttempts-1 {
			break
		}

		w.logger.Debug("Webhook delivery failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return fmt.Errorf("webhook gave up after %d attempts: %w", deliveryAttempts, lastErr)
}

// retryDelay reports whether a failed attempt is worth repeating and how long
// to wait first. A Retry-After header on 429 overrides the doubling backoff.
func (w *WebhookNotifier) retryDelay(attempt int, resp *resty.Response, err error) (time.Duration, bool) {
	delay := w.baseBackoff << attempt
	if err != nil {
		return delay, true
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		if secs, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
		return delay, true
	case code >= http.StatusInternalServerError:
		return delay, true
	default:
		return 0, false
	}
}
