package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"demo-options-trader/internal/config"
	"demo-options-trader/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a WebhookNotifier posting to it.
func setupTestServer(handler http.Handler) (*WebhookNotifier, *httptest.Server) {
	server := httptest.NewServer(handler)

	w := &WebhookNotifier{
		client:      resty.New(),
		url:         server.URL + "/hook",
		timeout:     time.Second,
		baseBackoff: time.Millisecond,
		logger:      zap.NewNop(),
		limiter:     rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return w, server
}

func sampleNotification() models.Notification {
	return models.Notification{
		Event:       models.EventTradeWon,
		Title:       "Trade Won",
		Description: "CALL trade resolved: +$80.00",
		Category:    models.CategorySuccess,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookDeliver(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		var received models.Notification
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hook", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusNoContent)
		})

		wh, server := setupTestServer(handler)
		defer server.Close()

		// Act
		err := wh.Deliver(context.Background(), sampleNotification())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, models.EventTradeWon, received.Event)
		assert.Equal(t, "Trade Won", received.Title)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		wh, server := setupTestServer(handler)
		defer server.Close()

		// Act
		err := wh.Deliver(context.Background(), sampleNotification())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		wh, server := setupTestServer(handler)
		defer server.Close()

		// Act
		err := wh.Deliver(context.Background(), sampleNotification())

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to post notification")
		assert.Contains(t, err.Error(), "webhook gave up after 3 attempts")
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("ClientErrorIsNotRetried", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad payload"}`))
		})

		wh, server := setupTestServer(handler)
		defer server.Close()

		// Act
		err := wh.Deliver(context.Background(), sampleNotification())

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad payload")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("RetriesTooManyRequests", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		wh, server := setupTestServer(handler)
		defer server.Close()

		// Act
		err := wh.Deliver(context.Background(), sampleNotification())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestWebhookNotify_IsAsynchronous(t *testing.T) {
	got := make(chan models.Notification, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n models.Notification
		_ = json.NewDecoder(r.Body).Decode(&n)
		got <- n
		w.WriteHeader(http.StatusOK)
	})

	wh, server := setupTestServer(handler)
	defer server.Close()

	wh.Notify(sampleNotification())

	select {
	case n := <-got:
		assert.Equal(t, models.EventTradeWon, n.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestNewWebhookNotifier(t *testing.T) {
	cfg := &config.Notify{WebhookURL: "http://localhost:9999/hook", RateLimit: 5, RateLimitBurst: 2}

	wh := NewWebhookNotifier(cfg, zap.NewNop())

	require.NotNil(t, wh)
	assert.Equal(t, cfg.WebhookURL, wh.url)
	assert.Equal(t, 5*time.Second, wh.timeout, "zero timeout falls back to the default")
	assert.Equal(t, 2, wh.limiter.Burst())
}
