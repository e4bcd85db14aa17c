// internal/analytics/webhook.go
//
// WebhookSink posts events as JSON to an external collector.
//
// Delivery is fire-and-forget on a background goroutine detached from the
// request context, so a slow collector never delays a subscription.  Flush
// waits for outstanding posts; main calls it during shutdown.

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const webhookTimeout = 5 * time.Second

// WebhookSink is safe for concurrent use.
type WebhookSink struct {
	url    string
	client *http.Client
	log    *zap.SugaredLogger
	wg     sync.WaitGroup
}

// NewWebhookSink posts to url.  A nil client uses a pooled cleanhttp client;
// a nil logger uses zap.S().
func NewWebhookSink(url string, client *http.Client, log *zap.SugaredLogger) *WebhookSink {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	if log == nil {
		log = zap.S()
	}
	return &WebhookSink{url: url, client: client, log: log}
}

// Push queues ev for delivery and returns immediately.
func (s *WebhookSink) Push(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		s.log.Errorw("analytics encode failed", "err", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
		defer cancel()
		s.post(ctx, body)
	}()
}

// Flush blocks until every queued event has been posted or has failed.
func (s *WebhookSink) Flush() { s.wg.Wait() }

func (s *WebhookSink) post(ctx context.Context, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.log.Errorw("analytics request build failed", "url", s.url, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warnw("analytics webhook failed", "url", s.url, "err", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		s.log.Warnw("analytics webhook rejected", "url", s.url, "status", resp.StatusCode)
	}
}
