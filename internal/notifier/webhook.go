// Package notifier pushes status changes of web orders to the external
// ordering channel. Delivery is asynchronous and best effort: failures are
// logged and never reach the order lifecycle.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/pkg/utils"

	"github.com/google/uuid"
)

const (
	defaultQueueSize  = 256
	defaultTimeout    = 10 * time.Second
	maxBackoff        = 30 * time.Second
	idempotencyHeader = "Idempotency-Key"
)

// ErrPermanent marks a response that retrying cannot fix.
var ErrPermanent = errors.New("webhook rejected the event")

// Event is the JSON body posted for every status change.
type Event struct {
	OrderID     int64              `json:"order_id"`
	ExternalRef string             `json:"external_ref,omitempty"`
	Status      models.OrderStatus `json:"status"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Config controls delivery. Backoff doubles after every failed attempt.
type Config struct {
	URL         string
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
	QueueSize   int
}

type delivery struct {
	key   string
	event Event
}

// WebhookNotifier queues events and delivers them from one worker goroutine.
type WebhookNotifier struct {
	cfg    Config
	client *http.Client
	queue  chan delivery

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New returns a notifier; call Start before the first event.
func New(cfg Config) *WebhookNotifier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebhookNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan delivery, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the delivery worker.
func (n *WebhookNotifier) Start() {
	n.wg.Add(1)
	go n.run()
	utils.LogInfo("Webhook notifier started", map[string]interface{}{"url": n.cfg.URL, "max_attempts": n.cfg.MaxAttempts})
}

func (n *WebhookNotifier) run() {
	defer n.wg.Done()
	for d := range n.queue {
		if err := n.Deliver(n.ctx, d.key, d.event); err != nil {
			utils.LogError(err, "Webhook delivery failed", map[string]interface{}{
				"order_id": d.event.OrderID, "status": d.event.Status, "idempotency_key": d.key,
			})
		}
	}
}

// Stop refuses new events and waits for queued ones. When ctx expires first,
// in-flight retries are abandoned.
func (n *WebhookNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		return ctx.Err()
	}
}

// NotifyStatusChange enqueues the order's current status without blocking.
func (n *WebhookNotifier) NotifyStatusChange(order models.Order) {
	event := Event{
		OrderID:     order.ID,
		ExternalRef: utils.DerefString(order.ExternalRef),
		Status:      order.Status,
		OccurredAt:  time.Now().UTC(),
	}
	d := delivery{key: uuid.NewString(), event: event}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		utils.LogWarn("Webhook notifier stopped, dropping event", map[string]interface{}{"order_id": order.ID, "status": order.Status})
		return
	}
	select {
	case n.queue <- d:
	default:
		utils.LogWarn("Webhook queue full, dropping event", map[string]interface{}{"order_id": order.ID, "status": order.Status})
	}
}

// Deliver posts event, retrying transport errors, 429 and 5xx responses with
// exponential backoff. Every attempt carries the same idempotency key.
func (n *WebhookNotifier) Deliver(ctx context.Context, key string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding webhook event: %w", err)
	}

	wait := n.cfg.Backoff
	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		lastErr = n.post(ctx, key, body)
		if lastErr == nil {
			utils.LogDebug("Webhook delivered", map[string]interface{}{"order_id": event.OrderID, "status": event.Status, "attempt": attempt})
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) || attempt == n.cfg.MaxAttempts {
			break
		}
		utils.LogWarn("Webhook attempt failed, retrying", map[string]interface{}{
			"order_id": event.OrderID, "attempt": attempt, "retry_in": wait.String(), "error": lastErr.Error(),
		})
		select {
		case <-ctx.Done():
			return fmt.Errorf("webhook delivery aborted: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
	return lastErr
}

func (n *WebhookNotifier) post(ctx context.Context, key string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, key)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(snippet))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrPermanent, resp.StatusCode, string(snippet))
	}
}
