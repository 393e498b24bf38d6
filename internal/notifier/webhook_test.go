package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pos_backoffice/internal/models"
)

type recordingServer struct {
	mu       sync.Mutex
	keys     []string
	events   []Event
	statuses []int // replies in order; the last one repeats
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var e Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.keys = append(s.keys, r.Header.Get(idempotencyHeader))
	s.events = append(s.events, e)
	status := http.StatusOK
	if n := len(s.statuses); n > 0 {
		i := len(s.events) - 1
		if i >= n {
			i = n - 1
		}
		status = s.statuses[i]
	}
	w.WriteHeader(status)
}

func (s *recordingServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestNotifier(url string, attempts int) *WebhookNotifier {
	return New(Config{URL: url, MaxAttempts: attempts, Backoff: time.Millisecond, Timeout: time.Second})
}

func TestDeliverRetriesWithSameKey(t *testing.T) {
	rec := &recordingServer{statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusNoContent}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := newTestNotifier(srv.URL, 5)
	event := Event{OrderID: 12, ExternalRef: "WEB-12", Status: models.OrderStatusCompleted, OccurredAt: time.Now().UTC()}
	if err := n.Deliver(context.Background(), "key-1", event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if rec.calls() != 3 {
		t.Fatalf("attempts = %d, want 3", rec.calls())
	}
	for i, k := range rec.keys {
		if k != "key-1" {
			t.Errorf("attempt %d key = %q", i+1, k)
		}
	}
	got := rec.events[2]
	if got.OrderID != 12 || got.ExternalRef != "WEB-12" || got.Status != models.OrderStatusCompleted {
		t.Errorf("payload = %+v", got)
	}
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	rec := &recordingServer{statuses: []int{http.StatusInternalServerError}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := newTestNotifier(srv.URL, 3)
	if err := n.Deliver(context.Background(), "k", Event{OrderID: 1}); err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if rec.calls() != 3 {
		t.Errorf("attempts = %d, want 3", rec.calls())
	}
}

func TestDeliverDoesNotRetryClientErrors(t *testing.T) {
	rec := &recordingServer{statuses: []int{http.StatusUnprocessableEntity}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := newTestNotifier(srv.URL, 5)
	err := n.Deliver(context.Background(), "k", Event{OrderID: 1})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("err = %v, want ErrPermanent", err)
	}
	if rec.calls() != 1 {
		t.Errorf("attempts = %d, want 1", rec.calls())
	}
}

func TestQueuedEventsDrainOnStop(t *testing.T) {
	rec := &recordingServer{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := newTestNotifier(srv.URL, 2)
	n.Start()
	ref := "WEB-5"
	for _, st := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusOutForDelivery, models.OrderStatusCompleted} {
		n.NotifyStatusChange(models.Order{ID: 5, ExternalRef: &ref, Status: st})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.calls() != 3 {
		t.Fatalf("delivered = %d, want 3", rec.calls())
	}
	if rec.keys[0] == rec.keys[1] {
		t.Error("distinct events share an idempotency key")
	}
	if rec.events[2].Status != models.OrderStatusCompleted {
		t.Errorf("last status = %s", rec.events[2].Status)
	}

	// Events after Stop are dropped, not panicking on the closed queue.
	n.NotifyStatusChange(models.Order{ID: 6, Status: models.OrderStatusCancelled})
}
