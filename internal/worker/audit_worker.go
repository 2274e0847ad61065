// Package worker consumes ledger events published by the dashboard.
package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"caixinha/internal/amqp"
	"caixinha/internal/cache"
	"caixinha/internal/log"
)

var ErrInvalidEvent = errors.New("invalid ledger event")

// AuditWorker writes an audit trail of ledger events and keeps a running
// tally per event type. Redelivered events are recognised by id and
// counted once.
type AuditWorker struct {
	logger *log.Logger
	seen   cache.Cache[bool]

	mu     sync.Mutex
	counts map[amqp.EventType]int
	last   time.Time
}

// NewAuditWorker remembers up to dedupSize event ids for dedupTTL.
func NewAuditWorker(logger *log.Logger, dedupSize int, dedupTTL time.Duration) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		logger: logger.WithComponent(log.ComponentAudit),
		seen:   cache.NewLRUCache[bool](dedupSize, dedupTTL),
		counts: make(map[amqp.EventType]int),
	}
}

// HandleLedgerEvent records one event. Events without an id or type are
// rejected so the consumer requeues them for inspection.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, evt amqp.LedgerEvent) error {
	if evt.ID == "" || evt.Type == "" {
		return ErrInvalidEvent
	}
	if _, dup := w.seen.Get(evt.ID); dup {
		w.logger.DebugContext(ctx, "Skipping redelivered ledger event", log.FieldEventID, evt.ID)
		return nil
	}
	w.seen.Set(evt.ID, true)

	w.mu.Lock()
	w.counts[evt.Type]++
	if evt.Timestamp.After(w.last) {
		w.last = evt.Timestamp
	}
	w.mu.Unlock()

	args := []any{
		log.FieldEventID, evt.ID,
		log.FieldEventType, string(evt.Type),
		"timestamp", evt.Timestamp.Format(time.RFC3339),
	}
	if evt.MemberID != 0 {
		args = append(args, log.FieldMemberID, evt.MemberID, log.FieldMemberName, evt.MemberName)
	}
	if evt.Count != 0 {
		args = append(args, "count", evt.Count)
	}
	w.logger.InfoContext(ctx, "Ledger event", args...)
	return nil
}

// Counts returns a copy of the per-type tally.
func (w *AuditWorker) Counts() map[amqp.EventType]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[amqp.EventType]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// Report logs the tally in a stable order.
func (w *AuditWorker) Report(ctx context.Context) {
	counts := w.Counts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	args := make([]any, 0, 2*len(types)+2)
	total := 0
	for _, t := range types {
		n := counts[amqp.EventType(t)]
		total += n
		args = append(args, t, n)
	}
	args = append(args, "total", total)
	w.logger.InfoContext(ctx, "Audit tally", args...)
}

// RunReports calls Report every interval until ctx is done.
func (w *AuditWorker) RunReports(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Report(ctx)
		}
	}
}
