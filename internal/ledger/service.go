// Package ledger owns the in-memory roster and funnels every change
// through the core roster operations.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"caixinha/internal/amqp"
	"caixinha/internal/core"
	"caixinha/internal/log"
)

const (
	defaultOutboxSize = 256
	publishTimeout    = 10 * time.Second
)

// EventPublisher receives a notification for every applied change.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, evt amqp.LedgerEvent) error
}

// Service is the single owner of the roster. Mutations are serialised;
// readers get deep copies. Events leave through an outbox drained by one
// goroutine, so a slow broker never holds up a mutation.
type Service struct {
	mu        sync.RWMutex
	roster    core.Roster
	reference core.Date
	closed    bool

	publisher EventPublisher
	outbox    chan amqp.LedgerEvent
	drained   chan struct{}
	logger    *log.Logger
	ops       *log.StructuredLogger
}

// NewService takes ownership of initial and runs the one-shot lateness
// check against reference. Loans added later are not re-evaluated.
func NewService(ctx context.Context, initial core.Roster, reference core.Date, publisher EventPublisher, logger *log.Logger) *Service {
	return newService(ctx, initial, reference, publisher, logger, defaultOutboxSize)
}

func newService(ctx context.Context, initial core.Roster, reference core.Date, publisher EventPublisher, logger *log.Logger, outboxSize int) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)

	s := &Service{
		roster:    initial.ApplyLatenessCheck(reference),
		reference: reference,
		publisher: publisher,
		drained:   make(chan struct{}),
		logger:    logger,
		ops:       log.NewStructuredLogger(logger),
	}
	if publisher != nil {
		s.outbox = make(chan amqp.LedgerEvent, outboxSize)
		go s.drain()
	} else {
		close(s.drained)
	}

	marked := countLate(s.roster) - countLate(initial)
	logger.InfoContext(ctx, "Lateness check applied",
		log.FieldOperation, log.OpLatenessCheck,
		"reference_date", reference.String(),
		"members", s.roster.Len(),
		"loans_marked_late", marked)

	if marked > 0 {
		evt := amqp.NewLedgerEvent(amqp.EventLoansMarkedLate, 0, "")
		evt.Count = marked
		s.mu.Lock()
		s.enqueue(ctx, evt)
		s.mu.Unlock()
	}
	return s
}

// ReferenceDate is the "today" the lateness check ran against.
func (s *Service) ReferenceDate() core.Date {
	return s.reference
}

// Snapshot returns the current roster. Roster operations never modify
// their receiver, so the value stays valid after later changes.
func (s *Service) Snapshot() core.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Members lists members in roster order.
func (s *Service) Members() []core.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Members()
}

// Summary derives the dashboard figures from the current roster.
func (s *Service) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.roster)
}

// AddMember appends a new pending member.
func (s *Service) AddMember(ctx context.Context, name string) (core.Member, error) {
	var added core.Member
	err := s.apply(ctx, log.OpAddMember, 0, amqp.EventMemberAdded, func(r core.Roster) (core.Roster, error) {
		next, err := r.AddMember(name)
		if err != nil {
			return r, err
		}
		ms := next.Members()
		added = ms[len(ms)-1]
		return next, nil
	}, func(core.Roster) (int64, string) { return added.ID, added.Name })
	return added, err
}

func (s *Service) TogglePaymentStatus(ctx context.Context, id int64) error {
	return s.apply(ctx, log.OpTogglePayment, id, amqp.EventPaymentToggled,
		func(r core.Roster) (core.Roster, error) { return r.TogglePaymentStatus(id) },
		memberRef(id))
}

func (s *Service) RemoveMember(ctx context.Context, id int64) error {
	var name string
	return s.apply(ctx, log.OpRemoveMember, id, amqp.EventMemberRemoved,
		func(r core.Roster) (core.Roster, error) {
			if m, ok := r.Find(id); ok {
				name = m.Name
			}
			return r.RemoveMember(id)
		},
		func(core.Roster) (int64, string) { return id, name })
}

func (s *Service) ToggleFine(ctx context.Context, id int64) error {
	return s.apply(ctx, log.OpToggleFine, id, amqp.EventFineToggled,
		func(r core.Roster) (core.Roster, error) { return r.ToggleFine(id) },
		memberRef(id))
}

// SetLoan replaces the member's loan with a fresh pending one.
func (s *Service) SetLoan(ctx context.Context, id int64, amount core.Money, dueDate core.Date) error {
	return s.apply(ctx, log.OpSetLoan, id, amqp.EventLoanSet,
		func(r core.Roster) (core.Roster, error) { return r.SetLoan(id, amount, dueDate) },
		memberRef(id))
}

func (s *Service) RemoveLoan(ctx context.Context, id int64) error {
	return s.apply(ctx, log.OpRemoveLoan, id, amqp.EventLoanRemoved,
		func(r core.Roster) (core.Roster, error) { return r.RemoveLoan(id) },
		memberRef(id))
}

// apply runs op under the write lock. A failed op leaves the roster as it
// was and is logged as a no-op; the error is returned for callers that
// want to surface it.
func (s *Service) apply(
	ctx context.Context,
	op string,
	id int64,
	evtType amqp.EventType,
	fn func(core.Roster) (core.Roster, error),
	ref func(core.Roster) (int64, string),
) error {
	s.mu.Lock()
	next, err := fn(s.roster)
	if err != nil {
		s.mu.Unlock()
		s.ops.LogNoop(ctx, op, id, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.roster = next
	memberID, name := ref(next)
	// queued under the lock so events keep mutation order
	s.enqueue(ctx, amqp.NewLedgerEvent(evtType, memberID, name))
	s.mu.Unlock()

	s.ops.LogMutation(ctx, op, memberID, name)
	return nil
}

// enqueue never blocks. A full outbox drops the event. Callers hold mu.
func (s *Service) enqueue(ctx context.Context, evt amqp.LedgerEvent) {
	if s.outbox == nil || s.closed {
		return
	}
	select {
	case s.outbox <- evt:
	default:
		s.logger.WarnContext(ctx, "Ledger event outbox full, dropping event",
			log.FieldEventID, evt.ID,
			log.FieldEventType, string(evt.Type))
	}
}

// drain publishes queued events in order. Failures are logged; a broker
// problem never undoes a change.
func (s *Service) drain() {
	defer close(s.drained)
	for evt := range s.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.publisher.PublishLedgerEvent(ctx, evt); err != nil {
			s.ops.LogError(ctx, "Failed to publish ledger event", err, string(evt.Type),
				log.NewFields().WithMember(evt.MemberID, evt.MemberName))
		}
		cancel()
	}
}

// Close stops accepting events and waits until the queued ones are
// published or ctx is done. Mutations keep working after Close.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		if s.outbox != nil {
			close(s.outbox)
		}
	}
	s.mu.Unlock()

	select {
	case <-s.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func memberRef(id int64) func(core.Roster) (int64, string) {
	return func(r core.Roster) (int64, string) {
		m, _ := r.Find(id)
		return id, m.Name
	}
}

func countLate(r core.Roster) int {
	n := 0
	for _, m := range r.Members() {
		if m.Loan != nil && m.Loan.IsLate() {
			n++
		}
	}
	return n
}
