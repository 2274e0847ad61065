package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a roster mutation.
type EventType string

const (
	EventMemberAdded     EventType = "member.added"
	EventMemberRemoved   EventType = "member.removed"
	EventPaymentToggled  EventType = "member.payment_toggled"
	EventFineToggled     EventType = "member.fine_toggled"
	EventLoanSet         EventType = "loan.set"
	EventLoanRemoved     EventType = "loan.removed"
	EventLoansMarkedLate EventType = "loan.marked_late"
)

// LedgerEvent is a lightweight notification about an applied roster
// change. It carries identities only; consumers never see balances.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	MemberID   int64     `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	Count      int       `json:"count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh id.
func NewLedgerEvent(t EventType, memberID int64, memberName string) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.NewString(),
		Type:       t,
		MemberID:   memberID,
		MemberName: memberName,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes a message body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return LedgerEvent{}, err
	}
	return evt, nil
}
