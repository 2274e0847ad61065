package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"

	LoanPaid    LoanStatus = "paid"
	LoanPending LoanStatus = "pending"
	LoanLate    LoanStatus = "late"
)

type (
	PaymentStatus string
	LoanStatus    string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Loan is replaced wholesale on every change, never edited in place.
	// LateFee is non-zero only while Status is LoanLate.
	Loan struct {
		Amount  Money
		DueDate Date
		Status  LoanStatus
		LateFee Money
	}

	// Member is a cotista of the club. A zero Fine means no fine applied.
	Member struct {
		ID            int64
		Name          string
		PaymentStatus PaymentStatus
		Fine          Money
		Loan          *Loan
	}
)

var (
	ErrEmptyName      = errors.New("empty member name")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyDueDate   = errors.New("empty due date")
	ErrNoLoan         = errors.New("member has no loan")
	ErrInvalidDate    = errors.New("invalid date")
)

// DateLayout is the calendar format used by forms and the brief.
const DateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Blank input yields ErrEmptyDueDate.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDueDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// IsBefore reports whether d falls on an earlier calendar day than other.
func (d Date) IsBefore(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the amount is absent.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// HasFine reports whether a late-payment fine is applied.
func (m Member) HasFine() bool {
	return !m.Fine.IsZero()
}

// HasLoan reports whether the member holds a loan.
func (m Member) HasLoan() bool {
	return m.Loan != nil
}

// IsLate reports whether the loan has been marked late.
func (l Loan) IsLate() bool {
	return l.Status == LoanLate
}

// TotalOwed is the principal plus any late fee.
func (l Loan) TotalOwed() Money {
	return l.Amount.Add(l.LateFee)
}

// Label returns the status as written in the club's own vocabulary.
func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPaid:
		return "pago"
	case PaymentPending:
		return "pendente"
	}
	return string(s)
}

// Label returns the status as written in the club's own vocabulary.
func (s LoanStatus) Label() string {
	switch s {
	case LoanPaid:
		return "pago"
	case LoanPending:
		return "pendente"
	case LoanLate:
		return "atrasado"
	}
	return string(s)
}
