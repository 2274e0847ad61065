package core

import "strings"

// Roster is an ordered snapshot of the club's members. Display order is
// insertion order.
//
// Roster has value semantics: every operation returns a new Roster and
// leaves the receiver untouched. On error the receiver is returned as is,
// so callers that only care about the resulting state may drop the error.
type Roster struct {
	members []Member
	nextID  int64
}

// NewRoster builds a roster from members in the given order. Identities
// handed out by AddMember continue after the highest existing id.
func NewRoster(members ...Member) Roster {
	r := Roster{members: make([]Member, 0, len(members)), nextID: 1}
	for _, m := range members {
		r.members = append(r.members, cloneMember(m))
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	return r
}

// Members returns a copy of the members in display order.
func (r Roster) Members() []Member {
	out := make([]Member, len(r.members))
	for i, m := range r.members {
		out[i] = cloneMember(m)
	}
	return out
}

// Len returns the number of members.
func (r Roster) Len() int {
	return len(r.members)
}

// Find returns the member with the given id.
func (r Roster) Find(id int64) (Member, bool) {
	if i := r.indexOf(id); i >= 0 {
		return cloneMember(r.members[i]), true
	}
	return Member{}, false
}

// AddMember appends a new pending member with a fresh identity.
func (r Roster) AddMember(name string) (Roster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r, ErrEmptyName
	}
	next := r.clone()
	if next.nextID < 1 {
		next.nextID = 1
	}
	next.members = append(next.members, Member{
		ID:            next.nextID,
		Name:          name,
		PaymentStatus: PaymentPending,
	})
	next.nextID++
	return next, nil
}

// TogglePaymentStatus flips paid and pending for the member.
func (r Roster) TogglePaymentStatus(id int64) (Roster, error) {
	return r.update(id, func(m *Member) error {
		if m.PaymentStatus == PaymentPaid {
			m.PaymentStatus = PaymentPending
		} else {
			m.PaymentStatus = PaymentPaid
		}
		return nil
	})
}

// RemoveMember deletes the member.
func (r Roster) RemoveMember(id int64) (Roster, error) {
	i := r.indexOf(id)
	if i < 0 {
		return r, ErrMemberNotFound
	}
	next := r.clone()
	next.members = append(next.members[:i], next.members[i+1:]...)
	return next, nil
}

// ToggleFine clears an applied fine or applies the fixed FineAmount.
// Payment status is not checked.
func (r Roster) ToggleFine(id int64) (Roster, error) {
	return r.update(id, func(m *Member) error {
		if m.HasFine() {
			m.Fine = Money{}
		} else {
			m.Fine = FineAmount
		}
		return nil
	})
}

// SetLoan creates or replaces the member's loan. The new loan is always
// pending with no late fee, whatever the previous loan's state was.
func (r Roster) SetLoan(id int64, amount Money, dueDate Date) (Roster, error) {
	if err := amount.Validate(); err != nil {
		return r, err
	}
	if dueDate.IsEmpty() {
		return r, ErrEmptyDueDate
	}
	return r.update(id, func(m *Member) error {
		m.Loan = &Loan{Amount: amount, DueDate: dueDate, Status: LoanPending}
		return nil
	})
}

// RemoveLoan deletes the member's loan entirely.
func (r Roster) RemoveLoan(id int64) (Roster, error) {
	return r.update(id, func(m *Member) error {
		if m.Loan == nil {
			return ErrNoLoan
		}
		m.Loan = nil
		return nil
	})
}

// ApplyLatenessCheck marks every pending loan whose due date is strictly
// before referenceDate as late, with a freshly computed late fee. Paid and
// already-late loans pass through unchanged.
func (r Roster) ApplyLatenessCheck(referenceDate Date) Roster {
	next := r.clone()
	for i, m := range next.members {
		if m.Loan == nil || m.Loan.Status != LoanPending || !m.Loan.DueDate.IsBefore(referenceDate) {
			continue
		}
		next.members[i].Loan = &Loan{
			Amount:  m.Loan.Amount,
			DueDate: m.Loan.DueDate,
			Status:  LoanLate,
			LateFee: LateFeeFor(m.Loan.Amount),
		}
	}
	return next
}

func (r Roster) update(id int64, fn func(*Member) error) (Roster, error) {
	i := r.indexOf(id)
	if i < 0 {
		return r, ErrMemberNotFound
	}
	next := r.clone()
	if err := fn(&next.members[i]); err != nil {
		return r, err
	}
	return next, nil
}

func (r Roster) indexOf(id int64) int {
	for i, m := range r.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r Roster) clone() Roster {
	out := Roster{members: make([]Member, len(r.members), len(r.members)+1), nextID: r.nextID}
	for i, m := range r.members {
		out.members[i] = cloneMember(m)
	}
	return out
}

func cloneMember(m Member) Member {
	if m.Loan != nil {
		l := *m.Loan
		m.Loan = &l
	}
	return m
}
