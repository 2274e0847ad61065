package http

import (
	"context"
	"net/http"
)

// Roster mutations answer with the refreshed members partial. Invalid
// input is a silent no-op: the partial comes back unchanged with 200 and
// no roster:changed event.

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		malformedBody().write(w)
		return
	}
	rep := newReply(http.StatusOK)
	if m, err := s.ledger.AddMember(r.Context(), form.name()); err == nil {
		rep.rosterChanged().
			resetForm().
			notify(noticeSuccess, m.Name+" entrou na caixinha")
	}
	s.renderWith(w, r, rep, "members", memberViews(s.ledger.Members()))
}

func (s *Server) handleTogglePayment(w http.ResponseWriter, r *http.Request) {
	s.mutateMember(w, r, s.ledger.TogglePaymentStatus)
}

func (s *Server) handleToggleFine(w http.ResponseWriter, r *http.Request) {
	s.mutateMember(w, r, s.ledger.ToggleFine)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	s.mutateMember(w, r, s.ledger.RemoveMember)
}

func (s *Server) handleRemoveLoan(w http.ResponseWriter, r *http.Request) {
	s.mutateMember(w, r, s.ledger.RemoveLoan)
}

func (s *Server) handleSetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(r)
	if !ok {
		invalidMemberID().write(w)
		return
	}
	form, err := readForm(r)
	if err != nil {
		malformedBody().write(w)
		return
	}

	err = s.ledger.SetLoan(r.Context(), id, form.amount(), form.dueDate())
	s.renderMembers(w, r, err == nil)
}

func (s *Server) mutateMember(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) error) {
	id, ok := memberID(r)
	if !ok {
		invalidMemberID().write(w)
		return
	}
	err := op(r.Context(), id)
	s.renderMembers(w, r, err == nil)
}

func (s *Server) renderMembers(w http.ResponseWriter, r *http.Request, changed bool) {
	rep := newReply(http.StatusOK)
	if changed {
		rep.rosterChanged()
	}
	s.renderWith(w, r, rep, "members", memberViews(s.ledger.Members()))
}
