package http

import (
	"net/http"

	"caixinha/internal/core"
)

type apiLoan struct {
	Amount    string `json:"amount"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status"`
	LateFee   string `json:"late_fee,omitempty"`
	TotalOwed string `json:"total_owed"`
}

type apiMember struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	PaymentStatus string   `json:"payment_status"`
	Fine          string   `json:"fine,omitempty"`
	Loan          *apiLoan `json:"loan,omitempty"`
}

type apiSummary struct {
	TotalMembers       int    `json:"total_members"`
	PaidCount          int    `json:"paid_count"`
	PendingCount       int    `json:"pending_count"`
	CollectedThisMonth string `json:"collected_this_month"`
	TotalLoaned        string `json:"total_loaned"`
	LateDebt           string `json:"late_debt"`
}

// Amounts are decimal strings with two places ("550.00").
func toAPIMember(m core.Member) apiMember {
	out := apiMember{ID: m.ID, Name: m.Name, PaymentStatus: string(m.PaymentStatus)}
	if m.HasFine() {
		out.Fine = m.Fine.Fixed()
	}
	if l := m.Loan; l != nil {
		out.Loan = &apiLoan{
			Amount:    l.Amount.Fixed(),
			DueDate:   l.DueDate.String(),
			Status:    string(l.Status),
			TotalOwed: l.TotalOwed().Fixed(),
		}
		if !l.LateFee.IsZero() {
			out.Loan.LateFee = l.LateFee.Fixed()
		}
	}
	return out
}

func (s *Server) handleAPIRoster(w http.ResponseWriter, r *http.Request) {
	members := s.ledger.Members()
	out := make([]apiMember, 0, len(members))
	for _, m := range members {
		out = append(out, toAPIMember(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum := s.ledger.Summary()
	writeJSON(w, http.StatusOK, apiSummary{
		TotalMembers:       sum.TotalMembers,
		PaidCount:          sum.PaidCount,
		PendingCount:       sum.PendingCount,
		CollectedThisMonth: sum.CollectedThisMonth.Fixed(),
		TotalLoaned:        sum.TotalLoaned.Fixed(),
		LateDebt:           sum.LateDebt.Fixed(),
	})
}

func (s *Server) handleAPIRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Rules())
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	v := s.chatView()
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": v.Messages,
		"busy":     v.Busy,
	})
}
