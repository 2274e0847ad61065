package http

import (
	"strconv"

	"caixinha/internal/assistant"
	"caixinha/internal/core"
)

type summaryCard struct {
	Label string
	Value string
	Tone  string
}

type loanView struct {
	Amount  string
	Input   string
	DueDate string
	Late    bool
	LateFee string
	Total   string
}

type memberView struct {
	ID      int64
	Name    string
	Paid    bool
	HasFine bool
	Fine    string
	Loan    *loanView
}

type chatView struct {
	Messages []assistant.ChatMessage
	Busy     bool
}

type pageData struct {
	ReferenceDate string
	Summary       []summaryCard
	Members       []memberView
	Rules         []core.Rule
	Chat          chatView
}

func summaryCards(s core.Summary) []summaryCard {
	return []summaryCard{
		{Label: "Total de Cotistas", Value: strconv.Itoa(s.TotalMembers), Tone: "blue"},
		{Label: "Pagamentos em Dia", Value: strconv.Itoa(s.PaidCount), Tone: "green"},
		{Label: "Mensalidades Pendentes", Value: strconv.Itoa(s.PendingCount), Tone: "orange"},
		{Label: "Arrecadado no Mês", Value: s.CollectedThisMonth.String(), Tone: "indigo"},
		{Label: "Total Emprestado", Value: s.TotalLoaned.String(), Tone: "purple"},
		{Label: "Dívida Atrasada", Value: s.LateDebt.String(), Tone: "red"},
	}
}

func memberViews(members []core.Member) []memberView {
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		v := memberView{
			ID:      m.ID,
			Name:    m.Name,
			Paid:    m.PaymentStatus == core.PaymentPaid,
			HasFine: m.HasFine(),
			Fine:    m.Fine.String(),
		}
		if l := m.Loan; l != nil {
			v.Loan = &loanView{
				Amount:  l.Amount.String(),
				Input:   l.Amount.Fixed(),
				DueDate: l.DueDate.String(),
				Late:    l.IsLate(),
				LateFee: l.LateFee.String(),
				Total:   l.TotalOwed().String(),
			}
		}
		out = append(out, v)
	}
	return out
}
