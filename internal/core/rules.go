package core

import "github.com/shopspring/decimal"

// Fixed club rules. They are product content and never derived from the roster.
var (
	MonthlyDue  = Reais(100)
	FineAmount  = Reais(20)
	LateFeeRate = decimal.New(10, -2)
)

// Rule is a titled rule row shown on the dashboard's rules card.
type Rule struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

var rules = []Rule{
	{Title: "Pagamento Mensal", Value: "R$ 100,00 todo dia 10"},
	{Title: "Multa por Atraso", Value: "R$ 20,00 (mensalidade)"},
	{Title: "Sorteios Anuais", Value: "Maio e Agosto"},
	{Title: "Limite de Empréstimos", Value: "Até 3 por cotista"},
	{Title: "Juros Empréstimo Atrasado", Value: "10% sobre o valor"},
	{Title: "Liberação de Empréstimos", Value: "Somente no dia 10 de novembro"},
}

// Rules returns a copy of the rules card rows in display order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// LateFeeFor computes the late fee for a loan principal.
func LateFeeFor(amount Money) Money {
	return amount.Percent(LateFeeRate)
}
