package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeSeedRoster(t *testing.T) {
	s := Summarize(SeedRoster())

	assert.Equal(t, Summary{
		TotalMembers:       5,
		PaidCount:          3,
		PendingCount:       2,
		CollectedThisMonth: Reais(300),
		TotalLoaned:        Reais(800),
		LateDebt:           Money{},
	}, s)
}

func TestSummarizeAfterStartupCheck(t *testing.T) {
	s := Summarize(SeedRoster().ApplyLatenessCheck(DefaultReferenceDate))

	// Both seed loans fall before the reference date.
	assert.Equal(t, Reais(880), s.LateDebt)
	assert.Equal(t, Reais(800), s.TotalLoaned)
}

func TestSummarizeCollectedIncludesFine(t *testing.T) {
	cases := []struct {
		name string
		m    Member
		want Money
	}{
		{"paid without fine", Member{ID: 1, Name: "A", PaymentStatus: PaymentPaid}, Reais(100)},
		{"paid with fine", Member{ID: 1, Name: "A", PaymentStatus: PaymentPaid, Fine: Reais(20)}, Reais(120)},
		{"pending with fine", Member{ID: 1, Name: "A", PaymentStatus: PaymentPending, Fine: Reais(20)}, Money{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summarize(NewRoster(tc.m)).CollectedThisMonth)
		})
	}
}

func TestSummarizeIsPureAndCountsAddUp(t *testing.T) {
	rosters := []Roster{
		NewRoster(),
		SeedRoster(),
		SeedRoster().ApplyLatenessCheck(DefaultReferenceDate),
	}
	for _, r := range rosters {
		a, b := Summarize(r), Summarize(r)
		assert.Equal(t, a, b)
		assert.Equal(t, a.TotalMembers, a.PaidCount+a.PendingCount)
	}
}

func TestEndToEndLateDebt(t *testing.T) {
	r := NewRoster(
		Member{ID: 1, Name: "Ana Silva", PaymentStatus: PaymentPaid},
		Member{ID: 2, Name: "Bruno Costa", PaymentStatus: PaymentPending,
			Loan: &Loan{Amount: Reais(500), DueDate: NewDate(2024, 5, 10), Status: LoanPending}},
		Member{ID: 3, Name: "Carlos Dias", PaymentStatus: PaymentPaid},
		Member{ID: 4, Name: "Daniela Souza", PaymentStatus: PaymentPaid},
		Member{ID: 5, Name: "Eduardo Lima", PaymentStatus: PaymentPending},
	)

	checked := r.ApplyLatenessCheck(NewDate(2024, 6, 15))

	late := 0
	for _, m := range checked.Members() {
		if m.Loan != nil && m.Loan.IsLate() {
			late++
			assert.Equal(t, Reais(50), m.Loan.LateFee)
		}
	}
	assert.Equal(t, 1, late)
	assert.Equal(t, "R$ 550,00", Summarize(checked).LateDebt.String())
}
