package core

// DefaultReferenceDate is the simulated "today" the dashboard boots with.
var DefaultReferenceDate = NewDate(2024, 6, 15)

// SeedRoster returns the demonstration roster the dashboard starts with.
func SeedRoster() Roster {
	return NewRoster(
		Member{ID: 1, Name: "Ana Silva", PaymentStatus: PaymentPaid},
		Member{ID: 2, Name: "Bruno Costa", PaymentStatus: PaymentPending, Fine: FineAmount,
			Loan: &Loan{Amount: Reais(500), DueDate: NewDate(2024, 5, 10), Status: LoanPending}},
		Member{ID: 3, Name: "Carlos Dias", PaymentStatus: PaymentPaid,
			Loan: &Loan{Amount: Reais(300), DueDate: NewDate(2024, 6, 10), Status: LoanPending}},
		Member{ID: 4, Name: "Daniela Souza", PaymentStatus: PaymentPaid},
		Member{ID: 5, Name: "Eduardo Lima", PaymentStatus: PaymentPending},
	)
}
