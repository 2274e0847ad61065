package core

// Summary aggregates the dashboard figures for a roster snapshot.
type Summary struct {
	TotalMembers       int
	PaidCount          int
	PendingCount       int
	CollectedThisMonth Money
	TotalLoaned        Money
	LateDebt           Money
}

// Summarize computes the summary figures. Paid members contribute the
// monthly due plus any fine; late loans contribute principal plus late fee.
func Summarize(r Roster) Summary {
	s := Summary{TotalMembers: r.Len()}
	for _, m := range r.members {
		if m.PaymentStatus == PaymentPaid {
			s.PaidCount++
			s.CollectedThisMonth = s.CollectedThisMonth.Add(MonthlyDue).Add(m.Fine)
		}
		if m.Loan == nil {
			continue
		}
		s.TotalLoaned = s.TotalLoaned.Add(m.Loan.Amount)
		if m.Loan.IsLate() {
			s.LateDebt = s.LateDebt.Add(m.Loan.TotalOwed())
		}
	}
	s.PendingCount = s.TotalMembers - s.PaidCount
	return s
}
