package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-10")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || d.Month() != 5 || d.Day() != 10 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("   "); !errors.Is(err, ErrEmptyDueDate) {
		t.Fatalf("expected ErrEmptyDueDate, got %v", err)
	}
	if _, err := ParseDate("10/05/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateIsBefore(t *testing.T) {
	today := NewDate(2024, 6, 15)
	if !NewDate(2024, 5, 10).IsBefore(today) {
		t.Fatal("expected 2024-05-10 before 2024-06-15")
	}
	if today.IsBefore(today) {
		t.Fatal("a date is not strictly before itself")
	}
	if NewDate(2024, 7, 1).IsBefore(today) {
		t.Fatal("expected 2024-07-01 not before 2024-06-15")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestStatusLabels(t *testing.T) {
	if PaymentPaid.Label() != "pago" || PaymentPending.Label() != "pendente" {
		t.Fatal("unexpected payment labels")
	}
	if LoanLate.Label() != "atrasado" || LoanPending.Label() != "pendente" || LoanPaid.Label() != "pago" {
		t.Fatal("unexpected loan labels")
	}
}
