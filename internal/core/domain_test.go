package core

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"need", " Want ", "SAVINGS"} {
		if _, err := ParseCategory(in); err != nil {
			t.Fatalf("%q expected ok, got %v", in, err)
		}
	}
	for _, in := range []string{"", "needs", "income"} {
		if _, err := ParseCategory(in); !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", in, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := (Money{Cents: MaxCents}).Validate(); err != nil {
		t.Fatalf("expected ok at bound, got %v", err)
	}
	if err := (Money{Cents: MaxCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above bound, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: Money{Cents: 100}, Description: "rice", Category: CategoryNeed}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Amount: Money{}, Description: "a", Category: CategoryNeed}, ErrInvalidAmount},
		{Expense{Amount: Money{Cents: 1}, Description: "  ", Category: CategoryWant}, ErrEmptyDescription},
		{Expense{Amount: Money{Cents: 1}, Description: "a", Category: "other"}, ErrInvalidCategory},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}
