package core

import (
	"errors"
	"strings"
)

const (
	CategoryNeed    Category = "need"
	CategoryWant    Category = "want"
	CategorySavings Category = "savings"
)

// DateLayout is the ISO calendar date format used for every stored date.
const DateLayout = "2006-01-02"

type (
	Category string

	Money struct {
		Cents int64
	}

	// Expense is immutable once the ledger has created it.
	Expense struct {
		ID          string   `json:"id"`
		Amount      Money    `json:"amount"`
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Date        string   `json:"date"`
		Recurring   bool     `json:"recurring"`
		WeekID      string   `json:"weekId"`
	}

	// WeekSummary is the archived record of a closed week.
	WeekSummary struct {
		ID         string `json:"id"`
		WeekNumber int    `json:"weekNumber"`
		Year       int    `json:"year"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
		Allowance  Money  `json:"allowance"`
		Needs      Money  `json:"needs"`
		Wants      Money  `json:"wants"`
		Savings    Money  `json:"savings"`
		TotalSpent Money  `json:"totalSpent"`
		Remaining  Money  `json:"remaining"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidWeekKey   = errors.New("invalid week id")
)

// Categories lists the categories in display order.
func Categories() []Category {
	return []Category{CategoryNeed, CategoryWant, CategorySavings}
}

// ParseCategory normalizes and validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryNeed, CategoryWant, CategorySavings:
		return true
	default:
		return false
	}
}

func (c Category) String() string { return string(c) }

// Label returns the plural heading used for a category in summaries.
func (c Category) Label() string {
	switch c {
	case CategoryNeed:
		return "Needs"
	case CategoryWant:
		return "Wants"
	case CategorySavings:
		return "Savings"
	default:
		return string(c)
	}
}

// Validate accepts positive amounts up to MaxCents.
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the caller-supplied fields of an expense.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// OnBudget reports whether the week closed without overspending.
func (w WeekSummary) OnBudget() bool {
	return w.Remaining.Cents >= 0
}
