package core

// Target shares of the allowance, in percent.
const (
	NeedsShare   = 50
	WantsShare   = 30
	SavingsShare = 20
)

// WeeksPerMonth is the flat multiplier used for monthly projections.
const WeeksPerMonth = 4

// Allocation is the 50/30/20 split of an allowance.
type Allocation struct {
	Needs   Money `json:"needs"`
	Wants   Money `json:"wants"`
	Savings Money `json:"savings"`
}

// Totals holds the amounts spent per category in one week.
type Totals struct {
	Needs   Money `json:"needs"`
	Wants   Money `json:"wants"`
	Savings Money `json:"savings"`
}

// CategoryUsage compares one category's spending with its allocation.
type CategoryUsage struct {
	Category  Category `json:"category"`
	Label     string   `json:"label"`
	Spent     Money    `json:"spent"`
	Allocated Money    `json:"allocated"`
	UsedPct   float64  `json:"usedPct"`
}

// Projection is a weekly figure set multiplied by WeeksPerMonth.
type Projection struct {
	Allowance   Money      `json:"allowance"`
	Needs       Money      `json:"needs"`
	Wants       Money      `json:"wants"`
	Savings     Money      `json:"savings"`
	Allocations Allocation `json:"allocations"`
}

// Snapshot is the read model of the active week.
type Snapshot struct {
	Allowance     Money           `json:"allowance"`
	HasAllowance  bool            `json:"hasAllowance"`
	WeekID        string          `json:"weekId"`
	WeekNumber    int             `json:"weekNumber"`
	Year          int             `json:"year"`
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate"`
	Expenses      []Expense       `json:"expenses"`
	Totals        Totals          `json:"totals"`
	TotalSpent    Money           `json:"totalSpent"`
	Remaining     Money           `json:"remaining"`
	BudgetUsedPct float64         `json:"budgetUsedPct"`
	Allocations   Allocation      `json:"allocations"`
	Usage         []CategoryUsage `json:"usage"`
	Monthly       Projection      `json:"monthly"`
	Archived      bool            `json:"archived"`
	History       []WeekSummary   `json:"history"`
}

// HistoryStats aggregates the archived weeks.
type HistoryStats struct {
	WeeksArchived     int    `json:"weeksArchived"`
	WeeksOnBudget     int    `json:"weeksOnBudget"`
	BestSavings       Money  `json:"bestSavings"`
	BestSavingsWeekID string `json:"bestSavingsWeekId,omitempty"`
	AverageSpent      Money  `json:"averageSpent"`
	TotalSaved        Money  `json:"totalSaved"`
}

// percentOf returns pct% of m rounded half away from zero.
func percentOf(m Money, pct int64) Money {
	q := m.Cents * pct
	if q >= 0 {
		return Money{Cents: (q + 50) / 100}
	}
	return Money{Cents: -((-q + 50) / 100)}
}

// AllocationFor splits an allowance 50/30/20. Savings absorbs the rounding
// remainder so the three parts always sum to the allowance exactly.
func AllocationFor(allowance Money) Allocation {
	needs := percentOf(allowance, NeedsShare)
	wants := percentOf(allowance, WantsShare)
	return Allocation{
		Needs:   needs,
		Wants:   wants,
		Savings: allowance.Sub(needs).Sub(wants),
	}
}

func (a Allocation) Total() Money {
	return a.Needs.Add(a.Wants).Add(a.Savings)
}

func (a Allocation) For(c Category) Money {
	switch c {
	case CategoryNeed:
		return a.Needs
	case CategoryWant:
		return a.Wants
	case CategorySavings:
		return a.Savings
	}
	return Money{}
}

func (t Totals) Total() Money {
	return t.Needs.Add(t.Wants).Add(t.Savings)
}

func (t Totals) For(c Category) Money {
	switch c {
	case CategoryNeed:
		return t.Needs
	case CategoryWant:
		return t.Wants
	case CategorySavings:
		return t.Savings
	}
	return Money{}
}

// SumByCategory totals the expenses that belong to week.
func SumByCategory(expenses []Expense, week string) Totals {
	var t Totals
	for _, e := range expenses {
		if e.WeekID != week {
			continue
		}
		switch e.Category {
		case CategoryNeed:
			t.Needs = t.Needs.Add(e.Amount)
		case CategoryWant:
			t.Wants = t.Wants.Add(e.Amount)
		case CategorySavings:
			t.Savings = t.Savings.Add(e.Amount)
		}
	}
	return t
}

// ExpensesForWeek keeps the order of expenses (newest first).
func ExpensesForWeek(expenses []Expense, week string) []Expense {
	out := make([]Expense, 0)
	for _, e := range expenses {
		if e.WeekID == week {
			out = append(out, e)
		}
	}
	return out
}

// Ratio returns part/whole*100, or 0 when whole is not positive.
func Ratio(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) / float64(whole.Cents) * 100
}

// BudgetUsedPct is the share of the allowance already spent.
func BudgetUsedPct(total, allowance Money) float64 {
	return Ratio(total, allowance)
}

// CategoryUsedPct is the share of a category's allocation already spent.
func CategoryUsedPct(spent, allocated Money) float64 {
	return Ratio(spent, allocated)
}

// Monthly projects a weekly amount onto a month.
func Monthly(m Money) Money {
	return m.Times(WeeksPerMonth)
}

// ProjectMonth applies Monthly to the allowance, totals and allocations.
func ProjectMonth(allowance Money, t Totals, a Allocation) Projection {
	return Projection{
		Allowance: Monthly(allowance),
		Needs:     Monthly(t.Needs),
		Wants:     Monthly(t.Wants),
		Savings:   Monthly(t.Savings),
		Allocations: Allocation{
			Needs:   Monthly(a.Needs),
			Wants:   Monthly(a.Wants),
			Savings: Monthly(a.Savings),
		},
	}
}

// SummarizeWeek builds the archive record for a week.
func SummarizeWeek(k WeekKey, allowance Money, t Totals) WeekSummary {
	start, end := WeekDateStrings(k)
	total := t.Total()
	return WeekSummary{
		ID:         k.String(),
		WeekNumber: k.Week,
		Year:       k.Year,
		StartDate:  start,
		EndDate:    end,
		Allowance:  allowance,
		Needs:      t.Needs,
		Wants:      t.Wants,
		Savings:    t.Savings,
		TotalSpent: total,
		Remaining:  allowance.Sub(total),
	}
}

// BuildSnapshot derives every figure shown for the active week.
func BuildSnapshot(allowance Money, k WeekKey, expenses []Expense, history []WeekSummary) Snapshot {
	id := k.String()
	totals := SumByCategory(expenses, id)
	total := totals.Total()
	alloc := AllocationFor(allowance)
	start, end := WeekDateStrings(k)

	usage := make([]CategoryUsage, 0, 3)
	for _, c := range Categories() {
		spent := totals.For(c)
		allocated := alloc.For(c)
		usage = append(usage, CategoryUsage{
			Category:  c,
			Label:     c.Label(),
			Spent:     spent,
			Allocated: allocated,
			UsedPct:   CategoryUsedPct(spent, allocated),
		})
	}

	archived := false
	hist := make([]WeekSummary, len(history))
	copy(hist, history)
	for _, w := range history {
		if w.ID == id {
			archived = true
			break
		}
	}

	return Snapshot{
		Allowance:     allowance,
		HasAllowance:  allowance.Cents > 0,
		WeekID:        id,
		WeekNumber:    k.Week,
		Year:          k.Year,
		StartDate:     start,
		EndDate:       end,
		Expenses:      ExpensesForWeek(expenses, id),
		Totals:        totals,
		TotalSpent:    total,
		Remaining:     allowance.Sub(total),
		BudgetUsedPct: BudgetUsedPct(total, allowance),
		Allocations:   alloc,
		Usage:         usage,
		Monthly:       ProjectMonth(allowance, totals, alloc),
		Archived:      archived,
		History:       hist,
	}
}

// ComputeHistoryStats summarizes the archive. An empty history yields zeros.
func ComputeHistoryStats(history []WeekSummary) HistoryStats {
	stats := HistoryStats{WeeksArchived: len(history)}
	if len(history) == 0 {
		return stats
	}
	var spent int64
	for i, w := range history {
		if w.OnBudget() {
			stats.WeeksOnBudget++
		}
		if i == 0 || w.Savings.Cents > stats.BestSavings.Cents {
			stats.BestSavings = w.Savings
			stats.BestSavingsWeekID = w.ID
		}
		spent += w.TotalSpent.Cents
		stats.TotalSaved = stats.TotalSaved.Add(w.Savings)
	}
	n := int64(len(history))
	stats.AverageSpent = Money{Cents: (spent + n/2) / n}
	return stats
}
