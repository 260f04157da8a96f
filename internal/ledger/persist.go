package ledger

import (
	"context"
	"encoding/json"

	"weekbudget/internal/core"
)

// Storage keys, one per state slice.
const (
	KeyAllowance   = "weeklyAllowance"
	KeyExpenses    = "expenses"
	KeyHistory     = "weekHistory"
	KeyCurrentWeek = "currentWeek"
	KeyCurrentYear = "currentYear"
)

// Load rehydrates every slice from the store. A slice that is missing,
// unreadable or corrupt keeps its default and is logged; Load never fails.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fallback := core.WeekOf(l.now())

	var allowance core.Money
	if !l.loadSlice(ctx, KeyAllowance, &allowance) {
		allowance = core.Money{}
	}
	var expenses []core.Expense
	if !l.loadSlice(ctx, KeyExpenses, &expenses) || expenses == nil {
		expenses = []core.Expense{}
	}
	var history []core.WeekSummary
	if !l.loadSlice(ctx, KeyHistory, &history) || history == nil {
		history = []core.WeekSummary{}
	}
	week := fallback.Week
	if !l.loadSlice(ctx, KeyCurrentWeek, &week) || week < 1 || week > core.WeeksPerYear {
		week = fallback.Week
	}
	year := fallback.Year
	if !l.loadSlice(ctx, KeyCurrentYear, &year) || year < 1 {
		year = fallback.Year
	}

	l.allowance = allowance
	l.expenses = expenses
	l.history = history
	l.week = core.WeekKey{Year: year, Week: week}

	l.logger.InfoContext(ctx, "Ledger loaded",
		"week_id", l.week.String(), "expenses", len(l.expenses), "weeks_archived", len(l.history))
}

func (l *Ledger) loadSlice(ctx context.Context, key string, dst any) bool {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to read state slice", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		l.logger.WarnContext(ctx, "Discarding corrupt state slice", "key", key, "error", err)
		return false
	}
	return true
}

// save writes every slice. Writes are independent and best-effort: a failure
// is logged and the in-memory state stands. Callers hold l.mu.
func (l *Ledger) save(ctx context.Context) {
	l.saveSlice(ctx, KeyAllowance, l.allowance)
	l.saveSlice(ctx, KeyExpenses, l.expenses)
	l.saveSlice(ctx, KeyHistory, l.history)
	l.saveSlice(ctx, KeyCurrentWeek, l.week.Week)
	l.saveSlice(ctx, KeyCurrentYear, l.week.Year)
}

func (l *Ledger) saveSlice(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to encode state slice", "key", key, "error", err)
		return
	}
	if err := l.store.Set(ctx, key, raw); err != nil {
		l.logger.WarnContext(ctx, "Failed to persist state slice", "key", key, "error", err)
	}
}
