package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
	"weekbudget/internal/storage/memory"
)

var fixedNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func pesos(v int64) core.Money { return core.Money{Cents: v * 100} }

type fakePublisher struct {
	mu        sync.Mutex
	published []core.WeekSummary
	err       error
}

func (p *fakePublisher) PublishWeekArchived(_ context.Context, s core.WeekSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, s)
	return p.err
}

func newLedger(t *testing.T, store *memory.Store, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	n := 0
	base := []ledger.Option{
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		ledger.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("exp-%d", n)
		}),
	}
	l := ledger.New(store, append(base, opts...)...)
	l.Load(context.Background())
	return l
}

func mustAdd(t *testing.T, l *ledger.Ledger, amount core.Money, desc string, c core.Category) core.Expense {
	t.Helper()
	e, err := l.AddExpense(context.Background(), ledger.NewExpense{Amount: amount, Description: desc, Category: c})
	if err != nil {
		t.Fatalf("add expense %q: %v", desc, err)
	}
	return e
}

func TestNewStartsOnClockWeek(t *testing.T) {
	l := newLedger(t, memory.New())
	if got := l.Week(); got != (core.WeekKey{Year: 2026, Week: 42}) {
		t.Fatalf("week = %v", got)
	}
	s := l.Snapshot()
	if s.HasAllowance || len(s.Expenses) != 0 || len(s.History) != 0 {
		t.Fatalf("unexpected fresh snapshot: %+v", s)
	}
}

func TestSingleNeedExpense(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())

	if err := l.SetAllowance(ctx, pesos(1000)); err != nil {
		t.Fatalf("set allowance: %v", err)
	}
	e := mustAdd(t, l, pesos(200), "Groceries", core.CategoryNeed)
	if e.ID != "exp-1" || e.Date != "2026-10-14" || e.WeekID != "2026-42" {
		t.Fatalf("unexpected expense: %+v", e)
	}

	s := l.Snapshot()
	if s.Totals.Needs != pesos(200) || !s.Totals.Wants.IsZero() || !s.Totals.Savings.IsZero() {
		t.Fatalf("totals = %+v", s.Totals)
	}
	if s.TotalSpent != pesos(200) || s.Remaining != pesos(800) {
		t.Fatalf("total=%v remaining=%v", s.TotalSpent, s.Remaining)
	}
	want := core.Allocation{Needs: pesos(500), Wants: pesos(300), Savings: pesos(200)}
	if s.Allocations != want {
		t.Fatalf("allocations = %+v", s.Allocations)
	}
	if s.Totals.Total().Add(s.Remaining) != s.Allowance {
		t.Fatalf("spent + remaining != allowance")
	}
}

func TestAddExpenseRefusals(t *testing.T) {
	tests := []struct {
		name   string
		in     ledger.NewExpense
		reason error
	}{
		{"zero amount", ledger.NewExpense{Description: "x", Category: core.CategoryNeed}, ledger.ErrInvalidAmount},
		{"negative amount", ledger.NewExpense{Amount: pesos(-1), Description: "x", Category: core.CategoryNeed}, ledger.ErrInvalidAmount},
		{"amount above bound", ledger.NewExpense{Amount: core.Money{Cents: core.MaxCents + 1}, Description: "x", Category: core.CategoryNeed}, ledger.ErrInvalidAmount},
		{"blank description", ledger.NewExpense{Amount: pesos(1), Description: "   ", Category: core.CategoryWant}, ledger.ErrEmptyDescription},
		{"unknown category", ledger.NewExpense{Amount: pesos(1), Description: "x", Category: "luxury"}, ledger.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			l := newLedger(t, store)
			_, err := l.AddExpense(context.Background(), tt.in)
			if !errors.Is(err, ledger.ErrRejected) || !errors.Is(err, tt.reason) {
				t.Fatalf("err = %v, want rejection for %v", err, tt.reason)
			}
			if ledger.Reason(err) != tt.reason.Error() {
				t.Fatalf("reason = %q", ledger.Reason(err))
			}
			if len(l.Expenses()) != 0 {
				t.Fatalf("refused expense was recorded")
			}
			if len(store.Keys()) != 0 {
				t.Fatalf("refusal triggered a save: %v", store.Keys())
			}
		})
	}
}

func TestSetAllowanceRejectsNegative(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	if err := l.SetAllowance(ctx, pesos(300)); err != nil {
		t.Fatalf("set allowance: %v", err)
	}
	err := l.SetAllowance(ctx, pesos(-5))
	if !errors.Is(err, ledger.ErrNegativeAllowance) || !errors.Is(err, ledger.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	if l.Allowance() != pesos(300) {
		t.Fatalf("allowance changed to %v", l.Allowance())
	}
}

func TestSetAllowanceBound(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())

	if err := l.SetAllowance(ctx, core.Money{Cents: core.MaxCents}); err != nil {
		t.Fatalf("allowance at bound: %v", err)
	}
	s := l.Snapshot()
	if s.Allocations.Total() != s.Allowance || s.Allocations.Needs.Cents != core.MaxCents/2 {
		t.Fatalf("allocations at bound = %+v", s.Allocations)
	}
	if s.Monthly.Allowance.Cents != core.MaxCents*4 {
		t.Fatalf("monthly at bound = %v", s.Monthly.Allowance)
	}

	err := l.SetAllowance(ctx, core.Money{Cents: core.MaxCents + 1})
	if !errors.Is(err, ledger.ErrInvalidAmount) || !errors.Is(err, ledger.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	if l.Allowance().Cents != core.MaxCents {
		t.Fatalf("allowance changed to %v", l.Allowance())
	}
}

func TestSetAllowanceKeepsExpenses(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	_ = l.SetAllowance(ctx, pesos(100))
	mustAdd(t, l, pesos(40), "Bus", core.CategoryNeed)
	if err := l.SetAllowance(ctx, pesos(50)); err != nil {
		t.Fatalf("set allowance: %v", err)
	}
	s := l.Snapshot()
	if len(s.Expenses) != 1 || s.Remaining != pesos(10) {
		t.Fatalf("snapshot after allowance change: %+v", s)
	}
}

func TestAdvanceWeekRefusedWithoutAllowance(t *testing.T) {
	pub := &fakePublisher{}
	l := newLedger(t, memory.New(), ledger.WithPublisher(pub))
	before := l.Week()

	_, err := l.AdvanceWeek(context.Background())
	if !errors.Is(err, ledger.ErrAllowanceNotSet) || !errors.Is(err, ledger.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	if len(l.History()) != 0 {
		t.Fatalf("history grew on refusal")
	}
	if l.Week() != before {
		t.Fatalf("week moved from %v to %v", before, l.Week())
	}
	if len(pub.published) != 0 {
		t.Fatalf("refusal published an event")
	}
}

func TestAdvanceWeekArchivesAndRetainsExpenses(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	l := newLedger(t, memory.New(), ledger.WithPublisher(pub))

	_ = l.SetAllowance(ctx, pesos(500))
	mustAdd(t, l, pesos(100), "Rent share", core.CategoryNeed)
	mustAdd(t, l, pesos(100), "Movies", core.CategoryWant)
	mustAdd(t, l, pesos(100), "Piggy bank", core.CategorySavings)

	summary, err := l.AdvanceWeek(ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := core.WeekSummary{
		ID: "2026-42", WeekNumber: 42, Year: 2026,
		StartDate: "2026-10-11", EndDate: "2026-10-17",
		Allowance: pesos(500), Needs: pesos(100), Wants: pesos(100), Savings: pesos(100),
		TotalSpent: pesos(300), Remaining: pesos(200),
	}
	if summary != want {
		t.Fatalf("summary = %+v\nwant %+v", summary, want)
	}

	history := l.History()
	if len(history) != 1 || history[0] != want {
		t.Fatalf("history = %+v", history)
	}
	if l.Week() != (core.WeekKey{Year: 2026, Week: 43}) {
		t.Fatalf("week = %v", l.Week())
	}
	if n := len(l.Expenses()); n != 3 {
		t.Fatalf("expected archived expenses to be retained, have %d", n)
	}
	s := l.Snapshot()
	if len(s.Expenses) != 0 || !s.TotalSpent.IsZero() {
		t.Fatalf("new week should start empty: %+v", s)
	}
	if len(pub.published) != 1 || pub.published[0].ID != "2026-42" {
		t.Fatalf("published = %+v", pub.published)
	}
}

func TestAdvanceWeekRollover(t *testing.T) {
	tests := []struct {
		from, to core.WeekKey
	}{
		{core.WeekKey{Year: 2026, Week: 52}, core.WeekKey{Year: 2027, Week: 1}},
		{core.WeekKey{Year: 2026, Week: 30}, core.WeekKey{Year: 2026, Week: 31}},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t, memory.New())
			_ = l.SetAllowance(ctx, pesos(100))
			if err := l.JumpToWeek(ctx, tt.from.String()); err != nil {
				t.Fatalf("jump: %v", err)
			}
			if _, err := l.AdvanceWeek(ctx); err != nil {
				t.Fatalf("advance: %v", err)
			}
			if l.Week() != tt.to {
				t.Fatalf("week = %v, want %v", l.Week(), tt.to)
			}
		})
	}
}

func TestAdvanceWeekPublishFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	l := newLedger(t, memory.New(), ledger.WithPublisher(pub))
	_ = l.SetAllowance(ctx, pesos(100))

	if _, err := l.AdvanceWeek(ctx); err != nil {
		t.Fatalf("publish failure surfaced: %v", err)
	}
	if len(l.History()) != 1 {
		t.Fatalf("archive was rolled back")
	}
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	a := mustAdd(t, l, pesos(10), "Coffee", core.CategoryWant)
	mustAdd(t, l, pesos(20), "Lunch", core.CategoryNeed)

	before := l.Expenses()
	if l.DeleteExpense(ctx, "missing") {
		t.Fatalf("deleting unknown id reported success")
	}
	if !reflect.DeepEqual(before, l.Expenses()) {
		t.Fatalf("unknown delete changed expenses")
	}

	if !l.DeleteExpense(ctx, a.ID) {
		t.Fatalf("delete %s failed", a.ID)
	}
	rest := l.Expenses()
	if len(rest) != 1 || rest[0].Description != "Lunch" {
		t.Fatalf("remaining = %+v", rest)
	}
	if l.DeleteExpense(ctx, a.ID) {
		t.Fatalf("second delete reported success")
	}
}

func TestExpensesNewestFirst(t *testing.T) {
	l := newLedger(t, memory.New())
	mustAdd(t, l, pesos(1), "first", core.CategoryNeed)
	mustAdd(t, l, pesos(2), "second", core.CategoryNeed)
	got := l.Expenses()
	if got[0].Description != "second" || got[1].Description != "first" {
		t.Fatalf("order = %+v", got)
	}
}

func TestJumpToWeek(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())

	if err := l.JumpToWeek(ctx, "2024-7"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	s := l.Snapshot()
	if s.WeekID != "2024-7" || len(s.Expenses) != 0 || s.Archived {
		t.Fatalf("snapshot after jump = %+v", s)
	}

	for _, bad := range []string{"", "2024", "2024-x", "abc-3", "2024-0", "2024-53", "2024-7-1"} {
		err := l.JumpToWeek(ctx, bad)
		if !errors.Is(err, ledger.ErrInvalidWeekID) || !errors.Is(err, ledger.ErrRejected) {
			t.Fatalf("jump %q: err = %v", bad, err)
		}
	}
	if l.Week() != (core.WeekKey{Year: 2024, Week: 7}) {
		t.Fatalf("refused jump moved the week to %v", l.Week())
	}
}

func TestAdvanceWeekRefusesArchivedWeek(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	store := memory.New()
	l := newLedger(t, store, ledger.WithPublisher(pub))

	_ = l.SetAllowance(ctx, pesos(500))
	mustAdd(t, l, pesos(100), "Rice", core.CategoryNeed)
	first, err := l.AdvanceWeek(ctx)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := l.JumpToWeek(ctx, first.ID); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !l.Snapshot().Archived {
		t.Fatalf("week %s should show as archived", first.ID)
	}

	_, err = l.AdvanceWeek(ctx)
	if !errors.Is(err, ledger.ErrWeekArchived) || !errors.Is(err, ledger.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	if h := l.History(); len(h) != 1 || h[0].ID != first.ID {
		t.Fatalf("history = %+v", h)
	}
	if l.Week().String() != first.ID {
		t.Fatalf("week moved to %v", l.Week())
	}
	if len(pub.published) != 1 {
		t.Fatalf("refusal published an event: %+v", pub.published)
	}

	// The following week was never archived, so advancing from it works.
	l.NextWeekView(ctx)
	if _, err := l.AdvanceWeek(ctx); err != nil {
		t.Fatalf("advance from unarchived week: %v", err)
	}
	if n := len(l.History()); n != 2 {
		t.Fatalf("history length = %d", n)
	}
}

func TestWeekNavigationWraps(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	_ = l.JumpToWeek(ctx, "2026-1")

	if got := l.PreviousWeek(ctx); got != (core.WeekKey{Year: 2025, Week: 52}) {
		t.Fatalf("previous = %v", got)
	}
	if got := l.NextWeekView(ctx); got != (core.WeekKey{Year: 2026, Week: 1}) {
		t.Fatalf("next = %v", got)
	}
	if len(l.History()) != 0 {
		t.Fatalf("navigation archived a week")
	}
}

func TestConcurrentNavigation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	_ = l.JumpToWeek(ctx, "2026-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.NextWeekView(ctx)
		}()
	}
	wg.Wait()
	if got := l.Week(); got != (core.WeekKey{Year: 2026, Week: 11}) {
		t.Fatalf("week after 10 concurrent steps = %v", got)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newLedger(t, store)

	_ = l.SetAllowance(ctx, core.Money{Cents: 123456})
	mustAdd(t, l, core.Money{Cents: 1234}, "Taxi", core.CategoryNeed)
	if _, err := l.AdvanceWeek(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	e, err := l.AddExpense(ctx, ledger.NewExpense{
		Amount: core.Money{Cents: 999}, Description: "Streaming", Category: core.CategoryWant, Recurring: true,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, key := range []string{ledger.KeyAllowance, ledger.KeyExpenses, ledger.KeyHistory, ledger.KeyCurrentWeek, ledger.KeyCurrentYear} {
		if _, ok, _ := store.Get(ctx, key); !ok {
			t.Fatalf("key %q was not persisted", key)
		}
	}

	reloaded := newLedger(t, store)
	if reloaded.Allowance() != l.Allowance() {
		t.Fatalf("allowance %v != %v", reloaded.Allowance(), l.Allowance())
	}
	if reloaded.Week() != l.Week() {
		t.Fatalf("week %v != %v", reloaded.Week(), l.Week())
	}
	if !reflect.DeepEqual(reloaded.Expenses(), l.Expenses()) {
		t.Fatalf("expenses differ:\n%+v\n%+v", reloaded.Expenses(), l.Expenses())
	}
	if !reflect.DeepEqual(reloaded.History(), l.History()) {
		t.Fatalf("history differs:\n%+v\n%+v", reloaded.History(), l.History())
	}
	if !reloaded.Expenses()[0].Recurring || reloaded.Expenses()[0].ID != e.ID {
		t.Fatalf("newest expense not restored: %+v", reloaded.Expenses()[0])
	}
}

func TestSaveFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := newLedger(t, store)
	store.FailWrites(true)

	if err := l.SetAllowance(ctx, pesos(250)); err != nil {
		t.Fatalf("persistence failure surfaced: %v", err)
	}
	mustAdd(t, l, pesos(5), "Snack", core.CategoryWant)
	if l.Allowance() != pesos(250) || len(l.Expenses()) != 1 {
		t.Fatalf("in-memory state lost after failed save")
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("failed writes stored keys: %v", store.Keys())
	}
}

func TestLoadFallsBackPerSlice(t *testing.T) {
	store := memory.NewSeeded(map[string]string{
		ledger.KeyAllowance:   "250",
		ledger.KeyExpenses:    "{not json",
		ledger.KeyHistory:     `[{"id":"2026-3","weekNumber":3,"year":2026,"allowance":100,"totalSpent":20,"remaining":80}]`,
		ledger.KeyCurrentWeek: "99",
		ledger.KeyCurrentYear: "2027",
	})
	l := newLedger(t, store)

	if l.Allowance() != pesos(250) {
		t.Fatalf("allowance = %v", l.Allowance())
	}
	if got := l.Expenses(); len(got) != 0 {
		t.Fatalf("corrupt expenses should fall back to empty, got %+v", got)
	}
	h := l.History()
	if len(h) != 1 || h[0].Remaining != pesos(80) {
		t.Fatalf("history = %+v", h)
	}
	if l.Week() != (core.WeekKey{Year: 2027, Week: 42}) {
		t.Fatalf("out-of-range week should fall back to clock week, got %v", l.Week())
	}
}

func TestConcurrentAdds(t *testing.T) {
	l := ledger.New(memory.New(),
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.AddExpense(context.Background(), ledger.NewExpense{
				Amount: pesos(1), Description: "tick", Category: core.CategoryNeed,
			})
		}()
	}
	wg.Wait()
	if got := l.Snapshot().TotalSpent; got != pesos(20) {
		t.Fatalf("total = %v", got)
	}
}
