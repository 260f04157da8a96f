// Package ledger owns the budget state: the weekly allowance, the active week,
// every expense and the archive of closed weeks. All mutations go through
// Ledger methods, and each successful one is followed by a save of the full
// state to the key-value store.
package ledger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"weekbudget/internal/core"
	"weekbudget/internal/storage"
)

// Publisher is notified after a week has been archived.
type Publisher interface {
	PublishWeekArchived(ctx context.Context, summary core.WeekSummary) error
}

// NewExpense carries the caller-supplied fields of an expense.
type NewExpense struct {
	Amount      core.Money
	Description string
	Category    core.Category
	Recurring   bool
}

// Ledger is the budget state machine. It is safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	store     storage.KeyValueStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	allowance core.Money
	week      core.WeekKey
	expenses  []core.Expense
	history   []core.WeekSummary
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for the starting week and expense dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithPublisher attaches a publisher notified after each archived week.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithIDGenerator sets the expense id generator. The default is uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New returns an empty ledger positioned on the clock's current week. Call
// Load to rehydrate persisted state.
func New(store storage.KeyValueStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.week = core.WeekOf(l.now())
	return l
}

// SetAllowance replaces the weekly allowance. Expenses and history are kept.
func (l *Ledger) SetAllowance(ctx context.Context, amount core.Money) error {
	if amount.Cents < 0 {
		return l.refuse(ctx, "set_allowance", ErrNegativeAllowance)
	}
	if amount.Cents > core.MaxCents {
		return l.refuse(ctx, "set_allowance", ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowance = amount
	l.save(ctx)
	l.logger.InfoContext(ctx, "Allowance updated", "amount", amount.String())
	return nil
}

// AddExpense records an expense against the active week. New expenses go to
// the front of the list.
func (l *Ledger) AddExpense(ctx context.Context, in NewExpense) (core.Expense, error) {
	e := core.Expense{
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Category:    core.Category(strings.ToLower(strings.TrimSpace(string(in.Category)))),
		Recurring:   in.Recurring,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, l.refuse(ctx, "add_expense", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = l.newID()
	e.Date = l.now().Format(core.DateLayout)
	e.WeekID = l.week.String()

	l.expenses = append([]core.Expense{e}, l.expenses...)
	l.save(ctx)
	l.logger.InfoContext(ctx, "Expense added",
		"id", e.ID, "amount", e.Amount.String(), "category", e.Category, "week_id", e.WeekID)
	return e, nil
}

// DeleteExpense removes the expense with the given id. It reports whether an
// expense was removed; an unknown id leaves the ledger untouched.
func (l *Ledger) DeleteExpense(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, e := range l.expenses {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	kept := make([]core.Expense, 0, len(l.expenses)-1)
	kept = append(kept, l.expenses[:idx]...)
	kept = append(kept, l.expenses[idx+1:]...)
	l.expenses = kept
	l.save(ctx)
	l.logger.InfoContext(ctx, "Expense deleted", "id", id)
	return true
}

// AdvanceWeek archives the active week and moves to the following one. The
// closed week's expenses stay in the expense list. A week already in history
// is refused with ErrWeekArchived.
func (l *Ledger) AdvanceWeek(ctx context.Context) (core.WeekSummary, error) {
	l.mu.Lock()
	if l.allowance.Cents == 0 {
		l.mu.Unlock()
		return core.WeekSummary{}, l.refuse(ctx, "advance_week", ErrAllowanceNotSet)
	}
	if l.archivedLocked(l.week.String()) {
		l.mu.Unlock()
		return core.WeekSummary{}, l.refuse(ctx, "advance_week", ErrWeekArchived)
	}

	totals := core.SumByCategory(l.expenses, l.week.String())
	summary := core.SummarizeWeek(l.week, l.allowance, totals)
	l.history = append([]core.WeekSummary{summary}, l.history...)
	l.week = core.NextWeek(l.week)
	l.save(ctx)
	next := l.week
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Week archived",
		"week_id", summary.ID, "total_spent", summary.TotalSpent.String(),
		"remaining", summary.Remaining.String(), "next_week_id", next.String())

	if l.publisher != nil {
		if err := l.publisher.PublishWeekArchived(ctx, summary); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish week archived event",
				"week_id", summary.ID, "error", err)
		}
	}
	return summary, nil
}

// JumpToWeek makes weekID ("{year}-{week}") the active week. The week need not
// appear in history.
func (l *Ledger) JumpToWeek(ctx context.Context, weekID string) error {
	k, err := core.ParseWeekKey(weekID)
	if err != nil {
		return l.refuse(ctx, "jump_to_week", ErrInvalidWeekID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setWeekLocked(ctx, k)
	return nil
}

// PreviousWeek steps the view one week back without archiving anything.
func (l *Ledger) PreviousWeek(ctx context.Context) core.WeekKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setWeekLocked(ctx, core.PrevWeek(l.week))
}

// NextWeekView steps the view one week forward without archiving anything.
func (l *Ledger) NextWeekView(ctx context.Context) core.WeekKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setWeekLocked(ctx, core.NextWeek(l.week))
}

// setWeekLocked must be called with l.mu held.
func (l *Ledger) setWeekLocked(ctx context.Context, k core.WeekKey) core.WeekKey {
	l.week = k
	l.save(ctx)
	l.logger.DebugContext(ctx, "Active week changed", "week_id", k.String())
	return k
}

func (l *Ledger) archivedLocked(weekID string) bool {
	for _, s := range l.history {
		if s.ID == weekID {
			return true
		}
	}
	return false
}

// Snapshot derives the figures of the active week.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.BuildSnapshot(l.allowance, l.week, l.expenses, l.history)
}

// History returns the archived weeks, newest first.
func (l *Ledger) History() []core.WeekSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.WeekSummary, len(l.history))
	copy(out, l.history)
	return out
}

// Stats aggregates the archive.
func (l *Ledger) Stats() core.HistoryStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.ComputeHistoryStats(l.history)
}

// Expenses returns every expense across all weeks, newest first.
func (l *Ledger) Expenses() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Expense, len(l.expenses))
	copy(out, l.expenses)
	return out
}

// Allowance returns the weekly allowance.
func (l *Ledger) Allowance() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowance
}

// Week returns the active week.
func (l *Ledger) Week() core.WeekKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.week
}

func (l *Ledger) refuse(ctx context.Context, op string, reason error) error {
	l.logger.InfoContext(ctx, "Operation refused", "operation", op, "reason", reason.Error())
	return reject(reason)
}
