package memory

import (
	"context"
	"fmt"
	"sync"

	"weekbudget/internal/core"
	ports "weekbudget/internal/sheets"
)

// Exporter keeps exported weeks in process, one row per week id.
type Exporter struct {
	mu   sync.Mutex
	rows []core.WeekSummary
	byID map[string]int
}

var _ ports.HistoryExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{byID: make(map[string]int)}
}

// AppendWeek stores the week and returns a synthetic row reference. Exporting
// a known id replaces its row and returns the same reference.
func (e *Exporter) AppendWeek(_ context.Context, w core.WeekSummary) (string, error) {
	if _, err := core.ParseWeekKey(w.ID); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.byID[w.ID]; ok {
		e.rows[i] = w
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	e.rows = append(e.rows, w)
	e.byID[w.ID] = len(e.rows) - 1
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Weeks returns the exported rows in export order.
func (e *Exporter) Weeks() []core.WeekSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.WeekSummary(nil), e.rows...)
}
