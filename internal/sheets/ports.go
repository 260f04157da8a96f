package sheets

import (
	"context"

	"weekbudget/internal/core"
)

// HistoryExporter writes archived weeks to an external sheet. Exporting the
// same week twice must leave a single row for it.
type HistoryExporter interface {
	AppendWeek(ctx context.Context, w core.WeekSummary) (rowRef string, err error)
}
