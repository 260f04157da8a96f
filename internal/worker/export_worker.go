package worker

import (
	"context"
	"fmt"
	"log/slog"

	"weekbudget/internal/amqp"
	"weekbudget/internal/sheets"
)

// ExportWorker copies archived weeks from the message queue to a sheet.
type ExportWorker struct {
	exporter sheets.HistoryExporter
}

func NewExportWorker(exporter sheets.HistoryExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleWeekArchived exports the week carried by msg. Invalid messages are
// logged and acknowledged since retrying cannot fix them; export failures
// are returned so the message is requeued.
func (w *ExportWorker) HandleWeekArchived(ctx context.Context, msg *amqp.WeekArchivedMessage) error {
	if err := msg.Validate(); err != nil {
		slog.WarnContext(ctx, "Dropping invalid week archived message", "week_id", msg.WeekID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Exporting archived week", "week_id", msg.WeekID)

	ref, err := w.exporter.AppendWeek(ctx, msg.Summary)
	if err != nil {
		return fmt.Errorf("export week %s: %w", msg.WeekID, err)
	}

	slog.InfoContext(ctx, "Exported archived week", "week_id", msg.WeekID, "sheets_ref", ref)
	return nil
}
