package cli

import (
	"bytes"
	"context"
	"strings"
	"syscall"
	"testing"
	"time"

	"weekbudget/internal/config"
	"weekbudget/internal/core"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, false},
		{"info", false, false},
		{"loud", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupLogger(tt.level, "cli-test", &buf)
			logger.Debug("debug line")

			out := buf.String()
			if strings.Contains(out, "debug line") != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v: %q", !tt.wantDebug, tt.wantDebug, out)
			}
			if strings.Contains(out, "Falling back to info logging") != tt.wantWarn {
				t.Errorf("fallback warning = %v, want %v", !tt.wantWarn, tt.wantWarn)
			}
			if logger.Component() != "cli-test" {
				t.Errorf("component = %q", logger.Component())
			}
		})
	}
}

func TestOpenLedgerSQLiteRoundTrip(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: t.TempDir() + "/weekbudget.db",
		LogLevel:     "info",
	}
	logger := SetupLogger("error", "cli-test", &bytes.Buffer{})
	ctx := context.Background()

	l, res, err := OpenLedger(ctx, logger, cfg)
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	if err := l.SetAllowance(ctx, core.Money{Cents: 250000}); err != nil {
		t.Fatalf("SetAllowance: %v", err)
	}
	if res.Ready == nil || res.Ready(ctx) != nil {
		t.Fatalf("sqlite backend not ready")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	reopened, res2, err := OpenLedger(ctx, logger, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res2.Cleanup()
	if got := reopened.Allowance().Cents; got != 250000 {
		t.Fatalf("allowance after reopen = %d", got)
	}
}

func TestOpenLedgerRejectsUnknownBackend(t *testing.T) {
	logger := SetupLogger("error", "cli-test", &bytes.Buffer{})
	if _, _, err := OpenLedger(context.Background(), logger, &config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestGracefulShutdownRunsOnSignal(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("info", "cli-test", &buf)

	called := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func(context.Context) error {
		close(called)
		return nil
	})

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("shutdown did not finish")
	}
	select {
	case <-called:
	default:
		t.Fatalf("shutdown func not called")
	}
	if ctx.Err() == nil {
		t.Fatalf("context not cancelled")
	}
}
