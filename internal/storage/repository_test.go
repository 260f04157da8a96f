package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "budget.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryGetSet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, ok, err := repo.Get(ctx, "weeklyAllowance"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "weeklyAllowance", []byte("1000")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "weeklyAllowance", []byte("1500.50")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := repo.Get(ctx, "weeklyAllowance")
	if err != nil || !ok || string(v) != "1500.50" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}

	if err := repo.Set(ctx, "currentWeek", []byte("12")); err != nil {
		t.Fatalf("set: %v", err)
	}
	keys, err := repo.Keys(ctx)
	if err != nil || len(keys) != 2 || keys[0] != "currentWeek" || keys[1] != "weeklyAllowance" {
		t.Fatalf("unexpected keys: %v err=%v", keys, err)
	}
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)
	if err := repo.Set(ctx, "expenses", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	repo.Close()

	// Migrations must be idempotent on an existing database
	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "expenses")
	if err != nil || !ok || string(v) != `[]` {
		t.Fatalf("value lost after reopen: %q ok=%v err=%v", v, ok, err)
	}
}
