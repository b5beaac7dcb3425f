package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/storefront-client/pkg/config"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewSQLiteStore(context.Background(), config.SessionConfig{
		Driver: "sqlite",
		Path:   filepath.Join(dir, "storefront.db"),
	}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(ctx, config.SessionConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.SetActiveOrderID(ctx, "ord-42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewSQLiteStore(ctx, config.SessionConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	id, err := second.ActiveOrderID(ctx)
	if err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if id != "ord-42" {
		t.Fatalf("expected persisted order id, got %q", id)
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if id, err := store.ActiveOrderID(ctx); err != nil || id != "" {
		t.Fatalf("fresh store should report no order id, got %q err %v", id, err)
	}

	if err := store.SetActiveOrderID(ctx, "ord-1"); err != nil {
		t.Fatalf("set order id: %v", err)
	}
	if id, _ := store.ActiveOrderID(ctx); id != "ord-1" {
		t.Fatalf("expected ord-1, got %q", id)
	}

	if err := store.SetActiveOrderID(ctx, "ord-2"); err != nil {
		t.Fatalf("overwrite order id: %v", err)
	}
	if id, _ := store.ActiveOrderID(ctx); id != "ord-2" {
		t.Fatalf("expected overwrite to win, got %q", id)
	}

	if err := store.ClearActiveOrderID(ctx); err != nil {
		t.Fatalf("clear order id: %v", err)
	}
	if id, _ := store.ActiveOrderID(ctx); id != "" {
		t.Fatalf("expected cleared order id, got %q", id)
	}

	// Clearing an absent key is not an error.
	if err := store.ClearActiveOrderID(ctx); err != nil {
		t.Fatalf("double clear: %v", err)
	}

	if err := store.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if tok, _ := store.Token(ctx); tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q", tok)
	}
	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if tok, _ := store.Token(ctx); tok != "" {
		t.Fatalf("expected cleared token, got %q", tok)
	}
}
