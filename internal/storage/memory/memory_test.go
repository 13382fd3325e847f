package memory

import (
	"context"
	"errors"
	"testing"

	"freedom/internal/core"
)

func TestMemoryStoreAccountLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.UpsertUser(ctx, "alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if again, _ := s.UpsertUser(ctx, "alice"); again.ID != u.ID {
		t.Fatalf("expected stable user id")
	}

	acc, err := s.EnsureAccount(ctx, u.ID, core.AccountInput{Name: "Initial Account", DepositsPerYear: 24})
	if err != nil || acc.Name != "Initial Account" {
		t.Fatalf("unexpected account: %+v %v", acc, err)
	}

	if _, err := s.CreateFund(ctx, u.ID, acc.ID, core.FundInput{Icon: "🚘", Name: "Car Repairs"}); err != nil {
		t.Fatalf("create fund: %v", err)
	}
	acc, _ = s.AccountByUser(ctx, u.ID)
	if len(acc.Funds) != 1 || acc.Funds[0].Label() != "🚘 Car Repairs" {
		t.Fatalf("unexpected funds: %+v", acc.Funds)
	}

	// mutating the returned copy must not leak into the store
	acc.Funds[0].Name = "changed"
	again, _ := s.AccountByUser(ctx, u.ID)
	if again.Funds[0].Name != "Car Repairs" {
		t.Fatalf("store shares its fund slice with callers")
	}
}

func TestMemoryStoreSessions(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := s.UpsertUser(ctx, "bob")

	_ = s.CreateSession(ctx, "tok", u.ID)
	if got, err := s.SessionUser(ctx, "tok"); err != nil || got.ID != u.ID {
		t.Fatalf("expected bob, got %+v %v", got, err)
	}
	_ = s.DeleteSession(ctx, "tok")
	if _, err := s.SessionUser(ctx, "tok"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner, _ := s.UpsertUser(ctx, "owner")
	other, _ := s.UpsertUser(ctx, "other")
	acc, _ := s.EnsureAccount(ctx, owner.ID, core.AccountInput{Name: "Mine", DepositsPerYear: 12})

	if _, err := s.UpdateAccount(ctx, other.ID, core.AccountInput{ID: acc.ID, Name: "x", DepositsPerYear: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateFund(ctx, other.ID, acc.ID, core.FundInput{Icon: "x", Name: "y"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
