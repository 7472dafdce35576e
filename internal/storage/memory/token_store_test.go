package memory

import (
	"context"
	"errors"
	"testing"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

func testAddr(b byte) domain.Address {
	var a domain.Address
	a[0] = b
	a[31] = b
	return a
}

func TestTokenStore_InsertAndGetOwner(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.InsertToken(ctx, 1, testAddr(1)); err != nil {
		t.Fatalf("InsertToken failed: %v", err)
	}

	owner, err := store.GetOwner(ctx, 1)
	if err != nil {
		t.Fatalf("GetOwner failed: %v", err)
	}
	if owner != testAddr(1) {
		t.Errorf("Owner mismatch: got %s, want %s", owner, testAddr(1))
	}

	count, _ := store.CountByOwner(ctx, testAddr(1))
	if count != 1 {
		t.Errorf("Count mismatch: got %d, want 1", count)
	}
}

func TestTokenStore_InsertDuplicate(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.InsertToken(ctx, 1, testAddr(1)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertToken(ctx, 1, testAddr(2))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	owner, _ := store.GetOwner(ctx, 1)
	if owner != testAddr(1) {
		t.Error("Duplicate insert must not change owner")
	}
}

func TestTokenStore_InsertZeroOwner(t *testing.T) {
	store := NewTokenStore()

	err := store.InsertToken(context.Background(), 1, domain.ZeroAddress)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTokenStore_SetOwnerClearsApproval(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	_ = store.InsertToken(ctx, 1, testAddr(1))
	if err := store.SetApproved(ctx, 1, testAddr(9)); err != nil {
		t.Fatalf("SetApproved failed: %v", err)
	}

	if err := store.SetOwner(ctx, 1, testAddr(2)); err != nil {
		t.Fatalf("SetOwner failed: %v", err)
	}

	approved, _ := store.GetApproved(ctx, 1)
	if !approved.IsZero() {
		t.Errorf("Approval should be cleared on transfer, got %s", approved)
	}

	from, _ := store.CountByOwner(ctx, testAddr(1))
	to, _ := store.CountByOwner(ctx, testAddr(2))
	if from != 0 || to != 1 {
		t.Errorf("Counts mismatch: from=%d to=%d", from, to)
	}
}

func TestTokenStore_NotFound(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if _, err := store.GetOwner(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetOwner: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetApproved(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetApproved: expected ErrNotFound, got %v", err)
	}
	if err := store.SetOwner(ctx, 99, testAddr(1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetOwner: expected ErrNotFound, got %v", err)
	}
	if err := store.SetApproved(ctx, 99, testAddr(1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetApproved: expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_Operators(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	ok, _ := store.IsOperator(ctx, testAddr(1), testAddr(3))
	if ok {
		t.Fatal("Operator should not be approved initially")
	}

	_ = store.SetOperator(ctx, testAddr(1), testAddr(3), true)
	ok, _ = store.IsOperator(ctx, testAddr(1), testAddr(3))
	if !ok {
		t.Error("Operator should be approved")
	}

	// Approval is directional
	ok, _ = store.IsOperator(ctx, testAddr(3), testAddr(1))
	if ok {
		t.Error("Reverse operator approval should not exist")
	}

	_ = store.SetOperator(ctx, testAddr(1), testAddr(3), false)
	ok, _ = store.IsOperator(ctx, testAddr(1), testAddr(3))
	if ok {
		t.Error("Operator should be revoked")
	}
}

func TestTokenStore_Minters(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	_ = store.SetMinter(ctx, testAddr(1), true)
	ok, _ := store.IsMinter(ctx, testAddr(1))
	if !ok {
		t.Error("Minter role should be granted")
	}

	_ = store.SetMinter(ctx, testAddr(1), false)
	ok, _ = store.IsMinter(ctx, testAddr(1))
	if ok {
		t.Error("Minter role should be revoked")
	}
}
