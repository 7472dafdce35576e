package memory

import (
	"context"
	"errors"
	"testing"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

func TestListingStore_PutAndGet(t *testing.T) {
	store := NewListingStore()
	ctx := context.Background()

	l := &domain.Listing{TokenID: 7, Price: 10_000_000, Seller: testAddr(1), ListedAt: 1000}
	if err := store.Put(ctx, l); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, err := store.GetByTokenID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByTokenID failed: %v", err)
	}
	if result.Price != 10_000_000 || result.Seller != testAddr(1) {
		t.Errorf("Listing mismatch: got %+v", result)
	}
}

func TestListingStore_PutOverwrites(t *testing.T) {
	store := NewListingStore()
	ctx := context.Background()

	_ = store.Put(ctx, &domain.Listing{TokenID: 7, Price: 100, Seller: testAddr(1)})
	_ = store.Put(ctx, &domain.Listing{TokenID: 7, Price: 50, Seller: testAddr(1)})

	result, _ := store.GetByTokenID(ctx, 7)
	if result.Price != 50 {
		t.Errorf("Price should be overwritten: got %d, want 50", result.Price)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 listing, got %d", len(all))
	}
}

func TestListingStore_ZeroPrice(t *testing.T) {
	store := NewListingStore()
	ctx := context.Background()

	if err := store.Put(ctx, &domain.Listing{TokenID: 7, Price: 0, Seller: testAddr(1)}); err != nil {
		t.Fatalf("Put with zero price failed: %v", err)
	}

	result, err := store.GetByTokenID(ctx, 7)
	if err != nil {
		t.Fatalf("Zero-price listing must be retrievable: %v", err)
	}
	if result.Price != 0 {
		t.Errorf("Price mismatch: got %d", result.Price)
	}
}

func TestListingStore_Delete(t *testing.T) {
	store := NewListingStore()
	ctx := context.Background()

	_ = store.Put(ctx, &domain.Listing{TokenID: 7, Price: 1, Seller: testAddr(1)})

	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByTokenID(ctx, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Second delete: expected ErrNotFound, got %v", err)
	}
}

func TestListingStore_GetAllOrdering(t *testing.T) {
	store := NewListingStore()
	ctx := context.Background()

	for _, id := range []domain.TokenID{30, 10, 20} {
		_ = store.Put(ctx, &domain.Listing{TokenID: id, Price: 1, Seller: testAddr(1)})
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 listings, got %d", len(all))
	}
	for i, want := range []domain.TokenID{10, 20, 30} {
		if all[i].TokenID != want {
			t.Errorf("Position %d: got token %d, want %d", i, all[i].TokenID, want)
		}
	}
}

func TestAccountStore_Balances(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	bal, err := store.GetBalance(ctx, testAddr(1))
	if err != nil || bal != 0 {
		t.Fatalf("Unknown account: got %d, %v; want 0, nil", bal, err)
	}

	_ = store.SetBalance(ctx, testAddr(1), 500)
	bal, _ = store.GetBalance(ctx, testAddr(1))
	if bal != 500 {
		t.Errorf("Balance mismatch: got %d, want 500", bal)
	}

	_ = store.SetBalance(ctx, testAddr(1), 0)
	bal, _ = store.GetBalance(ctx, testAddr(1))
	if bal != 0 {
		t.Errorf("Balance mismatch: got %d, want 0", bal)
	}
}

func TestSaleStore_InsertAndQuery(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	sales := []*domain.Sale{
		{SaleID: "c", TokenID: 1, Seller: testAddr(1), Buyer: testAddr(2), Price: 5, Paid: 5, SoldAt: 3000},
		{SaleID: "a", TokenID: 1, Seller: testAddr(2), Buyer: testAddr(1), Price: 9, Paid: 10, Refund: 1, SoldAt: 1000},
		{SaleID: "b", TokenID: 2, Seller: testAddr(1), Buyer: testAddr(3), Price: 1, Paid: 1, SoldAt: 2000},
	}
	for _, s := range sales {
		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	byToken, _ := store.GetByTokenID(ctx, 1)
	if len(byToken) != 2 {
		t.Fatalf("Expected 2 sales for token 1, got %d", len(byToken))
	}
	if byToken[0].SoldAt != 1000 || byToken[1].SoldAt != 3000 {
		t.Error("Sales not sorted by sold_at ASC")
	}

	inRange, _ := store.GetByTimeRange(ctx, 1000, 2000)
	if len(inRange) != 2 {
		t.Errorf("Expected 2 sales in range, got %d", len(inRange))
	}

	none, _ := store.GetByTokenID(ctx, 99)
	if len(none) != 0 {
		t.Errorf("Expected no sales, got %d", len(none))
	}
}

func TestSaleStore_Duplicate(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.Sale{SaleID: "x", TokenID: 1})
	err := store.Insert(ctx, &domain.Sale{SaleID: "x", TokenID: 2})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if err := store.Insert(ctx, &domain.Sale{TokenID: 1}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty sale_id, got %v", err)
	}
}
