package notary

import (
	"context"
	"errors"
	"fmt"

	"star-notary/internal/domain"
	"star-notary/internal/idhash"
	"star-notary/internal/ledger"
	"star-notary/internal/storage"
)

// Market lists stars for sale and settles purchases.
// All of its collaborators must be bound to the same transaction.
type Market struct {
	tokens   ledger.TokenLedger
	funds    *ledger.Funds
	listings storage.ListingStore
	sales    storage.SaleStore
	receipt  *ledger.Receipt
	now      func() int64
}

// List puts id up for sale at price. Only the current owner may list; a
// second call replaces the price.
func (m *Market) List(ctx context.Context, caller domain.Address, id domain.TokenID, price domain.Lamports) error {
	owner, err := m.tokens.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if caller != owner {
		return fmt.Errorf("%w: you can't sell the star you don't own", ErrAccessDenied)
	}
	if price > domain.MaxLamports {
		return fmt.Errorf("%w: price %s above %s", ErrOutOfRange, price, domain.MaxLamports)
	}

	listing := &domain.Listing{TokenID: id, Price: price, Seller: owner, ListedAt: m.now()}
	if err := m.listings.Put(ctx, listing); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		return fmt.Errorf("put listing: %w", err)
	}

	m.receipt.Emit(domain.Event{Type: domain.EventStarListed, TokenID: id, Owner: &owner, Price: &price})
	return nil
}

// Delist takes id off the market. Only the current owner may delist.
func (m *Market) Delist(ctx context.Context, caller domain.Address, id domain.TokenID) error {
	owner, err := m.tokens.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if caller != owner {
		return fmt.Errorf("%w: you can't delist the star you don't own", ErrAccessDenied)
	}

	removed, err := m.cancel(ctx, id, owner)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotListed
	}
	return nil
}

// cancel removes any listing for id and reports whether one existed.
func (m *Market) cancel(ctx context.Context, id domain.TokenID, owner domain.Address) (bool, error) {
	if err := m.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete listing: %w", err)
	}

	m.receipt.Emit(domain.Event{Type: domain.EventStarDelisted, TokenID: id, Owner: &owner})
	return true, nil
}

// PriceOf returns the asking price of id.
func (m *Market) PriceOf(ctx context.Context, id domain.TokenID) (domain.Lamports, error) {
	listing, err := m.listing(ctx, id)
	if err != nil {
		return 0, err
	}
	return listing.Price, nil
}

// Listings returns every active listing, ordered by token id.
func (m *Market) Listings(ctx context.Context) ([]*domain.Listing, error) {
	listings, err := m.listings.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get listings: %w", err)
	}
	return listings, nil
}

// Buy settles a purchase of id by buyer, who attaches payment.
// Checks first, then the ownership and listing effects, then fund movements:
// the seller receives exactly the price and the buyer gets payment-price back.
func (m *Market) Buy(ctx context.Context, buyer domain.Address, id domain.TokenID, payment domain.Lamports) (*domain.Sale, error) {
	listing, err := m.listing(ctx, id)
	if err != nil {
		return nil, err
	}
	price := listing.Price
	if payment < price {
		return nil, fmt.Errorf("%w: price is %s, got %s", ErrInsufficientPayment, price, payment)
	}

	// The attached value leaves the buyer's account up front.
	if err := m.funds.Debit(ctx, buyer, payment); err != nil {
		return nil, err
	}

	seller, err := m.tokens.OwnerOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.tokens.Transfer(ctx, seller, buyer, id); err != nil {
		return nil, err
	}
	if err := m.listings.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("clear listing: %w", err)
	}

	refund := payment - price
	if err := m.funds.Credit(ctx, seller, price); err != nil {
		return nil, err
	}
	if err := m.funds.Credit(ctx, buyer, refund); err != nil {
		return nil, err
	}

	prior, err := m.sales.GetByTokenID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sale history: %w", err)
	}

	sale := &domain.Sale{
		SaleID:  idhash.ComputeSaleID(id, seller, buyer, price, len(prior)),
		TokenID: id,
		Seller:  seller,
		Buyer:   buyer,
		Price:   price,
		Paid:    payment,
		Refund:  refund,
		SoldAt:  m.now(),
	}
	if err := m.sales.Insert(ctx, sale); err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	m.receipt.Emit(domain.Event{Type: domain.EventStarSold, TokenID: id, From: &seller, To: &buyer, Price: &price})
	return sale, nil
}

// SalesOf returns the sale history of id, oldest first.
func (m *Market) SalesOf(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error) {
	sales, err := m.sales.GetByTokenID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sale history: %w", err)
	}
	return sales, nil
}

// listing returns the active listing of an existing token.
func (m *Market) listing(ctx context.Context, id domain.TokenID) (*domain.Listing, error) {
	exists, err := m.tokens.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	listing, err := m.listings.GetByTokenID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotListed
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}
