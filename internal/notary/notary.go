// Package notary registers stars as tokens and trades them on a fixed-price
// marketplace. Every Service call is one atomic, serialized transaction.
package notary

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"star-notary/internal/domain"
	"star-notary/internal/events"
	"star-notary/internal/ledger"
	"star-notary/internal/observability"
	"star-notary/internal/storage"
)

// Service is the star notary. It owns no state besides the database:
// each call binds fresh components to a transaction.
type Service struct {
	mu sync.Mutex

	db        storage.DB
	meta      ledger.Metadata
	broker    *events.Broker[domain.Event]
	analytics storage.SaleStore
	faucet    domain.Address
	logger    *log.Logger
	clock     func() time.Time
}

// Options for creating Service.
type Options struct {
	// Required
	DB storage.DB

	// Token collection name and symbol; defaults apply when empty
	Metadata ledger.Metadata

	// Optional collaborators
	Broker    *events.Broker[domain.Event] // receives events after commit
	Analytics storage.SaleStore            // receives sales after commit, best effort
	Faucet    domain.Address               // only account allowed to Deposit; zero disables
	Logger    *log.Logger
	Clock     func() time.Time
}

// New creates a new Service.
func New(opts Options) *Service {
	s := &Service{
		db:        opts.DB,
		meta:      opts.Metadata.WithDefaults(),
		broker:    opts.Broker,
		analytics: opts.Analytics,
		faucet:    opts.Faucet,
		logger:    opts.Logger,
		clock:     opts.Clock,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// unit is the set of components bound to one transaction.
type unit struct {
	tokens   *ledger.Tokens
	funds    *ledger.Funds
	registry *Registry
	records  *Records
	market   *Market
	receipt  *ledger.Receipt
	now      int64
}

// run executes fn in one serialized transaction, then publishes its events.
func (s *Service) run(ctx context.Context, op string, fn func(u *unit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.clock().UnixMilli()

	var receipt *ledger.Receipt
	err := s.db.WithTx(ctx, func(tx storage.Tx) error {
		receipt = &ledger.Receipt{}
		return fn(s.bind(tx, receipt, now))
	})
	observability.RecordOperation(op, time.Since(start).Seconds(), err)
	if err != nil {
		return err
	}

	s.publish(receipt.Events(), now)
	return nil
}

func (s *Service) bind(tx storage.Tx, receipt *ledger.Receipt, now int64) *unit {
	tokens := ledger.NewTokens(s.meta, tx.Tokens(), receipt)
	funds := ledger.NewFunds(tx.Accounts())
	return &unit{
		tokens:   tokens,
		funds:    funds,
		registry: NewRegistry(tx.Coordinates()),
		records:  NewRecords(tx.Stars()),
		market: &Market{
			tokens:   tokens,
			funds:    funds,
			listings: tx.Listings(),
			sales:    tx.Sales(),
			receipt:  receipt,
			now:      func() int64 { return now },
		},
		receipt: receipt,
		now:     now,
	}
}

// publish stamps and delivers committed events.
func (s *Service) publish(evts []domain.Event, now int64) {
	for _, e := range evts {
		e.ID = uuid.NewString()
		e.Timestamp = now
		observability.RecordEventPublished(string(e.Type))
		if s.broker != nil {
			s.broker.Publish(e)
		}
	}
}

// Name returns the token collection name.
func (s *Service) Name() string { return s.meta.Name }

// Symbol returns the token collection symbol.
func (s *Service) Symbol() string { return s.meta.Symbol }

// Bootstrap grants the minter role to accounts without a caller check.
// It stands in for the deployer role assigned at contract creation.
func (s *Service) Bootstrap(ctx context.Context, minters ...domain.Address) error {
	return s.run(ctx, "bootstrap", func(u *unit) error {
		for _, m := range minters {
			if err := u.tokens.GrantMinter(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateStar mints id to caller and registers its metadata and coordinates.
func (s *Service) CreateStar(ctx context.Context, caller domain.Address, name, story, ra, dec, mag string, id domain.TokenID) error {
	coords := domain.Coordinates{RA: ra, Dec: dec, Mag: mag}

	err := s.run(ctx, "create_star", func(u *unit) error {
		taken, err := u.registry.Exists(ctx, coords)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateCoordinates
		}

		if err := u.tokens.Mint(ctx, caller, caller, id); err != nil {
			return err
		}
		if err := u.registry.Register(ctx, coords, id); err != nil {
			return err
		}

		star := &domain.Star{TokenID: id, Name: name, Story: story, Coordinates: coords, CreatedAt: u.now}
		if err := u.records.Create(ctx, star); err != nil {
			return err
		}

		u.receipt.Emit(domain.Event{Type: domain.EventStarCreated, TokenID: id, Owner: &caller})
		return nil
	})
	if err != nil {
		return err
	}

	observability.RecordStarCreated()
	s.logger.Printf("star %s created by %s", id, caller)
	return nil
}

// TokenIDToStarInfo returns the star's name, story and prefixed coordinates.
func (s *Service) TokenIDToStarInfo(ctx context.Context, id domain.TokenID) (*domain.StarInfo, error) {
	var info *domain.StarInfo
	err := s.run(ctx, "star_info", func(u *unit) error {
		var err error
		info, err = u.records.Read(ctx, id)
		return err
	})
	return info, err
}

// CheckIfStarExists reports whether the exact coordinates are already registered.
func (s *Service) CheckIfStarExists(ctx context.Context, ra, dec, mag string) (bool, error) {
	var exists bool
	err := s.run(ctx, "star_exists", func(u *unit) error {
		var err error
		exists, err = u.registry.Exists(ctx, domain.Coordinates{RA: ra, Dec: dec, Mag: mag})
		return err
	})
	return exists, err
}

// PutStarUpForSale lists id at price. Caller must own the star.
func (s *Service) PutStarUpForSale(ctx context.Context, caller domain.Address, id domain.TokenID, price domain.Lamports) error {
	err := s.run(ctx, "put_up_for_sale", func(u *unit) error {
		return u.market.List(ctx, caller, id, price)
	})
	if err == nil {
		observability.RecordListing()
	}
	return err
}

// RemoveStarFromSale cancels the listing of id. Caller must own the star.
func (s *Service) RemoveStarFromSale(ctx context.Context, caller domain.Address, id domain.TokenID) error {
	err := s.run(ctx, "remove_from_sale", func(u *unit) error {
		return u.market.Delist(ctx, caller, id)
	})
	if err == nil {
		observability.RecordDelisting("owner")
	}
	return err
}

// StarsForSale returns the asking price of id.
func (s *Service) StarsForSale(ctx context.Context, id domain.TokenID) (domain.Lamports, error) {
	var price domain.Lamports
	err := s.run(ctx, "price_of", func(u *unit) error {
		var err error
		price, err = u.market.PriceOf(ctx, id)
		return err
	})
	return price, err
}

// BuyStar buys id for buyer, who attaches payment from their account.
func (s *Service) BuyStar(ctx context.Context, buyer domain.Address, id domain.TokenID, payment domain.Lamports) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.run(ctx, "buy_star", func(u *unit) error {
		var err error
		sale, err = u.market.Buy(ctx, buyer, id, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSale(uint64(sale.Price), uint64(sale.Refund))
	observability.RecordDelisting("sold")
	s.recordAnalytics(ctx, sale)
	s.logger.Printf("star %s sold by %s to %s for %s (refund %s)", id, sale.Seller, sale.Buyer, sale.Price, sale.Refund)
	return sale, nil
}

// recordAnalytics copies a committed sale to the analytics store.
// The ledger is the source of truth; failures are logged and counted.
func (s *Service) recordAnalytics(ctx context.Context, sale *domain.Sale) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Insert(ctx, sale); err != nil {
		observability.RecordAnalyticsError()
		s.logger.Printf("analytics: record sale %s: %v", sale.SaleID, err)
	}
}

// Listings returns every active listing, ordered by token id.
func (s *Service) Listings(ctx context.Context) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	err := s.run(ctx, "listings", func(u *unit) error {
		var err error
		listings, err = u.market.Listings(ctx)
		return err
	})
	return listings, err
}

// SalesOf returns the sale history of id, oldest first.
func (s *Service) SalesOf(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error) {
	var sales []*domain.Sale
	err := s.run(ctx, "sales_of", func(u *unit) error {
		exists, err := u.tokens.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		sales, err = u.market.SalesOf(ctx, id)
		return err
	})
	return sales, err
}

// Mint creates a bare token without star metadata. Caller must be a minter.
func (s *Service) Mint(ctx context.Context, caller, to domain.Address, id domain.TokenID) error {
	return s.run(ctx, "mint", func(u *unit) error {
		return u.tokens.Mint(ctx, caller, to, id)
	})
}

// OwnerOf returns the owner of id.
func (s *Service) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	var owner domain.Address
	err := s.run(ctx, "owner_of", func(u *unit) error {
		var err error
		owner, err = u.tokens.OwnerOf(ctx, id)
		return err
	})
	return owner, err
}

// BalanceOf returns how many tokens owner holds.
func (s *Service) BalanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	var n uint64
	err := s.run(ctx, "balance_of", func(u *unit) error {
		var err error
		n, err = u.tokens.BalanceOf(ctx, owner)
		return err
	})
	return n, err
}

// SafeTransferFrom moves id from from to to on behalf of caller.
// An active listing does not survive a change of owner; it is cancelled in
// the same transaction.
func (s *Service) SafeTransferFrom(ctx context.Context, caller, from, to domain.Address, id domain.TokenID) error {
	var delisted bool
	err := s.run(ctx, "transfer", func(u *unit) error {
		if err := u.tokens.SafeTransferFrom(ctx, caller, from, to, id); err != nil {
			return err
		}
		var err error
		delisted, err = u.market.cancel(ctx, id, from)
		return err
	})
	if err == nil && delisted {
		observability.RecordDelisting("transfer")
	}
	return err
}

// Approve lets to transfer id. Caller must be the owner or an operator.
func (s *Service) Approve(ctx context.Context, caller, to domain.Address, id domain.TokenID) error {
	return s.run(ctx, "approve", func(u *unit) error {
		return u.tokens.Approve(ctx, caller, to, id)
	})
}

// GetApproved returns the approved address of id, ZeroAddress if none.
func (s *Service) GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	var approved domain.Address
	err := s.run(ctx, "get_approved", func(u *unit) error {
		var err error
		approved, err = u.tokens.GetApproved(ctx, id)
		return err
	})
	return approved, err
}

// SetApprovalForAll grants or revokes operator rights over caller's tokens.
func (s *Service) SetApprovalForAll(ctx context.Context, caller, operator domain.Address, approved bool) error {
	return s.run(ctx, "set_approval_for_all", func(u *unit) error {
		return u.tokens.SetApprovalForAll(ctx, caller, operator, approved)
	})
}

// IsApprovedForAll reports whether operator manages all tokens of owner.
func (s *Service) IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error) {
	var ok bool
	err := s.run(ctx, "is_approved_for_all", func(u *unit) error {
		var err error
		ok, err = u.tokens.IsApprovedForAll(ctx, owner, operator)
		return err
	})
	return ok, err
}

// IsMinter reports whether account holds the minter role.
func (s *Service) IsMinter(ctx context.Context, account domain.Address) (bool, error) {
	var ok bool
	err := s.run(ctx, "is_minter", func(u *unit) error {
		var err error
		ok, err = u.tokens.IsMinter(ctx, account)
		return err
	})
	return ok, err
}

// AddMinter grants the minter role to account. Caller must be a minter.
func (s *Service) AddMinter(ctx context.Context, caller, account domain.Address) error {
	return s.run(ctx, "add_minter", func(u *unit) error {
		return u.tokens.AddMinter(ctx, caller, account)
	})
}

// RenounceMinter drops caller's minter role.
func (s *Service) RenounceMinter(ctx context.Context, caller domain.Address) error {
	return s.run(ctx, "renounce_minter", func(u *unit) error {
		return u.tokens.RenounceMinter(ctx, caller)
	})
}

// AccountBalance returns the native-currency balance of account.
func (s *Service) AccountBalance(ctx context.Context, account domain.Address) (domain.Lamports, error) {
	var bal domain.Lamports
	err := s.run(ctx, "account_balance", func(u *unit) error {
		var err error
		bal, err = u.funds.Balance(ctx, account)
		return err
	})
	return bal, err
}

// Deposit credits amount to account. Only the configured faucet may deposit.
func (s *Service) Deposit(ctx context.Context, caller, account domain.Address, amount domain.Lamports) error {
	if s.faucet.IsZero() || caller != s.faucet {
		return fmt.Errorf("%w: deposits are restricted to the faucet", ErrAccessDenied)
	}
	return s.run(ctx, "deposit", func(u *unit) error {
		return u.funds.Credit(ctx, account, amount)
	})
}
