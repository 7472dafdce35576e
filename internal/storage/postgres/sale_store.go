package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// SaleStore implements storage.SaleStore using PostgreSQL.
type SaleStore struct {
	q querier
}

// NewSaleStore creates a new SaleStore outside any transaction.
func NewSaleStore(pool *Pool) *SaleStore {
	return &SaleStore{q: pool}
}

// Compile-time interface check.
var _ storage.SaleStore = (*SaleStore)(nil)

// Insert adds a new sale. Returns ErrDuplicateKey if sale_id exists.
func (s *SaleStore) Insert(ctx context.Context, sale *domain.Sale) error {
	if sale == nil || sale.SaleID == "" {
		return storage.ErrInvalidInput
	}

	var amounts [4]int64
	for i, v := range []uint64{uint64(sale.TokenID), uint64(sale.Price), uint64(sale.Paid), uint64(sale.Refund)} {
		n, err := toBigint(v)
		if err != nil {
			return err
		}
		amounts[i] = n
	}

	query := `
		INSERT INTO sales (sale_id, token_id, seller, buyer, price, paid, refund, sold_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.q.Exec(ctx, query,
		sale.SaleID,
		amounts[0],
		sale.Seller.String(),
		sale.Buyer.String(),
		amounts[1],
		amounts[2],
		amounts[3],
		sale.SoldAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// GetByTokenID retrieves all sales of a token, ordered by sold_at ASC.
func (s *SaleStore) GetByTokenID(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return nil, nil
	}

	query := `
		SELECT sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		FROM sales
		WHERE token_id = $1
		ORDER BY sold_at ASC, sale_id ASC
	`

	rows, err := s.q.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("get sales by token id: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

// GetByTimeRange retrieves sales within [start, end] (inclusive), ordered by sold_at ASC.
func (s *SaleStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Sale, error) {
	query := `
		SELECT sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		FROM sales
		WHERE sold_at >= $1 AND sold_at <= $2
		ORDER BY sold_at ASC, sale_id ASC
	`

	rows, err := s.q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get sales by time range: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

// scanSales scans rows into Sale slice.
func scanSales(rows pgx.Rows) ([]*domain.Sale, error) {
	var result []*domain.Sale
	for rows.Next() {
		var (
			sale                        domain.Sale
			tokenID, price, paid, refnd int64
			seller, buyer               string
		)
		err := rows.Scan(
			&sale.SaleID,
			&tokenID,
			&seller,
			&buyer,
			&price,
			&paid,
			&refnd,
			&sale.SoldAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}

		if sale.Seller, err = parseAddress(seller); err != nil {
			return nil, err
		}
		if sale.Buyer, err = parseAddress(buyer); err != nil {
			return nil, err
		}
		sale.TokenID = domain.TokenID(tokenID)
		sale.Price = domain.Lamports(price)
		sale.Paid = domain.Lamports(paid)
		sale.Refund = domain.Lamports(refnd)
		result = append(result, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return result, nil
}
