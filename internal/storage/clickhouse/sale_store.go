package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"star-notary/internal/domain"
	"star-notary/internal/storage"
)

// SaleStore implements storage.SaleStore using ClickHouse.
// It is an analytics copy of the sale history, written after the ledger commits.
type SaleStore struct {
	conn *Conn
}

// NewSaleStore creates a new SaleStore.
func NewSaleStore(conn *Conn) *SaleStore {
	return &SaleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SaleStore = (*SaleStore)(nil)

// Insert adds a new sale. Returns ErrDuplicateKey if sale_id exists.
func (s *SaleStore) Insert(ctx context.Context, sale *domain.Sale) error {
	if sale == nil || sale.SaleID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would collapse a duplicate; keep append-only semantics explicit
	exists, err := s.exists(ctx, sale.SaleID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO star_sales (
			sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		sale.SaleID,
		uint64(sale.TokenID),
		sale.Seller.String(),
		sale.Buyer.String(),
		uint64(sale.Price),
		uint64(sale.Paid),
		uint64(sale.Refund),
		sale.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// InsertBulk adds multiple sales in one batch. Fails entire batch on any duplicate.
func (s *SaleStore) InsertBulk(ctx context.Context, sales []*domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(sales))
	for _, sale := range sales {
		if sale == nil || sale.SaleID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[sale.SaleID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[sale.SaleID] = struct{}{}

		exists, err := s.exists(ctx, sale.SaleID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO star_sales (
			sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sale := range sales {
		err := batch.Append(
			sale.SaleID,
			uint64(sale.TokenID),
			sale.Seller.String(),
			sale.Buyer.String(),
			uint64(sale.Price),
			uint64(sale.Paid),
			uint64(sale.Refund),
			sale.SoldAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTokenID retrieves all sales of a token, ordered by sold_at ASC.
func (s *SaleStore) GetByTokenID(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error) {
	query := `
		SELECT sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		FROM star_sales FINAL
		WHERE token_id = ?
		ORDER BY sold_at ASC, sale_id ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(id))
	if err != nil {
		return nil, fmt.Errorf("query by token id: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

// GetByTimeRange retrieves sales within [start, end] (inclusive), ordered by sold_at ASC.
func (s *SaleStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Sale, error) {
	query := `
		SELECT sale_id, token_id, seller, buyer, price, paid, refund, sold_at
		FROM star_sales FINAL
		WHERE sold_at >= ? AND sold_at <= ?
		ORDER BY sold_at ASC, sale_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

// VolumeByToken returns the total settled price per token within [start, end].
func (s *SaleStore) VolumeByToken(ctx context.Context, start, end int64) (map[domain.TokenID]domain.Lamports, error) {
	query := `
		SELECT token_id, sum(price)
		FROM star_sales FINAL
		WHERE sold_at >= ? AND sold_at <= ?
		GROUP BY token_id
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query volume: %w", err)
	}
	defer rows.Close()

	result := make(map[domain.TokenID]domain.Lamports)
	for rows.Next() {
		var tokenID, volume uint64
		if err := rows.Scan(&tokenID, &volume); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		result[domain.TokenID(tokenID)] = domain.Lamports(volume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume: %w", err)
	}
	return result, nil
}

func (s *SaleStore) exists(ctx context.Context, saleID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM star_sales FINAL WHERE sale_id = ?`, saleID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSales(rows driver.Rows) ([]*domain.Sale, error) {
	var result []*domain.Sale
	for rows.Next() {
		var (
			sale                         domain.Sale
			tokenID, price, paid, refund uint64
			seller, buyer                string
		)
		err := rows.Scan(
			&sale.SaleID,
			&tokenID,
			&seller,
			&buyer,
			&price,
			&paid,
			&refund,
			&sale.SoldAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}

		if sale.Seller, err = domain.ParseAddress(seller); err != nil {
			return nil, fmt.Errorf("decode seller: %w", err)
		}
		if sale.Buyer, err = domain.ParseAddress(buyer); err != nil {
			return nil, fmt.Errorf("decode buyer: %w", err)
		}
		sale.TokenID = domain.TokenID(tokenID)
		sale.Price = domain.Lamports(price)
		sale.Paid = domain.Lamports(paid)
		sale.Refund = domain.Lamports(refund)
		result = append(result, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return result, nil
}
