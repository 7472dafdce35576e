package api

import (
	"errors"

	"star-notary/internal/domain"
)

// Amounts and token ids travel as decimal strings so that JavaScript
// clients do not lose precision above 2^53.

// TokenResponse is the response body for GET /v1/token.
type TokenResponse struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CreateStarRequest is the request body for creating a star.
type CreateStarRequest struct {
	Name    string         `json:"name"`
	Story   string         `json:"story"`
	RA      string         `json:"ra"`
	Dec     string         `json:"dec"`
	Mag     string         `json:"mag"`
	TokenID domain.TokenID `json:"token_id,string"`
}

// ExistsResponse is the response body for the coordinate lookup.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// PriceRequest is the request body for putting a star up for sale.
// Price is required; "0" lists the star for free.
type PriceRequest struct {
	Price *domain.Lamports `json:"price,string"`
}

func (r *PriceRequest) validate() error {
	if r.Price == nil {
		return errors.New("price is required")
	}
	return nil
}

// PriceResponse is the asking price of a listed star.
type PriceResponse struct {
	TokenID domain.TokenID  `json:"token_id,string"`
	Price   domain.Lamports `json:"price,string"`
}

// BuyRequest is the request body for buying a star.
type BuyRequest struct {
	Payment *domain.Lamports `json:"payment,string"`
}

func (r *BuyRequest) validate() error {
	if r.Payment == nil {
		return errors.New("payment is required")
	}
	return nil
}

// SaleResponse describes a settled purchase.
type SaleResponse struct {
	SaleID  string          `json:"sale_id"`
	TokenID domain.TokenID  `json:"token_id,string"`
	Seller  domain.Address  `json:"seller"`
	Buyer   domain.Address  `json:"buyer"`
	Price   domain.Lamports `json:"price,string"`
	Paid    domain.Lamports `json:"paid,string"`
	Refund  domain.Lamports `json:"refund,string"`
	SoldAt  int64           `json:"sold_at"`
}

// ListSalesResponse is the sale history of one star.
type ListSalesResponse struct {
	Sales []SaleResponse `json:"sales"`
	Total int            `json:"total"`
}

// ListingResponse describes an active offer.
type ListingResponse struct {
	TokenID  domain.TokenID  `json:"token_id,string"`
	Price    domain.Lamports `json:"price,string"`
	Seller   domain.Address  `json:"seller"`
	ListedAt int64           `json:"listed_at"`
}

// ListListingsResponse is the set of active offers.
type ListListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int               `json:"total"`
}

// MintRequest is the request body for minting a bare token.
type MintRequest struct {
	To      domain.Address `json:"to"`
	TokenID domain.TokenID `json:"token_id,string"`
}

// OwnerResponse is the owner of a token.
type OwnerResponse struct {
	Owner domain.Address `json:"owner"`
}

// TransferRequest is the request body for a safe transfer.
type TransferRequest struct {
	From domain.Address `json:"from"`
	To   domain.Address `json:"to"`
}

// ApproveRequest is the request body for a single-token approval.
type ApproveRequest struct {
	To domain.Address `json:"to"`
}

// ApprovedResponse is the approved account of a token; the zero address when none.
type ApprovedResponse struct {
	Approved domain.Address `json:"approved"`
}

// OperatorRequest is the request body for setting an operator.
type OperatorRequest struct {
	Approved bool `json:"approved"`
}

// OperatorResponse reports whether an operator is approved for an owner.
type OperatorResponse struct {
	Approved bool `json:"approved"`
}

// TokenBalanceResponse is the number of tokens an owner holds.
type TokenBalanceResponse struct {
	Owner   domain.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

// MinterRequest is the request body for granting the minter role.
type MinterRequest struct {
	Account domain.Address `json:"account"`
}

// MinterResponse reports whether an account holds the minter role.
type MinterResponse struct {
	Account  domain.Address `json:"account"`
	IsMinter bool           `json:"is_minter"`
}

// DepositRequest is the request body for funding an account.
type DepositRequest struct {
	Amount *domain.Lamports `json:"amount,string"`
}

func (r *DepositRequest) validate() error {
	if r.Amount == nil {
		return errors.New("amount is required")
	}
	return nil
}

// AccountResponse is the native-currency balance of an account.
type AccountResponse struct {
	Account domain.Address  `json:"account"`
	Balance domain.Lamports `json:"balance,string"`
}

func toSaleResponse(s *domain.Sale) SaleResponse {
	return SaleResponse{
		SaleID:  s.SaleID,
		TokenID: s.TokenID,
		Seller:  s.Seller,
		Buyer:   s.Buyer,
		Price:   s.Price,
		Paid:    s.Paid,
		Refund:  s.Refund,
		SoldAt:  s.SoldAt,
	}
}

func toListingResponse(l *domain.Listing) ListingResponse {
	return ListingResponse{
		TokenID:  l.TokenID,
		Price:    l.Price,
		Seller:   l.Seller,
		ListedAt: l.ListedAt,
	}
}
