// Package api exposes the star notary over HTTP.
// Mutating routes identify the caller by the X-Caller header; committed
// events stream over WebSocket at /v1/events.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"star-notary/internal/domain"
	"star-notary/internal/events"
)

// Notary is the service behind the API.
type Notary interface {
	Name() string
	Symbol() string

	CreateStar(ctx context.Context, caller domain.Address, name, story, ra, dec, mag string, id domain.TokenID) error
	TokenIDToStarInfo(ctx context.Context, id domain.TokenID) (*domain.StarInfo, error)
	CheckIfStarExists(ctx context.Context, ra, dec, mag string) (bool, error)

	PutStarUpForSale(ctx context.Context, caller domain.Address, id domain.TokenID, price domain.Lamports) error
	RemoveStarFromSale(ctx context.Context, caller domain.Address, id domain.TokenID) error
	StarsForSale(ctx context.Context, id domain.TokenID) (domain.Lamports, error)
	BuyStar(ctx context.Context, buyer domain.Address, id domain.TokenID, payment domain.Lamports) (*domain.Sale, error)
	Listings(ctx context.Context) ([]*domain.Listing, error)
	SalesOf(ctx context.Context, id domain.TokenID) ([]*domain.Sale, error)

	Mint(ctx context.Context, caller, to domain.Address, id domain.TokenID) error
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error)
	BalanceOf(ctx context.Context, owner domain.Address) (uint64, error)
	SafeTransferFrom(ctx context.Context, caller, from, to domain.Address, id domain.TokenID) error
	Approve(ctx context.Context, caller, to domain.Address, id domain.TokenID) error
	GetApproved(ctx context.Context, id domain.TokenID) (domain.Address, error)
	SetApprovalForAll(ctx context.Context, caller, operator domain.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error)
	IsMinter(ctx context.Context, account domain.Address) (bool, error)
	AddMinter(ctx context.Context, caller, account domain.Address) error
	RenounceMinter(ctx context.Context, caller domain.Address) error

	AccountBalance(ctx context.Context, account domain.Address) (domain.Lamports, error)
	Deposit(ctx context.Context, caller, account domain.Address, amount domain.Lamports) error
}

// Handler provides HTTP endpoints for notary operations.
type Handler struct {
	notary Notary
	broker *events.Broker[domain.Event]
	logger *log.Logger

	streams atomic.Int64 // open /v1/events connections
	subIDs  atomic.Int64 // subscription ids, unique across connections
}

// Options configures the API handler.
type Options struct {
	// Notary serves every route (required).
	Notary Notary
	// Broker feeds /v1/events. If nil, the stream answers 503.
	Broker *events.Broker[domain.Event]
	// Logger receives server-side failures. If nil, they are discarded.
	Logger *log.Logger
}

var discardLogger = log.New(io.Discard, "", 0)

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	return &Handler{notary: opts.Notary, broker: opts.Broker, logger: logger}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(recordRequests)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/token", h.Token)

		// Stars and marketplace
		r.Get("/stars/exists", h.StarExists)
		r.Get("/stars/{id}", h.StarInfo)
		r.Get("/stars/{id}/sale", h.Price)
		r.Get("/stars/{id}/sales", h.Sales)
		r.Get("/listings", h.Listings)

		// Token ledger
		r.Get("/tokens/{id}/owner", h.Owner)
		r.Get("/tokens/{id}/approved", h.Approved)
		r.Get("/owners/{owner}/tokens", h.TokenBalance)
		r.Get("/owners/{owner}/operators/{operator}", h.IsOperator)
		r.Get("/minters/{account}", h.IsMinter)

		// Accounts
		r.Get("/accounts/{addr}", h.Account)

		// Event streaming
		r.Get("/events", h.Events)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)

			r.Post("/stars", h.CreateStar)
			r.Put("/stars/{id}/sale", h.PutUpForSale)
			r.Delete("/stars/{id}/sale", h.RemoveFromSale)
			r.Post("/stars/{id}/buy", h.Buy)

			r.Post("/tokens", h.Mint)
			r.Post("/tokens/{id}/transfer", h.Transfer)
			r.Post("/tokens/{id}/approve", h.Approve)
			r.Put("/operators/{operator}", h.SetOperator)
			r.Post("/minters", h.AddMinter)
			r.Delete("/minters/self", h.RenounceMinter)

			r.Post("/accounts/{addr}/deposit", h.Deposit)
		})
	})

	return r
}

// Token returns the collection name and symbol.
// GET /v1/token
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, TokenResponse{Name: h.notary.Name(), Symbol: h.notary.Symbol()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("encode response: %v", err)
	}
}

// decode reads a JSON body into dst, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON body", err.Error())
		return false
	}
	if v, ok := dst.(validator); ok {
		if err := v.validate(); err != nil {
			h.writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error(), "")
			return false
		}
	}
	return true
}

// validator is implemented by request bodies with required fields.
type validator interface {
	validate() error
}
