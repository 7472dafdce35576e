package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-notary/internal/domain"
	"star-notary/internal/events"
	"star-notary/internal/notary"
	"star-notary/internal/storage"
	"star-notary/internal/storage/memory"
)

var _ Notary = (*notary.Service)(nil)

// wallet derives an on-curve address from a one-byte seed.
func wallet(b byte) domain.Address {
	pub := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{b}, ed25519.SeedSize)).Public().(ed25519.PublicKey)
	a, err := domain.AddressFromBytes(pub)
	if err != nil {
		panic(err)
	}
	return a
}

var (
	deployer = wallet(1)
	alice    = wallet(2)
	bob      = wallet(3)
	faucet   = wallet(9)
)

const oneSOL = domain.LamportsPerSOL

type apiFixture struct {
	svc    *notary.Service
	broker *events.Broker[domain.Event]
	routes http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	broker := events.NewBroker[domain.Event]()
	t.Cleanup(broker.Close)

	svc := notary.New(notary.Options{
		DB:     memory.NewDB(),
		Broker: broker,
		Faucet: faucet,
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, svc.Bootstrap(ctx, deployer, alice))
	require.NoError(t, svc.Deposit(ctx, faucet, bob, 10*oneSOL))

	h := NewHandler(Options{Notary: svc, Broker: broker})
	return &apiFixture{svc: svc, broker: broker, routes: h.Routes()}
}

// do sends a request as caller (zero address means no header) and returns the recorder.
func (f *apiFixture) do(t *testing.T, method, path string, caller domain.Address, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if !caller.IsZero() {
		req.Header.Set(CallerHeader, caller.String())
	}
	w := httptest.NewRecorder()
	f.routes.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) createStar(t *testing.T, caller domain.Address, id, ra string) {
	t.Helper()
	body := `{"name":"Star","story":"Found it","ra":"` + ra + `","dec":"121.874","mag":"245.978","token_id":"` + id + `"}`
	w := f.do(t, http.MethodPost, "/v1/stars", caller, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, code, decodeBody[ErrorResponse](t, w).Code)
}

func TestHandler_Token(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/v1/token", domain.ZeroAddress, "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[TokenResponse](t, w)
	assert.Equal(t, "Star Notary", resp.Name)
	assert.Equal(t, "SNOT", resp.Symbol)
}

func TestHandler_CreateStar(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"name":"Awesome Star","story":"Found it","ra":"032.155","dec":"121.874","mag":"245.978","token_id":"1"}`
	w := f.do(t, http.MethodPost, "/v1/stars", alice, body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	info := decodeBody[domain.StarInfo](t, w)
	assert.Equal(t, domain.StarInfo{
		Name:  "Awesome Star",
		Story: "Found it",
		RA:    "ra_032.155",
		Dec:   "dec_121.874",
		Mag:   "mag_245.978",
	}, info)

	w = f.do(t, http.MethodGet, "/v1/stars/1", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, info, decodeBody[domain.StarInfo](t, w))

	w = f.do(t, http.MethodGet, "/v1/tokens/1/owner", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice, decodeBody[OwnerResponse](t, w).Owner)
}

func TestHandler_CreateStar_DuplicateCoordinates(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "1", "032.155")

	body := `{"name":"Copy","story":"","ra":"032.155","dec":"121.874","mag":"245.978","token_id":"2"}`
	w := f.do(t, http.MethodPost, "/v1/stars", deployer, body)

	assertError(t, w, http.StatusConflict, CodeDuplicateCoordinates)
	assert.Contains(t, decodeBody[ErrorResponse](t, w).Error, "the star with these coordinates already exists")
}

func TestHandler_CreateStar_Errors(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "1", "1")

	tests := []struct {
		name   string
		caller domain.Address
		body   string
		status int
		code   string
	}{
		{"invalid json", alice, "not json", http.StatusBadRequest, CodeInvalidJSON},
		{"not a minter", bob, `{"ra":"2","dec":"2","mag":"2","token_id":"2"}`, http.StatusForbidden, CodeAccessDenied},
		{"token exists", alice, `{"ra":"3","dec":"3","mag":"3","token_id":"1"}`, http.StatusConflict, CodeTokenExists},
		{"token id zero", alice, `{"ra":"4","dec":"4","mag":"4","token_id":"0"}`, http.StatusBadRequest, CodeInvalidTokenID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/v1/stars", tt.caller, tt.body)
			assertError(t, w, tt.status, tt.code)
		})
	}
}

func TestHandler_Caller(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"ra":"1","dec":"1","mag":"1","token_id":"1"}`

	w := f.do(t, http.MethodPost, "/v1/stars", domain.ZeroAddress, body)
	assertError(t, w, http.StatusUnauthorized, CodeMissingCaller)

	req := httptest.NewRequest(http.MethodPost, "/v1/stars", strings.NewReader(body))
	req.Header.Set(CallerHeader, "0OIl")
	rec := httptest.NewRecorder()
	f.routes.ServeHTTP(rec, req)
	assertError(t, rec, http.StatusBadRequest, CodeInvalidAddress)
}

func TestParseCaller(t *testing.T) {
	_, err := ParseCaller(alice.String())
	assert.NoError(t, err)

	// y = 2 is not the encoding of any curve point
	var offCurve domain.Address
	offCurve[0] = 2
	require.False(t, offCurve.IsOnCurve())
	_, err = ParseCaller(offCurve.String())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)

	// the all-zero key decodes to a curve point but is the null account
	require.True(t, domain.ZeroAddress.IsOnCurve())
	_, err = ParseCaller(domain.ZeroAddress.String())
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

func TestHandler_ZeroCallerRejected(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/stars", bytes.NewBufferString(`{}`))
	req.Header.Set(CallerHeader, domain.ZeroAddress.String())
	w := httptest.NewRecorder()
	f.routes.ServeHTTP(w, req)

	assertError(t, w, http.StatusBadRequest, CodeInvalidAddress)
}

func TestHandler_StarExists(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "1", "032.155")

	w := f.do(t, http.MethodGet, "/v1/stars/exists?ra=032.155&dec=121.874&mag=245.978", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[ExistsResponse](t, w).Exists)

	w = f.do(t, http.MethodGet, "/v1/stars/exists?ra=32.155&dec=121.874&mag=245.978", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[ExistsResponse](t, w).Exists)
}

func TestHandler_StarInfo_Errors(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/v1/stars/42", domain.ZeroAddress, "")
	assertError(t, w, http.StatusNotFound, CodeNotFound)

	w = f.do(t, http.MethodGet, "/v1/stars/abc", domain.ZeroAddress, "")
	assertError(t, w, http.StatusBadRequest, CodeInvalidTokenID)
}

func TestHandler_SaleFlow(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	f.createStar(t, alice, "7", "032.155")

	w := f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{"price":"1000000000"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/stars/7/sale", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, oneSOL, decodeBody[PriceResponse](t, w).Price)
	assert.Contains(t, w.Body.String(), `"price":"1000000000"`)

	w = f.do(t, http.MethodGet, "/v1/listings", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	listings := decodeBody[ListListingsResponse](t, w)
	require.Equal(t, 1, listings.Total)
	assert.Equal(t, alice, listings.Listings[0].Seller)

	w = f.do(t, http.MethodPost, "/v1/stars/7/buy", bob, `{"payment":"1500000000"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sale := decodeBody[SaleResponse](t, w)
	assert.Equal(t, alice, sale.Seller)
	assert.Equal(t, bob, sale.Buyer)
	assert.Equal(t, oneSOL, sale.Price)
	assert.Equal(t, oneSOL/2, sale.Refund)
	assert.NotEmpty(t, sale.SaleID)

	owner, err := f.svc.OwnerOf(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	w = f.do(t, http.MethodGet, "/v1/accounts/"+alice.String(), domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, oneSOL, decodeBody[AccountResponse](t, w).Balance)

	w = f.do(t, http.MethodGet, "/v1/accounts/"+bob.String(), domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9*oneSOL, decodeBody[AccountResponse](t, w).Balance)

	w = f.do(t, http.MethodGet, "/v1/stars/7/sale", domain.ZeroAddress, "")
	assertError(t, w, http.StatusNotFound, CodeNotListed)

	w = f.do(t, http.MethodGet, "/v1/stars/7/sales", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	sales := decodeBody[ListSalesResponse](t, w)
	require.Equal(t, 1, sales.Total)
	assert.Equal(t, sale.SaleID, sales.Sales[0].SaleID)
}

func TestHandler_SaleErrors(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "7", "032.155")

	w := f.do(t, http.MethodPut, "/v1/stars/7/sale", bob, `{"price":"1"}`)
	assertError(t, w, http.StatusForbidden, CodeAccessDenied)

	w = f.do(t, http.MethodPost, "/v1/stars/7/buy", bob, `{"payment":"1"}`)
	assertError(t, w, http.StatusNotFound, CodeNotListed)

	w = f.do(t, http.MethodDelete, "/v1/stars/7/sale", alice, "")
	assertError(t, w, http.StatusNotFound, CodeNotListed)

	w = f.do(t, http.MethodPost, "/v1/stars/99/buy", bob, `{"payment":"1"}`)
	assertError(t, w, http.StatusNotFound, CodeNotFound)

	w = f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{"price":"2000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/v1/stars/7/buy", bob, `{"payment":"1999999999"}`)
	assertError(t, w, http.StatusPaymentRequired, CodeInsufficientPayment)

	w = f.do(t, http.MethodPost, "/v1/stars/7/buy", deployer, `{"payment":"2000000000"}`)
	assertError(t, w, http.StatusPaymentRequired, CodeInsufficientFunds)

	w = f.do(t, http.MethodDelete, "/v1/stars/7/sale", alice, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/listings", domain.ZeroAddress, "")
	assert.Zero(t, decodeBody[ListListingsResponse](t, w).Total)
}

func TestHandler_TokenLedger(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/tokens", deployer, `{"to":"`+alice.String()+`","token_id":"5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/tokens/5/approve", alice, `{"to":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/tokens/5/approved", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bob, decodeBody[ApprovedResponse](t, w).Approved)

	w = f.do(t, http.MethodPost, "/v1/tokens/5/transfer", bob, `{"from":"`+alice.String()+`","to":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/owners/"+bob.String()+"/tokens", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decodeBody[TokenBalanceResponse](t, w).Balance)

	w = f.do(t, http.MethodGet, "/v1/tokens/5/approved", domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[ApprovedResponse](t, w).Approved.IsZero(), "transfer clears approval")

	w = f.do(t, http.MethodPost, "/v1/tokens/5/transfer", alice, `{"from":"`+bob.String()+`","to":"`+alice.String()+`"}`)
	assertError(t, w, http.StatusForbidden, CodeAccessDenied)

	w = f.do(t, http.MethodPost, "/v1/tokens/5/transfer", bob, `{"from":"`+bob.String()+`","to":"`+domain.ZeroAddress.String()+`"}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidAddress)
}

func TestHandler_Operators(t *testing.T) {
	f := newAPIFixture(t)
	path := "/v1/owners/" + alice.String() + "/operators/" + bob.String()

	w := f.do(t, http.MethodPut, "/v1/operators/"+bob.String(), alice, `{"approved":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, path, domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[OperatorResponse](t, w).Approved)

	w = f.do(t, http.MethodPut, "/v1/operators/"+alice.String(), alice, `{"approved":true}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidOperator)

	w = f.do(t, http.MethodPut, "/v1/operators/not-an-address", alice, `{"approved":true}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidAddress)
}

func TestHandler_Minters(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/minters", bob, `{"account":"`+bob.String()+`"}`)
	assertError(t, w, http.StatusForbidden, CodeAccessDenied)

	w = f.do(t, http.MethodPost, "/v1/minters", alice, `{"account":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/minters/"+bob.String(), domain.ZeroAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[MinterResponse](t, w).IsMinter)

	w = f.do(t, http.MethodDelete, "/v1/minters/self", bob, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/minters/"+bob.String(), domain.ZeroAddress, "")
	assert.False(t, decodeBody[MinterResponse](t, w).IsMinter)
}

func TestHandler_Deposit(t *testing.T) {
	f := newAPIFixture(t)
	path := "/v1/accounts/" + alice.String() + "/deposit"

	w := f.do(t, http.MethodPost, path, alice, `{"amount":"5"}`)
	assertError(t, w, http.StatusForbidden, CodeAccessDenied)

	w = f.do(t, http.MethodPost, path, faucet, `{"amount":"5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.Lamports(5), decodeBody[AccountResponse](t, w).Balance)
}

func TestHandler_EventsDisabled(t *testing.T) {
	h := NewHandler(Options{Notary: notary.New(notary.Options{DB: memory.NewDB()})})

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assertError(t, w, http.StatusServiceUnavailable, CodeStreamUnavailable)
}

func TestHandler_AmountsRequired(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "7", "032.155")

	w := f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidArgument)

	w = f.do(t, http.MethodGet, "/v1/stars/7/sale", domain.ZeroAddress, "")
	assertError(t, w, http.StatusNotFound, CodeNotListed)

	w = f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{"price":"0"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/stars/7/buy", bob, `{}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidArgument)

	w = f.do(t, http.MethodPost, "/v1/accounts/"+bob.String()+"/deposit", faucet, `{}`)
	assertError(t, w, http.StatusBadRequest, CodeInvalidArgument)

	owner, err := f.svc.OwnerOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
}

func TestHandler_PriceOutOfRange(t *testing.T) {
	f := newAPIFixture(t)
	f.createStar(t, alice, "7", "032.155")

	w := f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{"price":"9223372036854775808"}`)
	assertError(t, w, http.StatusUnprocessableEntity, CodeOutOfRange)

	w = f.do(t, http.MethodGet, "/v1/stars/7/sale", domain.ZeroAddress, "")
	assertError(t, w, http.StatusNotFound, CodeNotListed)

	w = f.do(t, http.MethodPut, "/v1/stars/7/sale", alice, `{"price":"9223372036854775807"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestStatusFor_OutOfRange(t *testing.T) {
	// shape of a backend rejection wrapped by the marketplace
	backend := fmt.Errorf("%w: 9223372036854775808 exceeds bigint range", storage.ErrInvalidInput)
	for _, err := range []error{
		fmt.Errorf("put listing: %w", backend),
		fmt.Errorf("%w: price above limit", notary.ErrOutOfRange),
	} {
		status, code := statusFor(err)
		assert.Equal(t, http.StatusUnprocessableEntity, status, err.Error())
		assert.Equal(t, CodeOutOfRange, code, err.Error())
	}
}

func TestStatusFor_Unmapped(t *testing.T) {
	status, code := statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, code)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
