package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"star-notary/internal/domain"
	"star-notary/internal/observability"
)

// CallerHeader carries the base58 address of the account making a request.
const CallerHeader = "X-Caller"

type callerKey struct{}

// ParseCaller validates a caller address: it must decode and be a point on
// the ed25519 curve, i.e. a key some wallet can hold.
func ParseCaller(s string) (domain.Address, error) {
	a, err := domain.ParseAddress(s)
	if err != nil {
		return a, err
	}
	if a.IsZero() {
		return a, fmt.Errorf("%w: null address", domain.ErrMalformedAddress)
	}
	if !a.IsOnCurve() {
		return a, fmt.Errorf("%w: not an ed25519 public key", domain.ErrMalformedAddress)
	}
	return a, nil
}

// requireCaller rejects requests without a valid X-Caller header.
func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(CallerHeader)
		if raw == "" {
			writeBareError(w, http.StatusUnauthorized, CodeMissingCaller, CallerHeader+" header is required")
			return
		}
		caller, err := ParseCaller(raw)
		if err != nil {
			writeBareError(w, http.StatusBadRequest, CodeInvalidAddress, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func writeBareError(w http.ResponseWriter, status int, code, message string) {
	(&Handler{logger: discardLogger}).writeError(w, status, code, message, "")
}

// callerFrom returns the caller set by requireCaller.
func callerFrom(ctx context.Context) domain.Address {
	caller, _ := ctx.Value(callerKey{}).(domain.Address)
	return caller
}

// recordRequests counts responses by route pattern and status code.
func recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RecordHTTPRequest(route, strconv.Itoa(status))
	})
}

// tokenIDParam parses the {id} path segment, answering 400 on failure.
func (h *Handler) tokenIDParam(w http.ResponseWriter, r *http.Request) (domain.TokenID, bool) {
	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeInvalidTokenID, "token id must be a decimal integer", err.Error())
		return 0, false
	}
	return id, true
}

// addressParam parses a base58 path segment, answering 400 on failure.
func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request, name string) (domain.Address, bool) {
	a, err := domain.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeInvalidAddress, name+" is not a valid address", err.Error())
		return a, false
	}
	return a, true
}
