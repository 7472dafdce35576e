package api

import (
	"errors"
	"net/http"

	"star-notary/internal/domain"
	"star-notary/internal/notary"
	"star-notary/internal/storage"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidJSON          = "invalid_json"
	CodeInvalidArgument      = "invalid_argument"
	CodeMissingCaller        = "missing_caller"
	CodeAccessDenied         = "access_denied"
	CodeNotFound             = "not_found"
	CodeNotListed            = "not_listed"
	CodeDuplicateCoordinates = "duplicate_coordinates"
	CodeTokenExists          = "token_exists"
	CodeAlreadyExists        = "already_exists"
	CodeInsufficientPayment  = "insufficient_payment"
	CodeInsufficientFunds    = "insufficient_funds"
	CodeInvalidAddress       = "invalid_address"
	CodeInvalidOperator      = "invalid_operator"
	CodeInvalidTokenID       = "invalid_token_id"
	CodeBalanceOverflow      = "balance_overflow"
	CodeOutOfRange           = "out_of_range"
	CodeStreamUnavailable    = "stream_unavailable"
	CodeInternal             = "internal"
)

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{notary.ErrAccessDenied, http.StatusForbidden, CodeAccessDenied},
	{notary.ErrNotListed, http.StatusNotFound, CodeNotListed},
	{notary.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{notary.ErrDuplicateCoordinates, http.StatusConflict, CodeDuplicateCoordinates},
	{notary.ErrTokenExists, http.StatusConflict, CodeTokenExists},
	{notary.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists},
	{notary.ErrInsufficientPayment, http.StatusPaymentRequired, CodeInsufficientPayment},
	{notary.ErrInsufficientFunds, http.StatusPaymentRequired, CodeInsufficientFunds},
	{notary.ErrInvalidAddress, http.StatusBadRequest, CodeInvalidAddress},
	{notary.ErrInvalidOperator, http.StatusBadRequest, CodeInvalidOperator},
	{notary.ErrInvalidTokenID, http.StatusBadRequest, CodeInvalidTokenID},
	{domain.ErrMalformedAddress, http.StatusBadRequest, CodeInvalidAddress},
	{notary.ErrBalanceOverflow, http.StatusUnprocessableEntity, CodeBalanceOverflow},
	{notary.ErrOutOfRange, http.StatusUnprocessableEntity, CodeOutOfRange},
	{storage.ErrInvalidInput, http.StatusUnprocessableEntity, CodeOutOfRange},
}

// statusFor maps a notary error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// fail answers with the status mapped from err. Unmapped errors are logged
// and their text withheld.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		h.writeError(w, status, code, "internal error", "")
		return
	}
	h.writeError(w, status, code, err.Error(), "")
}
