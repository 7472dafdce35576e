package api

import (
	"net/http"
)

// Mint mints a bare token without star metadata. Minters only.
// POST /v1/tokens
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.Mint(r.Context(), callerFrom(r.Context()), req.To, req.TokenID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, OwnerResponse{Owner: req.To})
}

// Owner returns the current owner of a token.
// GET /v1/tokens/{id}/owner
func (h *Handler) Owner(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	owner, err := h.notary.OwnerOf(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, OwnerResponse{Owner: owner})
}

// Transfer moves a token on behalf of the caller.
// POST /v1/tokens/{id}/transfer
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.SafeTransferFrom(r.Context(), callerFrom(r.Context()), req.From, req.To, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, OwnerResponse{Owner: req.To})
}

// Approve sets the single approved account of a token.
// POST /v1/tokens/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.Approve(r.Context(), callerFrom(r.Context()), req.To, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ApprovedResponse{Approved: req.To})
}

// Approved returns the approved account of a token.
// GET /v1/tokens/{id}/approved
func (h *Handler) Approved(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	approved, err := h.notary.GetApproved(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ApprovedResponse{Approved: approved})
}

// SetOperator grants or revokes an operator for all of the caller's tokens.
// PUT /v1/operators/{operator}
func (h *Handler) SetOperator(w http.ResponseWriter, r *http.Request) {
	operator, ok := h.addressParam(w, r, "operator")
	if !ok {
		return
	}
	var req OperatorRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.SetApprovalForAll(r.Context(), callerFrom(r.Context()), operator, req.Approved); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, OperatorResponse{Approved: req.Approved})
}

// IsOperator reports whether operator may manage all of owner's tokens.
// GET /v1/owners/{owner}/operators/{operator}
func (h *Handler) IsOperator(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.addressParam(w, r, "owner")
	if !ok {
		return
	}
	operator, ok := h.addressParam(w, r, "operator")
	if !ok {
		return
	}

	approved, err := h.notary.IsApprovedForAll(r.Context(), owner, operator)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, OperatorResponse{Approved: approved})
}

// TokenBalance returns how many tokens an owner holds.
// GET /v1/owners/{owner}/tokens
func (h *Handler) TokenBalance(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.addressParam(w, r, "owner")
	if !ok {
		return
	}

	n, err := h.notary.BalanceOf(r.Context(), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, TokenBalanceResponse{Owner: owner, Balance: n})
}

// IsMinter reports whether an account holds the minter role.
// GET /v1/minters/{account}
func (h *Handler) IsMinter(w http.ResponseWriter, r *http.Request) {
	account, ok := h.addressParam(w, r, "account")
	if !ok {
		return
	}

	is, err := h.notary.IsMinter(r.Context(), account)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MinterResponse{Account: account, IsMinter: is})
}

// AddMinter grants the minter role. Minters only.
// POST /v1/minters
func (h *Handler) AddMinter(w http.ResponseWriter, r *http.Request) {
	var req MinterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.AddMinter(r.Context(), callerFrom(r.Context()), req.Account); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MinterResponse{Account: req.Account, IsMinter: true})
}

// RenounceMinter drops the caller's minter role.
// DELETE /v1/minters/self
func (h *Handler) RenounceMinter(w http.ResponseWriter, r *http.Request) {
	if err := h.notary.RenounceMinter(r.Context(), callerFrom(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Account returns the native-currency balance of an account.
// GET /v1/accounts/{addr}
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	account, ok := h.addressParam(w, r, "addr")
	if !ok {
		return
	}

	bal, err := h.notary.AccountBalance(r.Context(), account)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, AccountResponse{Account: account, Balance: bal})
}

// Deposit credits an account. Faucet only.
// POST /v1/accounts/{addr}/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	account, ok := h.addressParam(w, r, "addr")
	if !ok {
		return
	}
	var req DepositRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.Deposit(r.Context(), callerFrom(r.Context()), account, *req.Amount); err != nil {
		h.fail(w, r, err)
		return
	}

	bal, err := h.notary.AccountBalance(r.Context(), account)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, AccountResponse{Account: account, Balance: bal})
}
