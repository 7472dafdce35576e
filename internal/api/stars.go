package api

import (
	"net/http"
)

// CreateStar mints a star to the caller.
// POST /v1/stars
func (h *Handler) CreateStar(w http.ResponseWriter, r *http.Request) {
	var req CreateStarRequest
	if !h.decode(w, r, &req) {
		return
	}

	caller := callerFrom(r.Context())
	if err := h.notary.CreateStar(r.Context(), caller, req.Name, req.Story, req.RA, req.Dec, req.Mag, req.TokenID); err != nil {
		h.fail(w, r, err)
		return
	}

	info, err := h.notary.TokenIDToStarInfo(r.Context(), req.TokenID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, info)
}

// StarInfo returns a star's name, story and prefixed coordinates.
// GET /v1/stars/{id}
func (h *Handler) StarInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	info, err := h.notary.TokenIDToStarInfo(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// StarExists reports whether coordinates are already registered.
// GET /v1/stars/exists?ra=&dec=&mag=
func (h *Handler) StarExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exists, err := h.notary.CheckIfStarExists(r.Context(), q.Get("ra"), q.Get("dec"), q.Get("mag"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

// PutUpForSale lists the caller's star at a price.
// PUT /v1/stars/{id}/sale
func (h *Handler) PutUpForSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req PriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.notary.PutStarUpForSale(r.Context(), callerFrom(r.Context()), id, *req.Price); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PriceResponse{TokenID: id, Price: *req.Price})
}

// RemoveFromSale withdraws the caller's listing.
// DELETE /v1/stars/{id}/sale
func (h *Handler) RemoveFromSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	if err := h.notary.RemoveStarFromSale(r.Context(), callerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Price returns the asking price of a listed star.
// GET /v1/stars/{id}/sale
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	price, err := h.notary.StarsForSale(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PriceResponse{TokenID: id, Price: price})
}

// Buy settles a purchase for the caller with the attached payment.
// POST /v1/stars/{id}/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req BuyRequest
	if !h.decode(w, r, &req) {
		return
	}

	sale, err := h.notary.BuyStar(r.Context(), callerFrom(r.Context()), id, *req.Payment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSaleResponse(sale))
}

// Sales returns a star's sale history, oldest first.
// GET /v1/stars/{id}/sales
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}

	sales, err := h.notary.SalesOf(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := ListSalesResponse{Sales: make([]SaleResponse, 0, len(sales)), Total: len(sales)}
	for _, s := range sales {
		resp.Sales = append(resp.Sales, toSaleResponse(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Listings returns every active offer.
// GET /v1/listings
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.notary.Listings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := ListListingsResponse{Listings: make([]ListingResponse, 0, len(listings)), Total: len(listings)}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, toListingResponse(l))
	}
	h.writeJSON(w, http.StatusOK, resp)
}
