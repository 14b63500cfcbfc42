package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"finance/src/utils"
)

// parseShares reads the shares field. Anything but a positive whole number is rejected here.
func parseShares(r *http.Request) (int64, error) {
	shares, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("shares")), 10, 64)
	if err != nil || shares <= 0 {
		return 0, utils.BadRequest("shares must be a positive integer")
	}
	return shares, nil
}

func (h *Handler) GetBuy(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "buy.html", nil, http.StatusOK)
}

func (h *Handler) PostBuy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, _ := UserIDFromContext(ctx)
	shares, err := parseShares(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	if _, err := h.Trading.Buy(ctx, userID, r.FormValue("symbol"), shares); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/")
}

// GetSell offers the symbols the user currently holds.
func (h *Handler) GetSell(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, _ := UserIDFromContext(ctx)
	holdings, err := h.Portfolio.ListHoldings(ctx, userID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, "sell.html", holdings, http.StatusOK)
}

func (h *Handler) PostSell(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, _ := UserIDFromContext(ctx)
	shares, err := parseShares(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	if _, err := h.Trading.Sell(ctx, userID, r.FormValue("symbol"), shares); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/")
}
