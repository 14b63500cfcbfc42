package handlers

import (
	"context"
	"net/http"
)

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, _ := UserIDFromContext(ctx)
	portfolio, err := h.Portfolio.GetPortfolio(ctx, userID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, "index.html", portfolio, http.StatusOK)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, _ := UserIDFromContext(ctx)
	entries, err := h.History.ListHistory(ctx, userID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, "history.html", entries, http.StatusOK)
}
