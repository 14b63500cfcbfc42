package handlers

import (
	"context"
	"net/http"
)

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "quote.html", nil, http.StatusOK)
}

func (h *Handler) PostQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	quote, err := h.Quotes.Lookup(ctx, r.FormValue("symbol"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, "quoted.html", quote, http.StatusOK)
}
