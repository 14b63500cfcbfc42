package handlers

import (
	"context"
	"net/http"
)

func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", nil, http.StatusOK)
}

func (h *Handler) PostRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	_, err := h.Accounts.Register(ctx, r.FormValue("username"), r.FormValue("password"), r.FormValue("confirmation"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/login")
}

// GetLogin forgets any current session before showing the form.
func (h *Handler) GetLogin(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r)
	h.render(w, r.WithContext(anonymous(r.Context())), "login.html", nil, http.StatusOK)
}

func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	h.clearSession(w, r)
	r = r.WithContext(anonymous(r.Context()))

	userID, err := h.Accounts.Authenticate(ctx, r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if err := h.startSession(w, r, userID); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r)
	h.redirect(w, r, "/")
}

// anonymous drops the user id so pages render as logged out.
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, userIDKey, nil)
}
