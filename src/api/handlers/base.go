package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"finance/src/services"
	"finance/src/sessions"
	"finance/src/utils"
)

const requestTimeout = 10 * time.Second

// Services groups what the handlers delegate to.
type Services struct {
	Accounts  services.AccountServiceI
	Trading   services.TradingServiceI
	Portfolio services.PortfolioServiceI
	History   services.HistoryServiceI
	Quotes    services.QuoteServiceI
}

type Handler struct {
	Services
	Sessions  sessions.Store
	templates *Templates
	cookie    CookieConfig
}

func NewHandler(svc Services, store sessions.Store, cookie CookieConfig) (*Handler, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		Services:  svc,
		Sessions:  store,
		templates: templates,
		cookie:    cookie,
	}, nil
}

// view is the value every page template is executed with.
type view struct {
	LoggedIn bool
	Data     interface{}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data interface{}, status int) {
	_, loggedIn := UserIDFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.templates.Execute(&buf, page, view{LoggedIn: loggedIn, Data: data}); err != nil {
		utils.LoggerFromContext(r.Context()).WithError(err).WithField("page", page).Error("template failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

type apology struct {
	Code    int
	Message string
}

// HandleErrors renders the apology page for err with a status fixed by its kind.
// An auth failure on a logged in request means the session outlived its user, so the
// session is dropped and the client starts over at the login page.
func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	if _, loggedIn := UserIDFromContext(r.Context()); loggedIn && errors.Is(err, services.ErrAuth) {
		utils.LoggerFromContext(r.Context()).WithError(err).Info("session user gone, logging out")
		h.clearSession(w, r)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var httpErr *utils.HTTPError
	if !errors.As(toHTTPError(err), &httpErr) {
		httpErr = &utils.HTTPError{Code: http.StatusInternalServerError, Message: "internal server error"}
	}

	logger := utils.LoggerFromContext(r.Context()).WithError(err).WithField("status", httpErr.Code)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Debug("request rejected")
	}

	h.render(w, r, "apology.html", apology{Code: httpErr.Code, Message: httpErr.Message}, httpErr.Code)
}

// toHTTPError maps service kinds first, so upstream errors carried as causes never leak
// their own status codes.
func toHTTPError(err error) error {
	var httpErr *utils.HTTPError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInsufficientShares):
		return utils.BadRequest(services.Message(err))
	case errors.Is(err, services.ErrAuth):
		return utils.Forbidden(services.Message(err))
	case errors.Is(err, services.ErrNoSuchHolding):
		return utils.NotFound(services.Message(err))
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(services.Message(err))
	case errors.Is(err, services.ErrQuoteUnavailable):
		return utils.ServiceUnavailable(services.Message(err))
	case errors.Is(err, context.DeadlineExceeded):
		return utils.GatewayTimeout("request timed out")
	case errors.Is(err, services.ErrPersistence):
		return utils.InternalServerError("internal server error")
	case errors.As(err, &httpErr):
		return httpErr
	default:
		return utils.InternalServerError("internal server error")
	}
}
