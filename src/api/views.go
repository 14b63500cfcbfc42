package api

import (
	"net/http"
	"time"

	"finance/src/api/handlers"
	"finance/src/monitoring"
	"finance/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	logger  *logrus.Logger
	metrics *monitoring.Metrics
}

func NewServer(handler *handlers.Handler, logger *logrus.Logger, metrics *monitoring.Metrics) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		logger:  logger,
		metrics: metrics,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(s.requestLogger)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Method(http.MethodGet, "/metrics", s.metrics.MetricsHandler())

	s.Router.Group(func(r chi.Router) {
		r.Use(handlers.NoCache)
		r.Use(s.Handler.LoadSession)

		r.Get("/register", s.Handler.GetRegister)
		r.Post("/register", s.Handler.PostRegister)
		r.Get("/login", s.Handler.GetLogin)
		r.Post("/login", s.Handler.PostLogin)
		r.Get("/logout", s.Handler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireLogin)

			r.Get("/", s.Handler.Index)
			r.Get("/buy", s.Handler.GetBuy)
			r.Post("/buy", s.Handler.PostBuy)
			r.Get("/sell", s.Handler.GetSell)
			r.Post("/sell", s.Handler.PostSell)
			r.Get("/quote", s.Handler.GetQuote)
			r.Post("/quote", s.Handler.PostQuote)
			r.Get("/history", s.Handler.GetHistory)
		})
	})
}

// requestLogger attaches a request scoped logger to the context and records
// the outcome of every request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := logrus.NewEntry(s.logger).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(utils.WithLogger(r.Context(), entry)))

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		s.metrics.ObserveRequest(route, r.Method, status, duration)
		entry.WithFields(logrus.Fields{
			"status":   status,
			"duration": duration.String(),
		}).Info("request handled")
	})
}

func NewHTTPServer(server *Server, port string) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
