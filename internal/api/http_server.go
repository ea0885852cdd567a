package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/domain"
	"hotelbook/internal/service"

	"github.com/rs/zerolog"
)

// ReadinessCheck is probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services the HTTP layer drives.
type Deps struct {
	Rooms  *service.RoomCatalog
	Drafts *service.DraftService
	Wizard *service.Wizard
	Auth   *service.AuthService
	Repo   domain.Repository
	Checks []ReadinessCheck
}

// HTTPServer serves the booking site and the operator API.
type HTTPServer struct {
	cfg    *config.Config
	deps   Deps
	server *http.Server
	auth   *HTTPAuth
	pages  *pages
	logger *zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) (*HTTPServer, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	srv := &HTTPServer{
		cfg:    cfg,
		deps:   deps,
		pages:  p,
		logger: logger,
		auth:   NewHTTPAuth(cfg.API, logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.handleHome)
	mux.HandleFunc("GET /rooms", srv.handleRooms)
	mux.HandleFunc("POST /rooms/{id}/select", srv.handleSelectRoom)
	mux.HandleFunc("GET /booking/review", srv.handleReview)
	mux.HandleFunc("POST /booking/review", srv.handleReviewSubmit)
	mux.HandleFunc("GET /booking/payment", srv.handlePayment)
	mux.HandleFunc("POST /booking/payment", srv.handlePaymentSubmit)
	mux.HandleFunc("GET /booking/confirmation/{bookingId}", srv.handleConfirmation)
	mux.HandleFunc("GET /booking/failed", srv.handleFailed)
	mux.HandleFunc("GET /login", srv.handleLogin)
	mux.HandleFunc("POST /login", srv.handleLoginSubmit)
	mux.HandleFunc("POST /logout", srv.handleLogout)
	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	mux.HandleFunc("GET /readyz", srv.handleReadyz)
	mux.HandleFunc("/", srv.handleNotFound)

	if cfg.API.Enabled {
		apiMux := http.NewServeMux()
		apiMux.HandleFunc("GET /api/v1/rooms", srv.handleAPIRooms)
		apiMux.HandleFunc("GET /api/v1/bookings", srv.handleAPIBookings)
		apiMux.HandleFunc("GET /api/v1/bookings/export", srv.handleAPIExport)
		apiMux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleAPIBooking)
		mux.Handle("/api/v1/", srv.auth.Wrap(apiMux))
	}

	handler := loggingMiddleware(logger, srv.sessionMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return srv, nil
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range s.deps.Checks {
		if err := c.Check(ctx); err != nil {
			s.logger.Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"check":  c.Name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func (s *HTTPServer) layout(r *http.Request, title string) layoutData {
	return layoutData{Title: title, User: visitorFrom(r.Context()).User}
}

func (s *HTTPServer) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := s.pages.render(w, status, name, data); err != nil {
		s.serverError(w, r, err)
	}
}

// serverError logs err and shows the generic error page.
func (s *HTTPServer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r.Context())
	s.logger.Error().Err(err).
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")

	view := errorView{layoutData: s.layout(r, "Error"), RequestID: requestID}
	if rerr := s.pages.render(w, http.StatusInternalServerError, pageError, view); rerr != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *HTTPServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageNotFound, s.layout(r, "Not found"))
}
