package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"hotelbook/internal/metrics"
	"hotelbook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	visitorKey ctxKey = iota
	requestIDKey
)

const (
	requestIDHeader     = "X-Request-ID"
	visitorCookieMaxAge = 30 * 24 * 60 * 60 // 30 days, seconds
)

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func visitorFrom(ctx context.Context) service.Visitor {
	v, _ := ctx.Value(visitorKey).(service.Visitor)
	return v
}

// loggingMiddleware assigns a request id, writes the access log line and
// counts the request.
func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := routeLabel(r.URL.Path)
		metrics.IncHTTP(route, recorder.status)

		ev := logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// sessionMiddleware resolves the visitor cookie and the signed session into
// a service.Visitor on the request context. Machine endpoints are skipped.
func (s *HTTPServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isMachinePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var v service.Visitor
		if c, err := r.Cookie(s.cfg.Session.VisitorCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				v.ID = id.String()
			}
		}
		if v.ID == "" {
			v.ID = uuid.NewString()
			http.SetCookie(w, s.cookie(s.cfg.Session.VisitorCookie, v.ID, visitorCookieMaxAge))
		}

		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil && c.Value != "" {
			user, err := s.deps.Auth.ParseToken(c.Value)
			if err != nil {
				http.SetCookie(w, s.cookie(s.cfg.Session.CookieName, "", -1))
			} else {
				v.User = user
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey, v)))
	})
}

func (s *HTTPServer) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.HTTP.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// remoteHost is the connecting address without the port. Forwarding headers
// are not trusted.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func isMachinePath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/healthz" || path == "/readyz"
}

var staticRoutes = map[string]bool{
	"/":                true,
	"/rooms":           true,
	"/booking/review":  true,
	"/booking/payment": true,
	"/booking/failed":  true,
	"/login":           true,
	"/logout":          true,
	"/healthz":         true,
	"/readyz":          true,
	"/api/v1/rooms":    true,
	"/api/v1/bookings": true,
}

// routeLabel maps a path to its route pattern so metric labels stay bounded.
func routeLabel(path string) string {
	switch {
	case staticRoutes[path]:
		return path
	case strings.HasPrefix(path, "/booking/confirmation/"):
		return "/booking/confirmation/{bookingId}"
	case strings.HasPrefix(path, "/rooms/") && strings.HasSuffix(path, "/select"):
		return "/rooms/{id}/select"
	case path == "/api/v1/bookings/export":
		return path
	case strings.HasPrefix(path, "/api/v1/bookings/"):
		return "/api/v1/bookings/{id}"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
