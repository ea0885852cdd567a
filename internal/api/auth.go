package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"hotelbook/internal/config"

	"github.com/rs/zerolog"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadRooms         = "read:rooms"
	permReadBookings      = "read:bookings"
	permExportBookings    = "export:bookings"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingHeaders   = errors.New("missing api key headers")
	errInvalidAPIKey    = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
	errRateLimited      = errors.New("rate limit exceeded")
)

// HTTPAuth provides API-key auth and per-key rate limiting for the operator API.
type HTTPAuth struct {
	cfg     config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
	logger  *zerolog.Logger
}

func NewHTTPAuth(cfg config.APIConfig, logger *zerolog.Logger) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{
		cfg:     cfg,
		clients: m,
		limiter: newRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		logger:  logger,
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			client, err := a.checkAuth(r)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				a.logger.Warn().
					Str("request_id", requestIDFrom(r.Context())).
					Str("path", r.URL.Path).
					Str("client", client.Name).
					Err(err).
					Msg("api request rejected")
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, errRateLimited.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) apiKeyHeader() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		return apiKeyHeaderDefault
	}
	return h
}

func (a *HTTPAuth) extraHeader() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderExtra))
	if h == "" {
		return apiExtraHeaderDefault
	}
	return h
}

func (a *HTTPAuth) checkAuth(r *http.Request) (config.APIClientKey, error) {
	apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader()))
	extra := strings.TrimSpace(r.Header.Get(a.extraHeader()))
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingHeaders
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return client, errInvalidExtra
	}

	return client, checkPermissions(client, r.URL.Path)
}

func checkPermissions(client config.APIClientKey, path string) error {
	required := requiredPermission(path)
	if required == "" {
		return nil
	}
	// an empty list grants everything
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(path string) string {
	switch {
	case path == "/api/v1/rooms":
		return permReadRooms
	case path == "/api/v1/bookings/export":
		return permExportBookings
	case path == "/api/v1/bookings" || strings.HasPrefix(path, "/api/v1/bookings/"):
		return permReadBookings
	default:
		return ""
	}
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader())); apiKey != "" {
		return apiKey
	}
	return remoteHost(r)
}
