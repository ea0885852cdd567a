package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/domain"

	"github.com/rs/zerolog"
)

// HTTPGateway calls the external booking/payment backend.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zerolog.Logger
}

type cardPayload struct {
	Number   string `json:"number"`
	Expiry   string `json:"expiry"`
	CVV      string `json:"cvv"`
	Holder   string `json:"holder"`
	SaveCard bool   `json:"save_card"`
}

type stayPayload struct {
	RoomID          int64    `json:"room_id"`
	RoomName        string   `json:"room_name"`
	CheckIn         string   `json:"check_in"`
	CheckOut        string   `json:"check_out"`
	Guests          int      `json:"guests"`
	Total           int64    `json:"total"`
	Currency        string   `json:"currency"`
	SpecialRequests []string `json:"special_requests,omitempty"`
	Note            string   `json:"note,omitempty"`
}

type guestPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type createBookingPayload struct {
	Card  cardPayload  `json:"card"`
	Stay  stayPayload  `json:"stay"`
	Guest guestPayload `json:"guest"`
}

func NewHTTPGateway(cfg config.PaymentConfig, logger *zerolog.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry: RetryPolicy{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2,
		},
		logger: logger,
	}
}

// WithRetryPolicy replaces the default backoff.
func (g *HTTPGateway) WithRetryPolicy(p RetryPolicy) *HTTPGateway {
	g.retry = p
	return g
}

func (g *HTTPGateway) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.CreateBookingResult, error) {
	d := req.Draft
	body, err := json.Marshal(createBookingPayload{
		Card: cardPayload{
			Number:   strings.ReplaceAll(req.Payment.CardNumber, " ", ""),
			Expiry:   req.Payment.ExpiryDate,
			CVV:      req.Payment.CVV,
			Holder:   req.Payment.CardholderName,
			SaveCard: req.Payment.SaveCard,
		},
		Stay: stayPayload{
			RoomID:          d.RoomID,
			RoomName:        d.RoomName,
			CheckIn:         d.CheckIn.Format("2006-01-02"),
			CheckOut:        d.CheckOut.Format("2006-01-02"),
			Guests:          d.Guests,
			Total:           d.Pricing.Total,
			Currency:        "USD",
			SpecialRequests: d.SpecialRequests.Selected(),
			Note:            d.SpecialRequests.Note,
		},
		Guest: guestPayload{Email: req.GuestEmail, Name: req.GuestName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking request: %w", err)
	}

	var result domain.CreateBookingResult
	err = g.retry.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			g.logger.Warn().Int("attempt", attempt).Str("idempotency_key", req.IdempotencyKey).Msg("Retrying booking request")
		}
		return g.post(ctx, g.baseURL+"/bookings", req.IdempotencyKey, body, &result)
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &result, nil
}

func (g *HTTPGateway) post(ctx context.Context, endpoint, idempotencyKey string, body []byte, out *domain.CreateBookingResult) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return retryable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return retryable(fmt.Errorf("http %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		// a rejected request is a decline, the body may carry the reason
		*out = domain.CreateBookingResult{}
		_ = json.NewDecoder(resp.Body).Decode(out)
		out.Success = false
		out.BookingID = ""
		return nil
	case resp.StatusCode >= 300:
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode booking response: %w", err)
	}
	return nil
}
