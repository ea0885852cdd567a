package domain

import (
	"context"
	"time"

	"hotelbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository is the durable store for accounts and booking records.
type Repository interface {
	CreateBookingRecord(ctx context.Context, record *models.BookingRecord) error
	GetBookingRecord(ctx context.Context, id string) (*models.BookingRecord, error)
	ListBookingRecords(ctx context.Context, from, to time.Time) ([]*models.BookingRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
}

// StateRepository keeps per-visitor wizard state.
type StateRepository interface {
	GetDraft(ctx context.Context, visitorID string) (*models.BookingDraft, error)
	SaveDraft(ctx context.Context, draft *models.BookingDraft) error
	ClearDraft(ctx context.Context, visitorID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RoomCatalog resolves rooms shown on the site.
type RoomCatalog interface {
	ListRooms() []models.Room
	GetRoom(id int64) (models.Room, bool)
}

// CreateBookingRequest is sent to the payment/booking collaborator.
type CreateBookingRequest struct {
	IdempotencyKey string              `json:"-"`
	Payment        models.PaymentInput `json:"-"`
	Draft          models.BookingDraft `json:"-"`
	GuestEmail     string              `json:"-"`
	GuestName      string              `json:"-"`
}

// CreateBookingResult mirrors `{success, bookingId?}` plus an optional decline message.
type CreateBookingResult struct {
	Success   bool   `json:"success"`
	BookingID string `json:"bookingId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PaymentGateway is the sole boundary to the payment/booking backend.
type PaymentGateway interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
