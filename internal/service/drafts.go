package service

import (
	"context"
	"time"

	"hotelbook/internal/domain"
	"hotelbook/internal/models"

	"github.com/rs/zerolog"
)

// DraftService owns the per-visitor booking draft.
type DraftService struct {
	stateRepo domain.StateRepository
	rooms     domain.RoomCatalog
	maxNights int
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewDraftService(stateRepo domain.StateRepository, rooms domain.RoomCatalog, maxNights int, logger *zerolog.Logger) *DraftService {
	if maxNights <= 0 {
		maxNights = models.MaxStayNights
	}
	return &DraftService{
		stateRepo: stateRepo,
		rooms:     rooms,
		maxNights: maxNights,
		logger:    logger,
		now:       time.Now,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SelectRoom starts a new draft for the visitor, replacing any previous one.
func (s *DraftService) SelectRoom(ctx context.Context, visitorID string, roomID int64, checkIn, checkOut time.Time, guests int) (*models.BookingDraft, error) {
	room, ok := s.rooms.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	checkIn, checkOut = dateOnly(checkIn), dateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidDates
	}
	if checkIn.Before(dateOnly(s.now().UTC())) {
		return nil, ErrPastDate
	}
	if models.Nights(checkIn, checkOut) > s.maxNights {
		return nil, ErrStayTooLong
	}
	if guests < 1 || (room.MaxGuests > 0 && guests > room.MaxGuests) {
		return nil, ErrInvalidGuests
	}

	now := s.now().UTC()
	draft := &models.BookingDraft{
		VisitorID:    visitorID,
		RoomID:       room.ID,
		RoomName:     room.Name,
		RoomImage:    room.Image,
		RoomCategory: room.Category,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Guests:       guests,
		Pricing:      CalculatePricing(room, checkIn, checkOut),
		Step:         models.StepReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.stateRepo.SaveDraft(ctx, draft); err != nil {
		s.logger.Error().Err(err).Str("visitor_id", visitorID).Msg("failed to save draft")
		return nil, err
	}
	return draft, nil
}

// Get returns the visitor's draft or nil when there is none.
func (s *DraftService) Get(ctx context.Context, visitorID string) (*models.BookingDraft, error) {
	draft, err := s.stateRepo.GetDraft(ctx, visitorID)
	if err != nil {
		s.logger.Error().Err(err).Str("visitor_id", visitorID).Msg("failed to get draft")
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) Save(ctx context.Context, draft *models.BookingDraft) error {
	draft.UpdatedAt = s.now().UTC()
	if err := s.stateRepo.SaveDraft(ctx, draft); err != nil {
		s.logger.Error().Err(err).Str("visitor_id", draft.VisitorID).Msg("failed to save draft")
		return err
	}
	return nil
}

func (s *DraftService) Clear(ctx context.Context, visitorID string) error {
	return s.stateRepo.ClearDraft(ctx, visitorID)
}

// Allow counts one attempt of action for the visitor against the limit.
func (s *DraftService) Allow(ctx context.Context, action, visitorID string, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, action+":"+visitorID, limit, window)
}
