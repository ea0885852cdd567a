package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotelbook/internal/models"
	"hotelbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)

func newTestDrafts() (*DraftService, *repository.MemoryStateRepository) {
	state := repository.NewMemoryStateRepository(time.Hour)
	logger := zerolog.Nop()
	s := NewDraftService(state, NewRoomCatalog(testRooms), 14, &logger)
	s.now = func() time.Time { return testNow }
	return s, state
}

func TestDraftService_SelectRoom(t *testing.T) {
	ctx := context.Background()
	checkIn := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		s, state := newTestDrafts()
		draft, err := s.SelectRoom(ctx, "v1", 1, checkIn, checkIn.AddDate(0, 0, 3), 2)
		require.NoError(t, err)

		assert.Equal(t, "Ocean Suite", draft.RoomName)
		assert.Equal(t, "Suite", draft.RoomCategory)
		assert.Equal(t, "/static/img/ocean.jpg", draft.RoomImage)
		assert.Equal(t, 3, draft.Pricing.Nights)
		assert.Equal(t, int64(79520), draft.Pricing.Total)
		assert.Equal(t, models.StepReview, draft.Step)
		assert.False(t, draft.AgreedToTerms)

		stored, err := state.GetDraft(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, draft, stored)
	})

	t.Run("ReplacesPreviousDraft", func(t *testing.T) {
		s, _ := newTestDrafts()
		require.NoError(t, s.Save(ctx, &models.BookingDraft{VisitorID: "v2", RoomID: 2, AgreedToTerms: true}))

		draft, err := s.SelectRoom(ctx, "v2", 3, checkIn, checkIn.AddDate(0, 0, 1), 4)
		require.NoError(t, err)
		assert.Equal(t, int64(3), draft.RoomID)
		assert.False(t, draft.AgreedToTerms)
	})

	t.Run("CheckInToday", func(t *testing.T) {
		s, _ := newTestDrafts()
		_, err := s.SelectRoom(ctx, "v3", 2, testNow, testNow.AddDate(0, 0, 1), 1)
		assert.NoError(t, err)
	})

	errCases := []struct {
		name     string
		roomID   int64
		in, out  time.Time
		guests   int
		expected error
	}{
		{"UnknownRoom", 42, checkIn, checkIn.AddDate(0, 0, 1), 1, ErrRoomNotFound},
		{"SameDay", 1, checkIn, checkIn.Add(5 * time.Hour), 1, ErrInvalidDates},
		{"Inverted", 1, checkIn, checkIn.AddDate(0, 0, -1), 1, ErrInvalidDates},
		{"Past", 1, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1), 1, ErrPastDate},
		{"TooLong", 1, checkIn, checkIn.AddDate(0, 0, 15), 1, ErrStayTooLong},
		{"NoGuests", 1, checkIn, checkIn.AddDate(0, 0, 1), 0, ErrInvalidGuests},
		{"TooManyGuests", 1, checkIn, checkIn.AddDate(0, 0, 1), 3, ErrInvalidGuests},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			s, state := newTestDrafts()
			_, err := s.SelectRoom(ctx, "v", tc.roomID, tc.in, tc.out, tc.guests)
			assert.True(t, errors.Is(err, tc.expected), "got %v", err)

			stored, _ := state.GetDraft(ctx, "v")
			assert.Nil(t, stored)
		})
	}
}

func TestDraftService_ClearAndAllow(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDrafts()

	require.NoError(t, s.Save(ctx, &models.BookingDraft{VisitorID: "v", RoomID: 1}))
	require.NoError(t, s.Clear(ctx, "v"))
	draft, err := s.Get(ctx, "v")
	require.NoError(t, err)
	assert.Nil(t, draft)

	ok, err := s.Allow(ctx, "payment", "v", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.Allow(ctx, "payment", "v", 1, time.Minute)
	assert.False(t, ok)
	ok, _ = s.Allow(ctx, "payment", "other", 1, time.Minute)
	assert.True(t, ok)
}
