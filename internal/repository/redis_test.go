package repository

import (
	"context"
	"testing"
	"time"

	"hotelbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetDraft", func(t *testing.T) {
		draft := &models.BookingDraft{
			VisitorID: "v-123",
			RoomID:    3,
			RoomName:  "Ocean Suite",
			CheckIn:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:  time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
			Guests:    2,
			Pricing:   models.Pricing{Nights: 3, Total: 98700},
			SpecialRequests: models.SpecialRequests{
				LateCheckOut: true,
				Note:         "honeymoon",
			},
		}

		require.NoError(t, repo.SaveDraft(ctx, draft))
		assert.True(t, s.Exists("bookingData:v-123"))
		assert.Equal(t, time.Hour, s.TTL("bookingData:v-123"))

		got, err := repo.GetDraft(ctx, "v-123")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draft.RoomName, got.RoomName)
		assert.Equal(t, draft.Pricing, got.Pricing)
		assert.True(t, draft.CheckIn.Equal(got.CheckIn))
		assert.Equal(t, draft.SpecialRequests, got.SpecialRequests)
	})

	t.Run("GetMissingDraft", func(t *testing.T) {
		got, err := repo.GetDraft(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearDraft", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, &models.BookingDraft{VisitorID: "v-456"}))
		require.NoError(t, repo.ClearDraft(ctx, "v-456"))

		got, err := repo.GetDraft(ctx, "v-456")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptedDraft", func(t *testing.T) {
		require.NoError(t, s.Set("bookingData:bad", "{not json"))
		_, err := repo.GetDraft(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "payment:v-789"
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetDraft(ctx, "v")
		assert.ErrorIs(t, err, errNilClient)
		assert.ErrorIs(t, repo.SaveDraft(ctx, &models.BookingDraft{}), errNilClient)
		assert.ErrorIs(t, repo.ClearDraft(ctx, "v"), errNilClient)
		_, err = repo.CheckRateLimit(ctx, "v", 1, time.Second)
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
		defer down.Close()
		repo := NewRedisStateRepository(down, time.Hour)
		_, err := repo.GetDraft(ctx, "v")
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, down))
	})
}
