package service

import (
	"testing"
	"time"

	"hotelbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePricing(t *testing.T) {
	in := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("WithDiscount", func(t *testing.T) {
		room := models.Room{BasePrice: 20000, OriginalPrice: 25000, CleaningFee: 5000}
		p := CalculatePricing(room, in, in.AddDate(0, 0, 3))

		assert.Equal(t, models.Pricing{
			BasePrice:   20000,
			Nights:      3,
			Subtotal:    60000,
			CleaningFee: 5000,
			ServiceFee:  6000,
			Taxes:       8520,
			Total:       79520,
			Savings:     15000,
		}, p)
	})

	t.Run("Rounding", func(t *testing.T) {
		p := CalculatePricing(models.Room{BasePrice: 1234}, in, in.AddDate(0, 0, 1))
		assert.Equal(t, int64(123), p.ServiceFee)
		assert.Equal(t, int64(163), p.Taxes)
		assert.Equal(t, int64(1520), p.Total)
		assert.Zero(t, p.Savings)
	})

	t.Run("InvertedDates", func(t *testing.T) {
		p := CalculatePricing(models.Room{BasePrice: 1000, CleaningFee: 500}, in, in.AddDate(0, 0, -2))
		assert.Equal(t, 0, p.Nights)
		assert.Zero(t, p.Subtotal)
		assert.Equal(t, p.CleaningFee+p.Taxes, p.Total)
	})
}

func TestRoomCatalog(t *testing.T) {
	c := NewRoomCatalog(testRooms)

	rooms := c.ListRooms()
	assert.Equal(t, []int64{1, 2, 3}, []int64{rooms[0].ID, rooms[1].ID, rooms[2].ID})

	rooms[0].Name = "changed"
	r, ok := c.GetRoom(1)
	assert.True(t, ok)
	assert.Equal(t, "Ocean Suite", r.Name)

	_, ok = c.GetRoom(99)
	assert.False(t, ok)

	featured := c.Featured()
	assert.Len(t, featured, 1)
	assert.Equal(t, int64(1), featured[0].ID)

	plain := NewRoomCatalog([]models.Room{{ID: 5}, {ID: 4}})
	assert.Len(t, plain.Featured(), 2)
	assert.Empty(t, NewRoomCatalog(nil).Featured())
}
