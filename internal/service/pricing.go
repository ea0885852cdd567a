package service

import (
	"time"

	"hotelbook/internal/models"
)

// percentOf rounds half up; amounts are never negative.
func percentOf(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}

// CalculatePricing prices a stay in room between the two dates.
func CalculatePricing(room models.Room, checkIn, checkOut time.Time) models.Pricing {
	nights := models.Nights(checkIn, checkOut)
	if nights < 0 {
		nights = 0
	}
	n := int64(nights)

	p := models.Pricing{
		BasePrice:   room.BasePrice,
		Nights:      nights,
		Subtotal:    room.BasePrice * n,
		CleaningFee: room.CleaningFee,
	}
	p.ServiceFee = percentOf(p.Subtotal, models.ServiceFeePercent)
	p.Taxes = percentOf(p.Subtotal+p.CleaningFee+p.ServiceFee, models.TaxPercent)
	p.Total = p.Subtotal + p.CleaningFee + p.ServiceFee + p.Taxes
	if room.HasDiscount() {
		p.Savings = (room.OriginalPrice - room.BasePrice) * n
	}
	return p
}
