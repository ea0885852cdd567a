package gateway

import (
	"context"
	"strings"

	"hotelbook/internal/domain"

	"github.com/google/uuid"
)

// DeclinedTestCard is always declined by SimulatedGateway.
const DeclinedTestCard = "4000000000000002"

// SimulatedGateway approves every card except DeclinedTestCard. It is the
// development default when no backend is configured.
type SimulatedGateway struct{}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.CreateBookingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ReplaceAll(req.Payment.CardNumber, " ", "") == DeclinedTestCard {
		return &domain.CreateBookingResult{Success: false, Error: "Your card was declined."}, nil
	}
	return &domain.CreateBookingResult{Success: true, BookingID: uuid.NewString()}, nil
}
