package service

import (
	"context"
	"time"

	"hotelbook/internal/domain"
	"hotelbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBookingRecord(ctx context.Context, record *models.BookingRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepo) GetBookingRecord(ctx context.Context, id string) (*models.BookingRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingRecord), args.Error(1)
}

func (m *mockRepo) ListBookingRecords(ctx context.Context, from, to time.Time) ([]*models.BookingRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BookingRecord), args.Error(1)
}

func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.CreateBookingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateBookingResult), args.Error(1)
}

var testRooms = []models.Room{
	{ID: 3, Name: "Family Loft", Category: "Loft", BasePrice: 30000, CleaningFee: 6000, MaxGuests: 5, SortOrder: 2},
	{ID: 1, Name: "Ocean Suite", Category: "Suite", Image: "/static/img/ocean.jpg", BasePrice: 20000, OriginalPrice: 25000, CleaningFee: 5000, MaxGuests: 2, SortOrder: 1, Featured: true},
	{ID: 2, Name: "Garden Room", Category: "Standard", BasePrice: 12000, CleaningFee: 3000, MaxGuests: 2, SortOrder: 1},
}
