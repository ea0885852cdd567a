package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/domain"
	"hotelbook/internal/events"
	"hotelbook/internal/models"
	"hotelbook/internal/payment"
	"hotelbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type wizardFixture struct {
	wizard  *Wizard
	repo    *mockRepo
	gateway *mockGateway
	state   *repository.MemoryStateRepository
	bus     *events.EventBus
	events  []string
	mu      sync.Mutex
}

func newWizardFixture(t *testing.T, cfg config.BookingConfig) *wizardFixture {
	t.Helper()
	drafts, state := newTestDrafts()
	f := &wizardFixture{
		repo:    new(mockRepo),
		gateway: new(mockGateway),
		state:   state,
		bus:     events.NewEventBus(),
	}
	for _, et := range []string{events.EventBookingCreated, events.EventPaymentFailed, events.EventBookingViewed} {
		f.bus.Subscribe(et, func(e *events.Event) error {
			f.mu.Lock()
			f.events = append(f.events, e.Type)
			f.mu.Unlock()
			return nil
		})
	}
	logger := zerolog.Nop()
	f.wizard = NewWizard(drafts, f.repo, f.gateway, f.bus, cfg, &logger)
	return f
}

func (f *wizardFixture) seedDraft(t *testing.T, visitorID string, agreed bool) *models.BookingDraft {
	t.Helper()
	draft := &models.BookingDraft{
		VisitorID:     visitorID,
		RoomID:        1,
		RoomName:      "Ocean Suite",
		CheckIn:       time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		Pricing:       models.Pricing{Nights: 3, Total: 79520},
		AgreedToTerms: agreed,
		Step:          models.StepReview,
	}
	require.NoError(t, f.state.SaveDraft(context.Background(), draft))
	return draft
}

func (f *wizardFixture) draft(t *testing.T, visitorID string) *models.BookingDraft {
	t.Helper()
	d, err := f.state.GetDraft(context.Background(), visitorID)
	require.NoError(t, err)
	return d
}

var (
	guest     = &models.User{Email: "jane@example.com", FullName: "Jane Doe"}
	validCard = models.PaymentInput{
		CardNumber:     "4242424242424242",
		ExpiryDate:     "12/25",
		CVV:            "123",
		CardholderName: "JOHN DOE",
	}
)

func TestWizard_Guards(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	anon := Visitor{ID: "anon"}

	out, err := f.wizard.EnterReview(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, "/login?returnUrl=/booking/review", out.Redirect)

	out, err = f.wizard.EnterPayment(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, "/login?returnUrl=/booking/payment", out.Redirect)

	out, err = f.wizard.SubmitPayment(ctx, anon, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/login?returnUrl=/booking/payment", out.Redirect)

	noDraft := Visitor{ID: "fresh", User: guest}
	out, err = f.wizard.EnterReview(ctx, noDraft)
	require.NoError(t, err)
	assert.Equal(t, "/rooms", out.Redirect)

	out, err = f.wizard.EnterPayment(ctx, noDraft)
	require.NoError(t, err)
	assert.Equal(t, "/rooms", out.Redirect)

	f.seedDraft(t, "v1", false)
	v := Visitor{ID: "v1", User: guest}

	out, err = f.wizard.EnterReview(ctx, v)
	require.NoError(t, err)
	assert.Empty(t, out.Redirect)
	assert.Equal(t, "Ocean Suite", out.Draft.RoomName)

	out, err = f.wizard.EnterPayment(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, "/booking/review", out.Redirect)

	out, err = f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/booking/review", out.Redirect)

	f.gateway.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestWizard_SubmitReview(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", false)

	t.Run("TermsRequired", func(t *testing.T) {
		out, err := f.wizard.SubmitReview(ctx, v, ReviewForm{
			SpecialRequests: models.SpecialRequests{EarlyCheckIn: true},
		})
		require.NoError(t, err)
		assert.Empty(t, out.Redirect)
		assert.Equal(t, MsgTermsRequired, out.Errors[FieldAgreedToTerms])

		stored := f.draft(t, "v1")
		assert.False(t, stored.AgreedToTerms)
		assert.False(t, stored.SpecialRequests.EarlyCheckIn)
	})

	t.Run("Advance", func(t *testing.T) {
		out, err := f.wizard.SubmitReview(ctx, v, ReviewForm{
			SpecialRequests: models.SpecialRequests{LateCheckOut: true, Note: "anniversary"},
			AgreedToTerms:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, "/booking/payment", out.Redirect)

		stored := f.draft(t, "v1")
		assert.True(t, stored.AgreedToTerms)
		assert.True(t, stored.SpecialRequests.LateCheckOut)
		assert.Equal(t, "anniversary", stored.SpecialRequests.Note)
		assert.Equal(t, models.StepPayment, stored.Step)

		out, err = f.wizard.EnterPayment(ctx, v)
		require.NoError(t, err)
		assert.Empty(t, out.Redirect)
	})
}

func TestWizard_SubmitPayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	f.gateway.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req domain.CreateBookingRequest) bool {
		return req.Payment.CardNumber == "4242 4242 4242 4242" &&
			req.Payment.ExpiryDate == "12 / 25" &&
			req.GuestEmail == "jane@example.com" &&
			req.Draft.RoomName == "Ocean Suite" &&
			req.IdempotencyKey != ""
	})).Return(&domain.CreateBookingResult{Success: true, BookingID: "BK-1"}, nil).Once()

	var stored *models.BookingRecord
	f.repo.On("CreateBookingRecord", mock.Anything, mock.AnythingOfType("*models.BookingRecord")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.BookingRecord) }).
		Return(nil).Once()

	out, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/BK-1", out.Redirect)

	f.gateway.AssertNumberOfCalls(t, "CreateBooking", 1)
	require.NotNil(t, stored)
	assert.Equal(t, "BK-1", stored.ID)
	assert.Equal(t, "4242", stored.CardLastFour)
	assert.Equal(t, "jane@example.com", stored.GuestEmail)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, int64(79520), stored.Pricing.Total)

	assert.Equal(t, models.StepConfirmed, f.draft(t, "v1").Step)
	assert.Equal(t, []string{events.EventBookingCreated}, f.events)

	t.Run("ConfirmationClearsDraft", func(t *testing.T) {
		f.repo.On("GetBookingRecord", mock.Anything, "BK-1").Return(stored, nil).Once()

		rec, err := f.wizard.Confirmation(ctx, v, "BK-1")
		require.NoError(t, err)
		assert.Equal(t, "BK-1", rec.ID)
		assert.Nil(t, f.draft(t, "v1"))
		assert.Contains(t, f.events, events.EventBookingViewed)
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		f.seedDraft(t, "v1", true)
		f.repo.On("GetBookingRecord", mock.Anything, "nope").Return(nil, database.ErrBookingNotFound).Once()

		_, err := f.wizard.Confirmation(ctx, v, "nope")
		assert.ErrorIs(t, err, database.ErrBookingNotFound)
		assert.NotNil(t, f.draft(t, "v1"), "draft is kept when the record is missing")
	})
}

func TestWizard_SubmitPayment_GeneratesIDWhenMissing(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	f.wizard.newID = func() string { return "generated" }
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	f.gateway.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.CreateBookingResult{Success: true}, nil).Once()
	f.repo.On("CreateBookingRecord", mock.Anything, mock.MatchedBy(func(r *models.BookingRecord) bool {
		return r.ID == "generated"
	})).Return(nil).Once()

	out, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/generated", out.Redirect)
	f.repo.AssertExpectations(t)
}

func TestWizard_SubmitPayment_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	input := validCard
	input.CardholderName = ""
	out, err := f.wizard.SubmitPayment(ctx, v, input)
	require.NoError(t, err)

	assert.Empty(t, out.Redirect)
	assert.Equal(t, payment.FieldErrors{payment.FieldCardholderName: "Please enter cardholder name"}, out.Errors)
	assert.Equal(t, "4242 4242 4242 4242", out.Payment.CardNumber)
	assert.Empty(t, out.Payment.CVV)
	f.gateway.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestWizard_SubmitPayment_Declined(t *testing.T) {
	ctx := context.Background()

	t.Run("WithMessage", func(t *testing.T) {
		f := newWizardFixture(t, config.BookingConfig{})
		v := Visitor{ID: "v1", User: guest}
		f.seedDraft(t, "v1", true)
		f.gateway.On("CreateBooking", mock.Anything, mock.Anything).
			Return(&domain.CreateBookingResult{Success: false, Error: "Your card was declined."}, nil).Once()

		out, err := f.wizard.SubmitPayment(ctx, v, validCard)
		require.NoError(t, err)
		assert.Equal(t, "/booking/failed", out.Redirect)
		assert.Equal(t, "Your card was declined.", f.wizard.FailedMessage(ctx, v))

		d := f.draft(t, "v1")
		assert.Equal(t, models.StepFailed, d.Step)
		assert.Equal(t, "Your card was declined.", d.PaymentError)
		assert.True(t, d.AgreedToTerms)
		assert.Equal(t, []string{events.EventPaymentFailed}, f.events)
		f.repo.AssertNotCalled(t, "CreateBookingRecord", mock.Anything, mock.Anything)
	})

	t.Run("DefaultMessage", func(t *testing.T) {
		f := newWizardFixture(t, config.BookingConfig{})
		v := Visitor{ID: "v1", User: guest}
		f.seedDraft(t, "v1", true)
		f.gateway.On("CreateBooking", mock.Anything, mock.Anything).
			Return(&domain.CreateBookingResult{Success: false}, nil).Once()

		out, err := f.wizard.SubmitPayment(ctx, v, validCard)
		require.NoError(t, err)
		assert.Equal(t, "/booking/failed", out.Redirect)
		assert.Equal(t, models.DefaultDeclineMessage, f.wizard.FailedMessage(ctx, v))
	})

	t.Run("TransportError", func(t *testing.T) {
		f := newWizardFixture(t, config.BookingConfig{})
		v := Visitor{ID: "v1", User: guest}
		f.seedDraft(t, "v1", true)
		f.gateway.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		out, err := f.wizard.SubmitPayment(ctx, v, validCard)
		require.NoError(t, err)
		assert.Equal(t, "/booking/failed", out.Redirect)
		assert.Equal(t, models.DefaultDeclineMessage, f.wizard.FailedMessage(ctx, v))
	})
}

func TestWizard_FailedMessage(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}

	assert.Equal(t, models.DefaultDeclineMessage, f.wizard.FailedMessage(ctx, v), "no draft")

	draft := f.seedDraft(t, "v1", true)
	draft.PaymentError = "Card expired"
	require.NoError(t, f.state.SaveDraft(ctx, draft))
	assert.Equal(t, models.DefaultDeclineMessage, f.wizard.FailedMessage(ctx, v), "draft not in failed step")

	draft.Step = models.StepFailed
	require.NoError(t, f.state.SaveDraft(ctx, draft))
	assert.Equal(t, "Card expired", f.wizard.FailedMessage(ctx, v))
}

func TestWizard_SubmitPayment_StoreError(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	f.gateway.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.CreateBookingResult{Success: true, BookingID: "BK-9"}, nil).Once()
	f.repo.On("CreateBookingRecord", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := f.wizard.SubmitPayment(ctx, v, validCard)
	assert.Error(t, err)
	assert.Empty(t, f.events)
}

func TestWizard_SubmitPayment_RateLimited(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{AttemptsLimit: 2, AttemptsWindow: time.Minute})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	f.gateway.On("CreateBooking", mock.Anything, mock.Anything).Return(&domain.CreateBookingResult{Success: false}, nil).Twice()

	for i := 0; i < 2; i++ {
		out, err := f.wizard.SubmitPayment(ctx, v, validCard)
		require.NoError(t, err)
		assert.Contains(t, out.Redirect, "/booking/failed")
	}

	out, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Empty(t, out.Redirect)
	assert.Equal(t, MsgTooManyAttempts, out.FormError)
	f.gateway.AssertNumberOfCalls(t, "CreateBooking", 2)
}

func TestWizard_SubmitPayment_AfterSuccess(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	f.gateway.On("CreateBooking", mock.Anything, mock.Anything).
		Return(&domain.CreateBookingResult{Success: true, BookingID: "BK-1"}, nil).Once()
	f.repo.On("CreateBookingRecord", mock.Anything, mock.Anything).Return(nil).Once()

	first, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/BK-1", first.Redirect)
	assert.Equal(t, "BK-1", f.draft(t, "v1").BookingID)

	second, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/BK-1", second.Redirect)

	out, err := f.wizard.EnterPayment(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/BK-1", out.Redirect)

	out, err = f.wizard.SubmitReview(ctx, v, ReviewForm{AgreedToTerms: true})
	require.NoError(t, err)
	assert.Equal(t, "/booking/confirmation/BK-1", out.Redirect)

	f.gateway.AssertNumberOfCalls(t, "CreateBooking", 1)
	f.repo.AssertNumberOfCalls(t, "CreateBookingRecord", 1)
	assert.Equal(t, []string{events.EventBookingCreated}, f.events)
}

func TestWizard_SubmitPayment_DuplicateSubmit(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t, config.BookingConfig{})
	v := Visitor{ID: "v1", User: guest}
	f.seedDraft(t, "v1", true)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.gateway.On("CreateBooking", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&domain.CreateBookingResult{Success: false}, nil).Once()

	done := make(chan *Outcome, 1)
	go func() {
		out, _ := f.wizard.SubmitPayment(ctx, v, validCard)
		done <- out
	}()

	<-entered
	out, err := f.wizard.SubmitPayment(ctx, v, validCard)
	require.NoError(t, err)
	assert.Equal(t, MsgPaymentInFlight, out.FormError)

	close(release)
	first := <-done
	require.NotNil(t, first)
	assert.Contains(t, first.Redirect, "/booking/failed")
	f.gateway.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, models.DefaultDeclineMessage, FailureMessage(""))
	assert.Equal(t, "Card expired", FailureMessage("Card expired"))
}
