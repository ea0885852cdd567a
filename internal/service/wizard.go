package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/domain"
	"hotelbook/internal/events"
	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
	"hotelbook/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Wizard pages.
const (
	PathRooms        = "/rooms"
	PathReview       = "/booking/review"
	PathPayment      = "/booking/payment"
	PathFailed       = "/booking/failed"
	PathConfirmation = "/booking/confirmation/"
)

const (
	FieldAgreedToTerms = "agreedToTerms"
	MsgTermsRequired   = "Please agree to the terms and conditions to continue"
	MsgPaymentInFlight = "Your payment is already being processed"
	MsgTooManyAttempts = "Too many payment attempts, please wait a minute and try again"

	paymentRateLimitName = "payment"
)

// Visitor is the browser making the request. User is nil when not logged in.
type Visitor struct {
	ID   string
	User *models.User
}

func (v Visitor) Authenticated() bool {
	return v.User != nil
}

// Outcome is what a wizard step resolved to: either a redirect or a page to
// render with the draft and any errors.
type Outcome struct {
	Redirect  string
	Draft     *models.BookingDraft
	Errors    payment.FieldErrors
	FormError string
	Payment   models.PaymentInput
}

// ReviewForm is the submitted Review page.
type ReviewForm struct {
	SpecialRequests models.SpecialRequests
	AgreedToTerms   bool
}

type Wizard struct {
	drafts         *DraftService
	repo           domain.Repository
	gateway        domain.PaymentGateway
	eventBus       domain.EventPublisher
	attemptsLimit  int
	attemptsWindow time.Duration
	logger         *zerolog.Logger

	inFlight sync.Map // visitor id -> struct{}
	newID    func() string
}

func NewWizard(
	drafts *DraftService,
	repo domain.Repository,
	gateway domain.PaymentGateway,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *Wizard {
	limit := cfg.AttemptsLimit
	if limit <= 0 {
		limit = models.PaymentAttemptsLimit
	}
	window := cfg.AttemptsWindow
	if window <= 0 {
		window = models.PaymentAttemptsWindow * time.Second
	}
	return &Wizard{
		drafts:         drafts,
		repo:           repo,
		gateway:        gateway,
		eventBus:       eventBus,
		attemptsLimit:  limit,
		attemptsWindow: window,
		logger:         logger,
		newID:          uuid.NewString,
	}
}

func redirect(to string) *Outcome {
	return &Outcome{Redirect: to}
}

// loadDraft applies the checks shared by Review and Payment. A non-nil
// outcome means the caller must redirect.
func (w *Wizard) loadDraft(ctx context.Context, v Visitor, step, page string) (*models.BookingDraft, *Outcome, error) {
	if !v.Authenticated() {
		metrics.IncWizard(step, "redirect_login")
		return nil, redirect(LoginRedirect(page)), nil
	}
	draft, err := w.drafts.Get(ctx, v.ID)
	if err != nil {
		return nil, nil, err
	}
	if !draft.HasRoom() {
		metrics.IncWizard(step, "redirect_rooms")
		return nil, redirect(PathRooms), nil
	}
	if out := paidRedirect(draft); out != nil {
		metrics.IncWizard(step, "redirect_confirmation")
		return nil, out, nil
	}
	return draft, nil, nil
}

// paidRedirect sends a draft that has already been paid for to its
// confirmation page so the booking cannot be charged twice.
func paidRedirect(draft *models.BookingDraft) *Outcome {
	if draft == nil || draft.Step != models.StepConfirmed || draft.BookingID == "" {
		return nil
	}
	return redirect(PathConfirmation + url.PathEscape(draft.BookingID))
}

func (w *Wizard) loadPaymentDraft(ctx context.Context, v Visitor) (*models.BookingDraft, *Outcome, error) {
	draft, out, err := w.loadDraft(ctx, v, models.StepPayment, PathPayment)
	if err != nil || out != nil {
		return nil, out, err
	}
	if !draft.AgreedToTerms {
		metrics.IncWizard(models.StepPayment, "redirect_review")
		return nil, redirect(PathReview), nil
	}
	return draft, nil, nil
}

func (w *Wizard) EnterReview(ctx context.Context, v Visitor) (*Outcome, error) {
	draft, out, err := w.loadDraft(ctx, v, models.StepReview, PathReview)
	if err != nil || out != nil {
		return out, err
	}
	metrics.IncWizard(models.StepReview, "render")
	return &Outcome{Draft: draft}, nil
}

// SubmitReview records special requests and terms acceptance and moves on to
// Payment. Without terms acceptance the draft is left untouched.
func (w *Wizard) SubmitReview(ctx context.Context, v Visitor, form ReviewForm) (*Outcome, error) {
	draft, out, err := w.loadDraft(ctx, v, models.StepReview, PathReview)
	if err != nil || out != nil {
		return out, err
	}

	if !form.AgreedToTerms {
		metrics.IncWizard(models.StepReview, "invalid")
		return &Outcome{
			Draft:  draft,
			Errors: payment.FieldErrors{FieldAgreedToTerms: MsgTermsRequired},
		}, nil
	}

	draft.SpecialRequests = form.SpecialRequests
	draft.AgreedToTerms = true
	draft.Step = models.StepPayment
	if err := w.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	metrics.IncWizard(models.StepReview, "advance")
	return redirect(PathPayment), nil
}

func (w *Wizard) EnterPayment(ctx context.Context, v Visitor) (*Outcome, error) {
	draft, out, err := w.loadPaymentDraft(ctx, v)
	if err != nil || out != nil {
		return out, err
	}
	metrics.IncWizard(models.StepPayment, "render")
	return &Outcome{Draft: draft}, nil
}

// SubmitPayment validates the card form and calls the payment gateway at most
// once. Gateway declines and errors route to the Failed page.
func (w *Wizard) SubmitPayment(ctx context.Context, v Visitor, input models.PaymentInput) (*Outcome, error) {
	draft, out, err := w.loadPaymentDraft(ctx, v)
	if err != nil || out != nil {
		return out, err
	}

	in := payment.Normalize(input)
	echo := in
	echo.CVV = ""

	if errs := payment.ValidateNormalized(in); len(errs) > 0 {
		metrics.IncPayment("invalid")
		return &Outcome{Draft: draft, Errors: errs, Payment: echo}, nil
	}

	if _, busy := w.inFlight.LoadOrStore(v.ID, struct{}{}); busy {
		metrics.IncPayment("duplicate")
		return &Outcome{Draft: draft, FormError: MsgPaymentInFlight, Payment: echo}, nil
	}
	defer w.inFlight.Delete(v.ID)

	// a submit that loaded the draft before an earlier one finished
	current, err := w.drafts.Get(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if out := paidRedirect(current); out != nil {
		metrics.IncPayment("duplicate")
		return out, nil
	}

	allowed, err := w.drafts.Allow(ctx, paymentRateLimitName, v.ID, w.attemptsLimit, w.attemptsWindow)
	if err != nil {
		return nil, fmt.Errorf("payment rate limit: %w", err)
	}
	if !allowed {
		metrics.IncPayment("rate_limited")
		return &Outcome{Draft: draft, FormError: MsgTooManyAttempts, Payment: echo}, nil
	}

	res, err := w.gateway.CreateBooking(ctx, domain.CreateBookingRequest{
		IdempotencyKey: w.newID(),
		Payment:        in,
		Draft:          *draft,
		GuestEmail:     v.User.Email,
		GuestName:      v.User.FullName,
	})
	if err != nil {
		w.logger.Error().Err(err).Str("visitor_id", v.ID).Msg("payment gateway call failed")
		metrics.IncPayment("error")
		return w.fail(ctx, v, draft, "")
	}
	if !res.Success {
		metrics.IncPayment("declined")
		return w.fail(ctx, v, draft, res.Error)
	}

	bookingID := res.BookingID
	if bookingID == "" {
		bookingID = w.newID()
	}
	record := models.NewBookingRecord(bookingID, draft, v.User, payment.LastFour(in.CardNumber))
	if err := w.repo.CreateBookingRecord(ctx, record); err != nil {
		// the card has been charged at this point
		w.logger.Error().Err(err).Str("booking_id", bookingID).Str("visitor_id", v.ID).Msg("failed to store paid booking")
		return nil, fmt.Errorf("store booking %s: %w", bookingID, err)
	}

	draft.Step = models.StepConfirmed
	draft.PaymentError = ""
	draft.BookingID = bookingID
	if err := w.drafts.Save(ctx, draft); err != nil {
		w.logger.Warn().Err(err).Str("visitor_id", v.ID).Msg("failed to mark draft confirmed")
	}

	w.publish(events.EventBookingCreated, v, draft, bookingID, "")
	metrics.IncPayment("success")
	w.logger.Info().Str("booking_id", bookingID).Str("guest", v.User.Email).Int64("total", record.Pricing.Total).Msg("Booking confirmed")
	return redirect(PathConfirmation + url.PathEscape(bookingID)), nil
}

func (w *Wizard) fail(ctx context.Context, v Visitor, draft *models.BookingDraft, message string) (*Outcome, error) {
	message = FailureMessage(message)
	draft.Step = models.StepFailed
	draft.PaymentError = message
	if err := w.drafts.Save(ctx, draft); err != nil {
		w.logger.Warn().Err(err).Str("visitor_id", draft.VisitorID).Msg("failed to record payment error")
	}
	w.publish(events.EventPaymentFailed, v, draft, "", message)
	return redirect(PathFailed), nil
}

// FailedMessage is the message recorded on the visitor's draft by the last
// declined payment, or the default decline text.
func (w *Wizard) FailedMessage(ctx context.Context, v Visitor) string {
	draft, err := w.drafts.Get(ctx, v.ID)
	if err != nil {
		w.logger.Warn().Err(err).Str("visitor_id", v.ID).Msg("failed to load draft for failed page")
		return FailureMessage("")
	}
	if draft == nil || draft.Step != models.StepFailed {
		return FailureMessage("")
	}
	return FailureMessage(draft.PaymentError)
}

// Confirmation loads a stored booking and clears the visitor's draft.
func (w *Wizard) Confirmation(ctx context.Context, v Visitor, bookingID string) (*models.BookingRecord, error) {
	record, err := w.repo.GetBookingRecord(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := w.drafts.Clear(ctx, v.ID); err != nil {
		w.logger.Warn().Err(err).Str("visitor_id", v.ID).Msg("failed to clear draft")
	}
	metrics.IncWizard(models.StepConfirmed, "render")

	w.emit(events.EventBookingViewed, events.BookingEventPayload{
		BookingID:  record.ID,
		VisitorID:  v.ID,
		GuestEmail: record.GuestEmail,
		GuestName:  record.GuestName,
		RoomID:     record.RoomID,
		RoomName:   record.RoomName,
		CheckIn:    record.CheckIn,
		CheckOut:   record.CheckOut,
		Guests:     record.Guests,
		Total:      record.Pricing.Total,
	})
	return record, nil
}

// FailureMessage is the text shown on the Failed page.
func FailureMessage(message string) string {
	if message == "" {
		return models.DefaultDeclineMessage
	}
	return message
}

func (w *Wizard) publish(eventType string, v Visitor, draft *models.BookingDraft, bookingID, errMsg string) {
	payload := events.BookingEventPayload{
		BookingID: bookingID,
		VisitorID: v.ID,
		RoomID:    draft.RoomID,
		RoomName:  draft.RoomName,
		CheckIn:   draft.CheckIn,
		CheckOut:  draft.CheckOut,
		Guests:    draft.Guests,
		Total:     draft.Pricing.Total,
		Error:     errMsg,
	}
	if v.User != nil {
		payload.GuestEmail = v.User.Email
		payload.GuestName = v.User.FullName
	}
	w.emit(eventType, payload)
}

func (w *Wizard) emit(eventType string, payload events.BookingEventPayload) {
	if w.eventBus == nil {
		return
	}
	if err := w.eventBus.PublishJSON(eventType, payload); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", payload.BookingID).Msg("publish event error")
	}
}
