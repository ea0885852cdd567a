package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"hotelbook/internal/database"
	"hotelbook/internal/models"
	"hotelbook/internal/service"
)

const (
	dateLayout        = "2006-01-02"
	maxNoteLength     = 500
	loginAttemptLimit = 10
	loginAddressLimit = 50
	loginAttemptName  = "login"
	msgBadCredentials = "Invalid email or password"
	msgTooManyLogins  = "Too many login attempts, please wait a minute and try again"
)

// defaultStay is tomorrow for two nights.
func defaultStay() (string, string) {
	in := time.Now().UTC().AddDate(0, 0, 1)
	return in.Format(dateLayout), in.AddDate(0, 0, 2).Format(dateLayout)
}

func (s *HTTPServer) handleHome(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut := defaultStay()
	s.render(w, r, http.StatusOK, pageHome, homeView{
		layoutData: s.layout(r, ""),
		Featured:   s.deps.Rooms.Featured(),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
}

func (s *HTTPServer) roomsPage(r *http.Request, errMsg string) roomsView {
	checkIn, checkOut := defaultStay()
	return roomsView{
		layoutData: s.layout(r, "Rooms"),
		Rooms:      s.deps.Rooms.ListRooms(),
		Error:      errMsg,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     1,
	}
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageRooms, s.roomsPage(r, ""))
}

func (s *HTTPServer) handleSelectRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, pageRooms, s.roomsPage(r, "Invalid form submission"))
		return
	}

	checkIn, err1 := time.Parse(dateLayout, r.FormValue("checkIn"))
	checkOut, err2 := time.Parse(dateLayout, r.FormValue("checkOut"))
	if err1 != nil || err2 != nil {
		s.render(w, r, http.StatusBadRequest, pageRooms, s.roomsPage(r, "Please choose valid check-in and check-out dates"))
		return
	}
	guests, err := strconv.Atoi(strings.TrimSpace(r.FormValue("guests")))
	if err != nil {
		s.render(w, r, http.StatusBadRequest, pageRooms, s.roomsPage(r, "Please enter the number of guests"))
		return
	}

	v := visitorFrom(r.Context())
	_, err = s.deps.Drafts.SelectRoom(r.Context(), v.ID, roomID, checkIn, checkOut, guests)
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		s.handleNotFound(w, r)
	case errors.Is(err, service.ErrInvalidDates),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrStayTooLong),
		errors.Is(err, service.ErrInvalidGuests):
		s.render(w, r, http.StatusBadRequest, pageRooms, s.roomsPage(r, capitalize(err.Error())))
	case err != nil:
		s.serverError(w, r, err)
	default:
		http.Redirect(w, r, service.PathReview, http.StatusSeeOther)
	}
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

// outcomeStatus is 422 when the page is re-rendered with errors.
func outcomeStatus(out *service.Outcome) int {
	if len(out.Errors) > 0 || out.FormError != "" {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func (s *HTTPServer) renderReview(w http.ResponseWriter, r *http.Request, out *service.Outcome, err error) {
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	s.render(w, r, outcomeStatus(out), pageReview, reviewView{
		layoutData: s.layout(r, "Review"),
		Draft:      out.Draft,
		Errors:     out.Errors,
	})
}

func (s *HTTPServer) handleReview(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Wizard.EnterReview(r.Context(), visitorFrom(r.Context()))
	s.renderReview(w, r, out, err)
}

func (s *HTTPServer) handleReviewSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := service.ReviewForm{
		SpecialRequests: models.SpecialRequests{
			EarlyCheckIn:  checked(r, "earlyCheckIn"),
			LateCheckOut:  checked(r, "lateCheckOut"),
			AirportPickup: checked(r, "airportPickup"),
			HighFloor:     checked(r, "highFloor"),
			ExtraPillows:  checked(r, "extraPillows"),
			Note:          truncate(strings.TrimSpace(r.FormValue("note")), maxNoteLength),
		},
		AgreedToTerms: checked(r, service.FieldAgreedToTerms),
	}
	out, err := s.deps.Wizard.SubmitReview(r.Context(), visitorFrom(r.Context()), form)
	s.renderReview(w, r, out, err)
}

func checked(r *http.Request, name string) bool {
	v := r.FormValue(name)
	return v != "" && v != "false"
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func (s *HTTPServer) renderPayment(w http.ResponseWriter, r *http.Request, out *service.Outcome, err error) {
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	s.render(w, r, outcomeStatus(out), pagePayment, paymentView{
		layoutData: s.layout(r, "Payment"),
		Draft:      out.Draft,
		Errors:     out.Errors,
		FormError:  out.FormError,
		Payment:    out.Payment,
	})
}

func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Wizard.EnterPayment(r.Context(), visitorFrom(r.Context()))
	s.renderPayment(w, r, out, err)
}

func (s *HTTPServer) handlePaymentSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	input := models.PaymentInput{
		CardNumber:     r.FormValue("cardNumber"),
		ExpiryDate:     r.FormValue("expiryDate"),
		CVV:            r.FormValue("cvv"),
		CardholderName: r.FormValue("cardholderName"),
		SaveCard:       checked(r, "saveCard"),
	}
	out, err := s.deps.Wizard.SubmitPayment(r.Context(), visitorFrom(r.Context()), input)
	s.renderPayment(w, r, out, err)
}

func (s *HTTPServer) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	record, err := s.deps.Wizard.Confirmation(r.Context(), visitorFrom(r.Context()), r.PathValue("bookingId"))
	if errors.Is(err, database.ErrBookingNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageConfirmation, confirmationView{
		layoutData: s.layout(r, "Booking confirmed"),
		Booking:    record,
		Requests:   record.SpecialRequests.Selected(),
	})
}

// handleFailed shows the decline recorded on the visitor's draft. Query
// parameters are ignored so links cannot inject text into the page.
func (s *HTTPServer) handleFailed(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageFailed, failedView{
		layoutData: s.layout(r, "Payment failed"),
		Message:    s.deps.Wizard.FailedMessage(r.Context(), visitorFrom(r.Context())),
		RetryURL:   service.PathPayment,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	returnURL := service.SafeReturnURL(r.URL.Query().Get("returnUrl"))
	if visitorFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, pageLogin, loginView{
		layoutData: s.layout(r, "Log in"),
		ReturnURL:  returnURL,
	})
}

func (s *HTTPServer) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	view := loginView{
		layoutData: s.layout(r, "Log in"),
		Email:      strings.TrimSpace(r.FormValue("email")),
		ReturnURL:  service.SafeReturnURL(r.FormValue("returnUrl")),
	}

	allowed, err := s.allowLogin(r, view.Email)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !allowed {
		view.Error = msgTooManyLogins
		s.render(w, r, http.StatusTooManyRequests, pageLogin, view)
		return
	}

	user, err := s.deps.Auth.Authenticate(ctx, view.Email, r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		view.Error = msgBadCredentials
		s.render(w, r, http.StatusUnauthorized, pageLogin, view)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	token, expires, err := s.deps.Auth.IssueToken(user)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.SetCookie(w, s.cookie(s.cfg.Session.CookieName, token, int(time.Until(expires).Seconds())))
	s.logger.Info().Str("request_id", requestIDFrom(ctx)).Str("email", user.Email).Msg("user logged in")
	http.Redirect(w, r, view.ReturnURL, http.StatusSeeOther)
}

// allowLogin counts the attempt against the account and the client address.
// Neither depends on cookies, so a client cannot reset it by dropping them.
func (s *HTTPServer) allowLogin(r *http.Request, email string) (bool, error) {
	limits := []struct {
		key   string
		limit int
	}{
		{"email:" + strings.ToLower(email), loginAttemptLimit},
		{"addr:" + remoteHost(r), loginAddressLimit},
	}
	allowed := true
	for _, l := range limits {
		ok, err := s.deps.Drafts.Allow(r.Context(), loginAttemptName, l.key, l.limit, time.Minute)
		if err != nil {
			return false, err
		}
		allowed = allowed && ok
	}
	return allowed, nil
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.cookie(s.cfg.Session.CookieName, "", -1))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
