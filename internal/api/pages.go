package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"hotelbook/internal/models"
	"hotelbook/internal/payment"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome         = "home.html"
	pageRooms        = "rooms.html"
	pageReview       = "review.html"
	pagePayment      = "payment.html"
	pageConfirmation = "confirmation.html"
	pageFailed       = "failed.html"
	pageLogin        = "login.html"
	pageNotFound     = "not_found.html"
	pageError        = "error.html"
)

var pageNames = []string{
	pageHome, pageRooms, pageReview, pagePayment, pageConfirmation,
	pageFailed, pageLogin, pageNotFound, pageError,
}

var templateFuncs = template.FuncMap{
	"money":  models.FormatMoney,
	"nights": models.Nights,
	"date": func(t time.Time) string {
		return t.Format("Mon, Jan 2, 2006")
	},
	"isoDate": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"fieldError": func(errs payment.FieldErrors, field string) string {
		return errs[field]
	},
}

// pages holds one parsed template set per page, each combined with the layout.
type pages struct {
	tpls map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{tpls: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.tpls[name] = tpl
	}
	return p, nil
}

// render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (p *pages) render(w http.ResponseWriter, status int, name string, data any) error {
	tpl, ok := p.tpls[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// layoutData is embedded by every view.
type layoutData struct {
	Title string
	User  *models.User
}

type homeView struct {
	layoutData
	Featured []models.Room
	CheckIn  string
	CheckOut string
}

type roomsView struct {
	layoutData
	Rooms    []models.Room
	Error    string
	CheckIn  string
	CheckOut string
	Guests   int
}

type reviewView struct {
	layoutData
	Draft  *models.BookingDraft
	Errors payment.FieldErrors
}

type paymentView struct {
	layoutData
	Draft     *models.BookingDraft
	Errors    payment.FieldErrors
	FormError string
	Payment   models.PaymentInput
}

type confirmationView struct {
	layoutData
	Booking  *models.BookingRecord
	Requests []string
}

type failedView struct {
	layoutData
	Message  string
	RetryURL string
}

type loginView struct {
	layoutData
	Email     string
	ReturnURL string
	Error     string
}

type errorView struct {
	layoutData
	RequestID string
}
