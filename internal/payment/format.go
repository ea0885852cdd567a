package payment

import (
	"strings"

	"hotelbook/internal/models"
)

const (
	maxCardDigits   = 16
	maxExpiryDigits = 4
	maxCVVDigits    = 4
)

func digits(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatCardNumber groups up to 16 digits in blocks of four.
func FormatCardNumber(s string) string {
	d := digits(s, maxCardDigits)
	var b strings.Builder
	for i := 0; i < len(d); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 4
		if end > len(d) {
			end = len(d)
		}
		b.WriteString(d[i:end])
	}
	return b.String()
}

// FormatExpiry renders "MM / YY". Input with fewer than two digits is
// returned as the bare digits.
func FormatExpiry(s string) string {
	d := digits(s, maxExpiryDigits)
	if len(d) < 2 {
		return d
	}
	return d[:2] + " / " + d[2:]
}

func FormatCVV(s string) string {
	return digits(s, maxCVVDigits)
}

// Normalize applies the field formatters and trims the cardholder name.
func Normalize(in models.PaymentInput) models.PaymentInput {
	return models.PaymentInput{
		CardNumber:     FormatCardNumber(in.CardNumber),
		ExpiryDate:     FormatExpiry(in.ExpiryDate),
		CVV:            FormatCVV(in.CVV),
		CardholderName: strings.TrimSpace(in.CardholderName),
		SaveCard:       in.SaveCard,
	}
}

// LastFour returns the last four digits of a card number, or fewer when the
// number is shorter.
func LastFour(cardNumber string) string {
	d := digits(cardNumber, maxCardDigits)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}
