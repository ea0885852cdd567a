package payment

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"hotelbook/internal/models"

	"github.com/go-playground/validator/v10"
)

// Form field names as used by the payment page.
const (
	FieldCardNumber     = "cardNumber"
	FieldExpiryDate     = "expiryDate"
	FieldCVV            = "cvv"
	FieldCardholderName = "cardholderName"
)

var fieldMessages = map[string]string{
	FieldCardNumber:     "Please enter a valid card number",
	FieldExpiryDate:     "Please enter a valid expiry date",
	FieldCVV:            "Please enter a valid CVV",
	FieldCardholderName: "Please enter cardholder name",
}

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

var expiryPattern = regexp.MustCompile(`^\d{2} / \d{2}$`)

// paymentForm is the shape validated after normalization. Card number is
// held without spaces.
type paymentForm struct {
	CardDigits     string `json:"cardNumber" validate:"required,numeric,min=13,max=16"`
	ExpiryDate     string `json:"expiryDate" validate:"expiry"`
	CVV            string `json:"cvv" validate:"required,numeric,min=3,max=4"`
	CardholderName string `json:"cardholderName" validate:"min=3"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate normalizes the input and checks every field. An empty result means
// the input can be submitted.
func Validate(in models.PaymentInput) FieldErrors {
	return ValidateNormalized(Normalize(in))
}

// ValidateNormalized checks input that has already been through Normalize.
func ValidateNormalized(n models.PaymentInput) FieldErrors {
	form := paymentForm{
		CardDigits:     strings.ReplaceAll(n.CardNumber, " ", ""),
		ExpiryDate:     n.ExpiryDate,
		CVV:            n.CVV,
		CardholderName: n.CardholderName,
	}

	errs := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only reachable on a programming error in paymentForm
		panic(err)
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = fieldMessages[field]
	}
	return errs
}
