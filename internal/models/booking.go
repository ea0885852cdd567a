package models

import "time"

// Pricing is the price breakdown of a stay. All amounts are cents.
type Pricing struct {
	BasePrice   int64 `json:"base_price"`
	Nights      int   `json:"nights"`
	Subtotal    int64 `json:"subtotal"`
	CleaningFee int64 `json:"cleaning_fee"`
	ServiceFee  int64 `json:"service_fee"`
	Taxes       int64 `json:"taxes"`
	Total       int64 `json:"total"`
	Savings     int64 `json:"savings,omitempty"`
}

type SpecialRequests struct {
	EarlyCheckIn  bool   `json:"early_check_in"`
	LateCheckOut  bool   `json:"late_check_out"`
	AirportPickup bool   `json:"airport_pickup"`
	HighFloor     bool   `json:"high_floor"`
	ExtraPillows  bool   `json:"extra_pillows"`
	Note          string `json:"note,omitempty"`
}

// Selected returns the labels of the requests that are switched on.
func (s SpecialRequests) Selected() []string {
	var out []string
	if s.EarlyCheckIn {
		out = append(out, "Early check-in")
	}
	if s.LateCheckOut {
		out = append(out, "Late check-out")
	}
	if s.AirportPickup {
		out = append(out, "Airport pickup")
	}
	if s.HighFloor {
		out = append(out, "High floor")
	}
	if s.ExtraPillows {
		out = append(out, "Extra pillows")
	}
	return out
}

// BookingDraft is the in-progress booking of a visitor while the wizard runs.
type BookingDraft struct {
	VisitorID       string          `json:"visitor_id"`
	RoomID          int64           `json:"room_id"`
	RoomName        string          `json:"room_name"`
	RoomImage       string          `json:"room_image"`
	RoomCategory    string          `json:"room_category"`
	CheckIn         time.Time       `json:"check_in"`
	CheckOut        time.Time       `json:"check_out"`
	Guests          int             `json:"guests"`
	Pricing         Pricing         `json:"pricing"`
	SpecialRequests SpecialRequests `json:"special_requests"`
	AgreedToTerms   bool            `json:"agreed_to_terms"`
	Step            string          `json:"step"`
	PaymentError    string          `json:"payment_error,omitempty"`
	BookingID       string          `json:"booking_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BookingRecord is the persisted snapshot written after a successful payment.
type BookingRecord struct {
	ID              string          `json:"id"`
	GuestEmail      string          `json:"guest_email"`
	GuestName       string          `json:"guest_name"`
	RoomID          int64           `json:"room_id"`
	RoomName        string          `json:"room_name"`
	RoomImage       string          `json:"room_image"`
	RoomCategory    string          `json:"room_category"`
	CheckIn         time.Time       `json:"check_in"`
	CheckOut        time.Time       `json:"check_out"`
	Guests          int             `json:"guests"`
	Pricing         Pricing         `json:"pricing"`
	SpecialRequests SpecialRequests `json:"special_requests"`
	CardLastFour    string          `json:"card_last_four"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewBookingRecord snapshots a draft under the given booking id.
func NewBookingRecord(id string, draft *BookingDraft, guest *User, lastFour string) *BookingRecord {
	rec := &BookingRecord{
		ID:              id,
		RoomID:          draft.RoomID,
		RoomName:        draft.RoomName,
		RoomImage:       draft.RoomImage,
		RoomCategory:    draft.RoomCategory,
		CheckIn:         draft.CheckIn,
		CheckOut:        draft.CheckOut,
		Guests:          draft.Guests,
		Pricing:         draft.Pricing,
		SpecialRequests: draft.SpecialRequests,
		CardLastFour:    lastFour,
		Status:          StatusConfirmed,
		CreatedAt:       time.Now().UTC(),
	}
	if guest != nil {
		rec.GuestEmail = guest.Email
		rec.GuestName = guest.FullName
	}
	return rec
}

// RecordKey is the logical storage key of a booking record.
func RecordKey(id string) string {
	return "booking_" + id
}
