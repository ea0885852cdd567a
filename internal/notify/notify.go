package notify

import (
	"fmt"
	"strings"

	"hotelbook/internal/domain"
	"hotelbook/internal/events"
	"hotelbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// ManagerNotifier forwards new bookings and payment failures to the
// managers' Telegram chats.
type ManagerNotifier struct {
	sender domain.TelegramSender
	chats  []int64
	logger *zerolog.Logger
}

func NewManagerNotifier(sender domain.TelegramSender, chats []int64, logger *zerolog.Logger) *ManagerNotifier {
	return &ManagerNotifier{sender: sender, chats: chats, logger: logger}
}

// Subscribe registers the notifier on the bus. No-op without chats.
func (n *ManagerNotifier) Subscribe(bus *events.EventBus) {
	if n == nil || bus == nil || len(n.chats) == 0 {
		return
	}
	bus.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	bus.Subscribe(events.EventPaymentFailed, n.handlePaymentFailed)
}

func (n *ManagerNotifier) handleBookingCreated(ev *events.Event) error {
	var p events.BookingEventPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Type, err)
	}
	return n.broadcast(BookingCreatedText(&p))
}

func (n *ManagerNotifier) handlePaymentFailed(ev *events.Event) error {
	var p events.BookingEventPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Type, err)
	}
	return n.broadcast(PaymentFailedText(&p))
}

// broadcast sends text to every chat and returns the first error.
func (n *ManagerNotifier) broadcast(text string) error {
	var firstErr error
	for _, chatID := range n.chats {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to notify manager")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func BookingCreatedText(p *events.BookingEventPayload) string {
	var b strings.Builder
	b.WriteString("New booking\n\n")
	fmt.Fprintf(&b, "ID: %s\n", p.BookingID)
	fmt.Fprintf(&b, "Room: %s\n", p.RoomName)
	fmt.Fprintf(&b, "Dates: %s - %s (%d nights)\n",
		p.CheckIn.Format("Jan 2, 2006"), p.CheckOut.Format("Jan 2, 2006"), models.Nights(p.CheckIn, p.CheckOut))
	fmt.Fprintf(&b, "Guests: %d\n", p.Guests)
	if p.GuestName != "" || p.GuestEmail != "" {
		fmt.Fprintf(&b, "Guest: %s <%s>\n", p.GuestName, p.GuestEmail)
	}
	fmt.Fprintf(&b, "Total: %s", models.FormatMoney(p.Total))
	return b.String()
}

func PaymentFailedText(p *events.BookingEventPayload) string {
	return fmt.Sprintf("Payment failed\n\nRoom: %s\nDates: %s - %s\nGuest: %s\nReason: %s",
		p.RoomName, p.CheckIn.Format("Jan 2, 2006"), p.CheckOut.Format("Jan 2, 2006"),
		p.GuestEmail, p.Error)
}
