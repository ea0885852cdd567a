package export

import (
	"bytes"
	"testing"
	"time"

	"hotelbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func record(id, room string, roomID int64, total int64, nights int) *models.BookingRecord {
	in := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &models.BookingRecord{
		ID:              id,
		GuestName:       "Jane Doe",
		GuestEmail:      "jane@example.com",
		RoomID:          roomID,
		RoomName:        room,
		CheckIn:         in,
		CheckOut:        in.AddDate(0, 0, nights),
		Guests:          2,
		Pricing:         models.Pricing{Nights: nights, Total: total},
		SpecialRequests: models.SpecialRequests{EarlyCheckIn: true, Note: "crib"},
		CardLastFour:    "4242",
		Status:          models.StatusConfirmed,
		CreatedAt:       in.AddDate(0, -1, 0),
	}
}

func TestBookingsWorkbook(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	records := []*models.BookingRecord{
		record("a", "Ocean Suite", 1, 79520, 3),
		record("b", "Garden Room", 2, 30000, 2),
		record("c", "Ocean Suite", 1, 20000, 1),
	}

	f, err := BookingsWorkbook(records, from, to)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{BookingsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(BookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2+len(records))
	assert.Contains(t, rows[0][0], "Jun 1, 2025")
	assert.Equal(t, "Booking ID", rows[1][0])
	assert.Equal(t, "a", rows[2][0])
	assert.Equal(t, "Ocean Suite", rows[2][3])
	assert.Equal(t, "2025-06-01", rows[2][5])
	assert.Equal(t, "Early check-in; Note: crib", rows[2][14])

	total, err := f.GetCellValue(BookingsSheet, "N3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "795.2", total)

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, []string{"Room", "Bookings", "Nights", "Revenue"}, summary[0])
	assert.Equal(t, "Ocean Suite", summary[1][0])
	assert.Equal(t, "2", summary[1][1])
	assert.Equal(t, "Total", summary[3][0])
	assert.Equal(t, "3", summary[3][1])
	assert.Equal(t, "6", summary[3][2])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Write(&buf, nil, day, day))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(BookingsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "bookings_2025-06-01_to_2025-06-01.xlsx", FileName(day, day))
}
