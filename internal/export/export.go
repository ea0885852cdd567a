package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"hotelbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Bookings"
	SummarySheet  = "Summary"

	// first data row on the bookings sheet, after the title and header rows
	firstDataRow = 3
)

var bookingHeaders = []string{
	"Booking ID", "Guest", "Email", "Room", "Category", "Check-in", "Check-out", "Nights",
	"Guests", "Subtotal", "Cleaning fee", "Service fee", "Taxes", "Total", "Requests", "Card", "Status", "Created",
}

// FileName is the download name for an export of the given range.
func FileName(from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// BookingsWorkbook builds a workbook with one row per record and a per-room
// revenue summary. The caller closes the returned file.
func BookingsWorkbook(records []*models.BookingRecord, from, to time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	for _, name := range []string{BookingsSheet, SummarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("error creating sheet: %w", err)
		}
	}
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(BookingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	if err := writeBookings(f, records, from, to); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, records); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write streams the workbook for records to w.
func Write(w io.Writer, records []*models.BookingRecord, from, to time.Time) error {
	f, err := BookingsWorkbook(records, from, to)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func money(cents int64) float64 {
	return float64(cents) / 100
}

func writeBookings(f *excelize.File, records []*models.BookingRecord, from, to time.Time) error {
	title := fmt.Sprintf("Bookings with check-in %s - %s", from.Format("Jan 2, 2006"), to.Format("Jan 2, 2006"))
	_ = f.SetCellValue(BookingsSheet, "A1", title)
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(BookingsSheet, "A1", lastCol+"1")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}
	_ = f.SetCellStyle(BookingsSheet, "A1", "A1", titleStyle)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}
	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(BookingsSheet, cell, h)
	}
	_ = f.SetCellStyle(BookingsSheet, "A2", lastCol+"2", headerStyle)

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for i, r := range records {
		row := firstDataRow + i
		values := []interface{}{
			r.ID,
			r.GuestName,
			r.GuestEmail,
			r.RoomName,
			r.RoomCategory,
			r.CheckIn.Format("2006-01-02"),
			r.CheckOut.Format("2006-01-02"),
			r.Pricing.Nights,
			r.Guests,
			money(r.Pricing.Subtotal),
			money(r.Pricing.CleaningFee),
			money(r.Pricing.ServiceFee),
			money(r.Pricing.Taxes),
			money(r.Pricing.Total),
			requestsText(r.SpecialRequests),
			r.CardLastFour,
			r.Status,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, start, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	if len(records) > 0 {
		last := firstDataRow + len(records) - 1
		_ = f.SetCellStyle(BookingsSheet, fmt.Sprintf("J%d", firstDataRow), fmt.Sprintf("N%d", last), moneyStyle)
	}

	_ = f.SetColWidth(BookingsSheet, "A", "A", 38)
	_ = f.SetColWidth(BookingsSheet, "B", "E", 22)
	_ = f.SetColWidth(BookingsSheet, "F", "N", 12)
	_ = f.SetColWidth(BookingsSheet, "O", "O", 40)
	return f.SetPanes(BookingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	})
}

func requestsText(s models.SpecialRequests) string {
	parts := s.Selected()
	if s.Note != "" {
		parts = append(parts, "Note: "+s.Note)
	}
	return strings.Join(parts, "; ")
}

type roomSummary struct {
	name     string
	bookings int
	nights   int
	revenue  int64
}

func writeSummary(f *excelize.File, records []*models.BookingRecord) error {
	byRoom := make(map[int64]*roomSummary)
	for _, r := range records {
		s, ok := byRoom[r.RoomID]
		if !ok {
			s = &roomSummary{name: r.RoomName}
			byRoom[r.RoomID] = s
		}
		s.bookings++
		s.nights += r.Pricing.Nights
		s.revenue += r.Pricing.Total
	}

	rows := make([]*roomSummary, 0, len(byRoom))
	for _, s := range byRoom {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].revenue != rows[j].revenue {
			return rows[i].revenue > rows[j].revenue
		}
		return rows[i].name < rows[j].name
	})

	header := []interface{}{"Room", "Bookings", "Nights", "Revenue"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("error writing summary header: %w", err)
	}

	var total roomSummary
	for i, s := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{s.name, s.bookings, s.nights, money(s.revenue)}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("error writing summary row: %w", err)
		}
		total.bookings += s.bookings
		total.nights += s.nights
		total.revenue += s.revenue
	}

	cell, _ := excelize.CoordinatesToCellName(1, len(rows)+2)
	totalRow := []interface{}{"Total", total.bookings, total.nights, money(total.revenue)}
	if err := f.SetSheetRow(SummarySheet, cell, &totalRow); err != nil {
		return fmt.Errorf("error writing summary total: %w", err)
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	return nil
}
