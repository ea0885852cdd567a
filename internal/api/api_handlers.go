package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotelbook/internal/database"
	"hotelbook/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleAPIRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.deps.Rooms.ListRooms()})
}

func (s *HTTPServer) handleAPIBooking(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	record, err := s.deps.Repo.GetBookingRecord(r.Context(), id)
	if errors.Is(err, database.ErrBookingNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *HTTPServer) handleAPIBookings(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.deps.Repo.ListBookingRecords(r.Context(), from, to)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":     from.Format(dateLayout),
		"to":       to.Format(dateLayout),
		"count":    len(records),
		"bookings": records,
	})
}

func (s *HTTPServer) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.deps.Repo.ListBookingRecords(r.Context(), from, to)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, records, from, to); err != nil {
		s.apiError(w, r, fmt.Errorf("export bookings: %w", err))
		return
	}

	s.logger.Info().
		Str("request_id", requestIDFrom(r.Context())).
		Str("from", from.Format(dateLayout)).
		Str("to", to.Format(dateLayout)).
		Int("records", len(records)).
		Msg("bookings exported")

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// parseRange reads the inclusive from/to check-in dates of a listing.
func (s *HTTPServer) parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	fromStr := strings.TrimSpace(q.Get("from"))
	toStr := strings.TrimSpace(q.Get("to"))
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("from and to are required")
	}

	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from date; expected YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to date; expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	if maxDays := s.cfg.Exports.MaxRangeDays; maxDays > 0 && to.Sub(from) > time.Duration(maxDays)*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("range must not exceed %d days", maxDays)
	}
	return from, to, nil
}

func (s *HTTPServer) apiError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).
		Str("request_id", requestIDFrom(r.Context())).
		Str("path", r.URL.Path).
		Msg("api request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
