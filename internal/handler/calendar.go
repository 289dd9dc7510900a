package handler

import (
	"net/http"

	"github.com/rickb777/date"

	"rtmap/internal/hrdf"
)

// OperatesResponse answers whether a calendar runs on a given day.
type OperatesResponse struct {
	CalendarID int       `json:"calendar_id"`
	Date       date.Date `json:"date"`
	Operates   bool      `json:"operates"`
}

// Calendar handles GET /calendar/{id}. With ?date=YYYY-MM-DD it reports
// whether the calendar operates on that day instead of returning the bitfield.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var day date.Date
	raw := r.URL.Query().Get("date")
	if raw != "" {
		d, err := date.ParseISO(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		day = d
	}

	cal, err := h.store.Calendar(r.Context(), id)
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}
	if raw == "" {
		writeJSON(w, http.StatusOK, cal)
		return
	}

	info, err := h.store.Information(r.Context())
	if err != nil {
		h.fail(w, r, "information", err)
		return
	}
	writeJSON(w, http.StatusOK, OperatesResponse{
		CalendarID: cal.ID,
		Date:       day,
		Operates:   hrdf.OperatesOn(cal.Days, info.StartDate, day),
	})
}
