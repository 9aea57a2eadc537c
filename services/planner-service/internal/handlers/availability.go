package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clevery/dayplanner/libs/httpx"
	"github.com/clevery/dayplanner/services/planner-service/internal/icsexport"
	"github.com/clevery/dayplanner/services/planner-service/internal/planner"
	"github.com/clevery/dayplanner/services/planner-service/internal/storage"
)

// timeLayout keeps the millisecond of the 23:59:59.999 day end.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type busyItem struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	SourceID     string `json:"source_id"`
	SourceKind   string `json:"source_kind"`
	Name         string `json:"name,omitempty"`
	OverflowsDay bool   `json:"overflows_day"`
}

type freeItem struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

type warningItem struct {
	RecordID   string `json:"record_id"`
	SourceKind string `json:"source_kind"`
	Name       string `json:"name,omitempty"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type availabilityResponse struct {
	Date     string        `json:"date"`
	Timezone string        `json:"timezone"`
	DayStart string        `json:"day_start"`
	DayEnd   string        `json:"day_end"`
	Busy     []busyItem    `json:"busy"`
	Free     []freeItem    `json:"free"`
	Warnings []warningItem `json:"warnings"`
	Slots    []slotItem    `json:"slots,omitempty"`
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}

	durationMins, err := queryInt(r, "duration_minutes", 0, 1, 24*60)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stepMins, err := queryInt(r, "slot_step_minutes", 15, 1, 24*60)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	day, ok := h.computeDay(w, r, accountID)
	if !ok {
		return
	}

	resp := availabilityResponse{
		Date:     day.Window.String(),
		Timezone: day.Window.Location().String(),
		DayStart: day.Window.Start().Format(timeLayout),
		DayEnd:   day.Window.End().Format(timeLayout),
		Busy:     make([]busyItem, 0, len(day.Busy)),
		Free:     make([]freeItem, 0, len(day.Free)),
		Warnings: make([]warningItem, 0, len(day.Problems)),
	}
	for _, b := range day.Busy {
		resp.Busy = append(resp.Busy, busyItem{
			Start:        b.Start.Format(timeLayout),
			End:          b.End.Format(timeLayout),
			SourceID:     b.SourceID,
			SourceKind:   b.SourceKind.String(),
			Name:         day.Names[b.SourceID],
			OverflowsDay: b.OverflowsDay,
		})
	}
	for _, f := range day.Free {
		resp.Free = append(resp.Free, freeItem{
			Start:   f.Start.Format(timeLayout),
			End:     f.End.Format(timeLayout),
			Minutes: int(f.Duration() / time.Minute),
		})
	}
	for _, p := range day.Problems {
		resp.Warnings = append(resp.Warnings, warningItem{
			RecordID:   p.RecordID,
			SourceKind: p.Kind.String(),
			Name:       p.Name,
			Reason:     planner.RejectReason(p.Err),
			Message:    p.Err.Error(),
		})
	}
	if durationMins > 0 {
		duration := time.Duration(durationMins) * time.Minute
		for _, start := range h.planner.Slots(day, duration, time.Duration(stepMins)*time.Minute) {
			resp.Slots = append(resp.Slots, slotItem{
				StartTime: start.Format(timeLayout),
				EndTime:   start.Add(duration).Format(timeLayout),
			})
		}
		if resp.Slots == nil {
			resp.Slots = []slotItem{}
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AvailabilityICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}

	day, ok := h.computeDay(w, r, accountID)
	if !ok {
		return
	}
	body := icsexport.Export(day.Window, day.Busy, day.Free, icsexport.Options{
		Namespace:   accountID,
		IncludeFree: queryBool(r, "include_free", true),
		ShowNames:   queryBool(r, "names", false),
		Names:       day.Names,
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="availability-`+day.Window.String()+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// computeDay resolves ?date= (default: today for the account) and computes it.
func (h *Handler) computeDay(w http.ResponseWriter, r *http.Request, accountID string) (planner.Availability, bool) {
	ctx := planner.WithCaller(r.Context(), "http")

	var date time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			http.Error(w, "invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
			return planner.Availability{}, false
		}
		date = d
	} else {
		today, err := h.planner.Today(ctx, accountID)
		if err != nil {
			h.fail(w, r, "failed to load settings", err)
			return planner.Availability{}, false
		}
		date = today
	}

	day, err := h.planner.DayAvailability(ctx, accountID, date)
	if err != nil {
		h.fail(w, r, "failed to compute availability", err)
		return planner.Availability{}, false
	}
	return day, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if storage.IsConflict(err) {
		h.logger.Warn(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, "already exists", http.StatusConflict)
		return
	}
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	h.logger.Error(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
	http.Error(w, msg, status)
}
