package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clevery/dayplanner/libs/httpx"
	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/sources"
	"github.com/clevery/dayplanner/services/planner-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxListDays = 366

type activityBody struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Day             string   `json:"day"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Description     string   `json:"description,omitempty"`
	IsRecurring     bool     `json:"is_recurring"`
	RecurrenceRule  string   `json:"recurrence_rule,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Status          string   `json:"status,omitempty"`
	Tags            []string `json:"tags"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

type calendarItemBody struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Notes           string   `json:"notes,omitempty"`
	Tags            []string `json:"tags"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

type routineBlockBody struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Weekday         *string `json:"weekday"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"duration_minutes"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

func validateSlot(timeOfDay string, durationMinutes int) error {
	if _, err := availability.ParseTimeOfDay(timeOfDay); err != nil {
		return err
	}
	return availability.ValidateDuration(durationMinutes)
}

// clientID accepts an optional caller-chosen UUID. A retried create with the
// same id conflicts instead of duplicating the item.
func clientID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.New("invalid id (want UUID)")
	}
	return id.String(), nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

// dateRange reads ?from=&to= (YYYY-MM-DD). from defaults to today and to to a
// week after from.
func dateRange(r *http.Request, today time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	y, mon, day := today.Date()
	from := time.Date(y, mon, day, 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from (want YYYY-MM-DD)")
		}
		from = d
	}
	to := from.AddDate(0, 0, 7)
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to (want YYYY-MM-DD)")
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	if to.Sub(from) > maxListDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("range longer than %d days", maxListDays)
	}
	return from, to, nil
}

// listRange resolves the list window, taking "today" in the account timezone
// when from is absent. It writes the error response and returns false on failure.
func (h *Handler) listRange(w http.ResponseWriter, r *http.Request, accountID string) (time.Time, time.Time, bool) {
	var today time.Time
	if strings.TrimSpace(r.URL.Query().Get("from")) == "" {
		t, err := h.planner.Today(r.Context(), accountID)
		if err != nil {
			h.fail(w, r, "failed to load settings", err)
			return time.Time{}, time.Time{}, false
		}
		today = t
	}
	from, to, err := dateRange(r, today)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	var req activityBody
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := clientID(req.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := model.Activity{
		ID:              id,
		AccountID:       accountID,
		Name:            strings.TrimSpace(req.Name),
		Day:             strings.TrimSpace(req.Day),
		Time:            strings.TrimSpace(req.Time),
		DurationMinutes: req.DurationMinutes,
		Description:     strings.TrimSpace(req.Description),
		IsRecurring:     req.IsRecurring,
		RecurrenceRule:  strings.TrimSpace(req.RecurrenceRule),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          strings.TrimSpace(req.Status),
		Tags:            cleanTags(req.Tags),
	}
	if a.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if err := validateSlot(a.Time, a.DurationMinutes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sources.ValidateActivitySchedule(a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err = h.store.InTx(ctx, func(tx pgx.Tx) error {
		id, err := h.store.CreateActivity(ctx, tx, &a)
		if err != nil {
			return err
		}
		return h.emit(ctx, tx, "activity", id, outbox.ActivityCreated, map[string]any{
			"activity_id":      id,
			"account_id":       accountID,
			"day":              a.Day,
			"time":             a.Time,
			"duration_minutes": a.DurationMinutes,
			"is_recurring":     a.IsRecurring,
		})
	})
	if err != nil {
		h.fail(w, r, "failed to create activity", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": a.ID})
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	from, to, ok := h.listRange(w, r, accountID)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 100, 1, 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	acts, err := h.store.ListActivities(r.Context(), accountID, from.Format(time.DateOnly), to.Format(time.DateOnly), limit)
	if err != nil {
		h.fail(w, r, "failed to list activities", err)
		return
	}
	items := make([]activityBody, 0, len(acts))
	for _, a := range acts {
		items = append(items, activityBody{
			ID:              a.ID,
			Name:            a.Name,
			Day:             a.Day,
			Time:            a.Time,
			DurationMinutes: a.DurationMinutes,
			Description:     a.Description,
			IsRecurring:     a.IsRecurring,
			RecurrenceRule:  a.RecurrenceRule,
			Notes:           a.Notes,
			Status:          a.Status,
			Tags:            nonNil(a.Tags),
			CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	h.deleteItem(w, r, "activity", outbox.ActivityDeleted, h.store.DeleteActivity)
}

func (h *Handler) CreateCalendarItem(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	var req calendarItemBody
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := clientID(req.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	item := model.CalendarItem{
		ID:              id,
		AccountID:       accountID,
		Name:            strings.TrimSpace(req.Name),
		Date:            date,
		Time:            strings.TrimSpace(req.Time),
		DurationMinutes: req.DurationMinutes,
		Notes:           strings.TrimSpace(req.Notes),
		Tags:            cleanTags(req.Tags),
	}
	if item.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if err := validateSlot(item.Time, item.DurationMinutes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err = h.store.InTx(ctx, func(tx pgx.Tx) error {
		id, err := h.store.CreateCalendarItem(ctx, tx, &item)
		if err != nil {
			return err
		}
		return h.emit(ctx, tx, "calendar_item", id, outbox.CalendarItemCreated, map[string]any{
			"calendar_item_id": id,
			"account_id":       accountID,
			"date":             item.Date.Format(time.DateOnly),
			"time":             item.Time,
			"duration_minutes": item.DurationMinutes,
		})
	})
	if err != nil {
		h.fail(w, r, "failed to create calendar item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": item.ID})
}

func (h *Handler) ListCalendarItems(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	from, to, ok := h.listRange(w, r, accountID)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 100, 1, 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.store.ListCalendarItems(r.Context(), accountID, from, to, limit)
	if err != nil {
		h.fail(w, r, "failed to list calendar items", err)
		return
	}
	items := make([]calendarItemBody, 0, len(rows))
	for _, it := range rows {
		items = append(items, calendarItemBody{
			ID:              it.ID,
			Name:            it.Name,
			Date:            it.Date.Format(time.DateOnly),
			Time:            it.Time,
			DurationMinutes: it.DurationMinutes,
			Notes:           it.Notes,
			Tags:            nonNil(it.Tags),
			CreatedAt:       it.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) DeleteCalendarItem(w http.ResponseWriter, r *http.Request) {
	h.deleteItem(w, r, "calendar_item", outbox.CalendarItemDeleted, h.store.DeleteCalendarItem)
}

func (h *Handler) CreateRoutineBlock(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	var req routineBlockBody
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := clientID(req.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b := model.RoutineBlock{
		ID:              id,
		AccountID:       accountID,
		Name:            strings.TrimSpace(req.Name),
		Time:            strings.TrimSpace(req.Time),
		DurationMinutes: req.DurationMinutes,
	}
	if req.Weekday != nil && strings.TrimSpace(*req.Weekday) != "" {
		wd, ok := sources.ParseWeekday(*req.Weekday)
		if !ok {
			http.Error(w, "invalid weekday", http.StatusBadRequest)
			return
		}
		b.Weekday = &wd
	}
	if b.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if err := validateSlot(b.Time, b.DurationMinutes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err = h.store.InTx(ctx, func(tx pgx.Tx) error {
		id, err := h.store.CreateRoutineBlock(ctx, tx, &b)
		if err != nil {
			return err
		}
		return h.emit(ctx, tx, "routine_block", id, outbox.RoutineBlockCreated, map[string]any{
			"routine_block_id": id,
			"account_id":       accountID,
			"weekday":          weekdayName(b.Weekday),
			"time":             b.Time,
			"duration_minutes": b.DurationMinutes,
		})
	})
	if err != nil {
		h.fail(w, r, "failed to create routine block", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": b.ID})
}

func (h *Handler) ListRoutineBlocks(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	blocks, err := h.store.ListRoutineBlocks(r.Context(), accountID)
	if err != nil {
		h.fail(w, r, "failed to list routine blocks", err)
		return
	}
	items := make([]routineBlockBody, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, routineBlockBody{
			ID:              b.ID,
			Name:            b.Name,
			Weekday:         weekdayName(b.Weekday),
			Time:            b.Time,
			DurationMinutes: b.DurationMinutes,
			CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) DeleteRoutineBlock(w http.ResponseWriter, r *http.Request) {
	h.deleteItem(w, r, "routine_block", outbox.RoutineBlockDeleted, h.store.DeleteRoutineBlock)
}

type deleteFunc func(ctx context.Context, tx pgx.Tx, accountID, id string) error

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request, aggregateType, eventType string, del deleteFunc) {
	accountID := requireAccount(w, r)
	if accountID == "" {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.store.InTx(ctx, func(tx pgx.Tx) error {
		if err := del(ctx, tx, accountID, id); err != nil {
			return err
		}
		return h.emit(ctx, tx, aggregateType, id, eventType, map[string]any{
			aggregateType + "_id": id,
			"account_id":          accountID,
		})
	})
	if storage.IsNotFound(err) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, "failed to delete "+strings.ReplaceAll(aggregateType, "_", " "), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func weekdayName(wd *time.Weekday) *string {
	if wd == nil {
		return nil
	}
	name := wd.String()
	return &name
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
