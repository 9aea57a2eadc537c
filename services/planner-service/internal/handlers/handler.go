package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clevery/dayplanner/libs/httpx"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/planner"
	"github.com/jackc/pgx/v5"
)

// Planner computes availability for the API.
type Planner interface {
	Today(ctx context.Context, accountID string) (time.Time, error)
	DayAvailability(ctx context.Context, accountID string, date time.Time) (planner.Availability, error)
	Slots(a planner.Availability, duration, step time.Duration) []time.Time
}

// Store is the record store behind the CRUD endpoints.
type Store interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error

	CreateActivity(ctx context.Context, tx pgx.Tx, a *model.Activity) (string, error)
	DeleteActivity(ctx context.Context, tx pgx.Tx, accountID, id string) error
	ListActivities(ctx context.Context, accountID, fromDay, toDay string, limit int) ([]model.Activity, error)

	CreateCalendarItem(ctx context.Context, tx pgx.Tx, item *model.CalendarItem) (string, error)
	DeleteCalendarItem(ctx context.Context, tx pgx.Tx, accountID, id string) error
	ListCalendarItems(ctx context.Context, accountID string, from, to time.Time, limit int) ([]model.CalendarItem, error)

	CreateRoutineBlock(ctx context.Context, tx pgx.Tx, b *model.RoutineBlock) (string, error)
	DeleteRoutineBlock(ctx context.Context, tx pgx.Tx, accountID, id string) error
	ListRoutineBlocks(ctx context.Context, accountID string) ([]model.RoutineBlock, error)

	GetSettings(ctx context.Context, accountID string) (model.Settings, error)
	UpsertSettings(ctx context.Context, tx pgx.Tx, s *model.Settings) error
}

// EventWriter appends outbox events inside a store transaction.
type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type Handler struct {
	planner Planner
	store   Store
	events  EventWriter
	logger  *slog.Logger
}

func New(p Planner, store Store, events EventWriter, logger *slog.Logger) *Handler {
	return &Handler{planner: p, store: store, events: events, logger: logger}
}

// Routes registers the planner API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/availability", h.Availability)
	mux.HandleFunc("/api/v1/availability.ics", h.AvailabilityICS)
	mux.Handle("/api/v1/activities", byMethod{
		http.MethodGet:    h.ListActivities,
		http.MethodPost:   h.CreateActivity,
		http.MethodDelete: h.DeleteActivity,
	})
	mux.Handle("/api/v1/calendar-items", byMethod{
		http.MethodGet:    h.ListCalendarItems,
		http.MethodPost:   h.CreateCalendarItem,
		http.MethodDelete: h.DeleteCalendarItem,
	})
	mux.Handle("/api/v1/routine-blocks", byMethod{
		http.MethodGet:    h.ListRoutineBlocks,
		http.MethodPost:   h.CreateRoutineBlock,
		http.MethodDelete: h.DeleteRoutineBlock,
	})
	mux.Handle("/api/v1/settings", byMethod{
		http.MethodGet: h.GetSettings,
		http.MethodPut: h.UpdateSettings,
	})
	mux.HandleFunc("/api/v1/catalog/goals", h.Goals)
	mux.HandleFunc("/api/v1/catalog/tasks", h.Tasks)
}

type byMethod map[string]http.HandlerFunc

func (m byMethod) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if fn, ok := m[r.Method]; ok {
		fn(w, r)
		return
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func accountIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(httpx.AccountIDHeader))
}

// requireAccount writes a 400 and returns "" when the gateway did not set the account header.
func requireAccount(w http.ResponseWriter, r *http.Request) string {
	id := accountIDFromHeader(r)
	if id == "" {
		http.Error(w, "missing "+httpx.AccountIDHeader, http.StatusBadRequest)
	}
	return id
}

func queryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func queryBool(r *http.Request, key string, fallback bool) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (h *Handler) emit(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload any) error {
	evt, err := outbox.NewEvent(aggregateType, aggregateID, eventType, payload)
	if err != nil {
		return err
	}
	return h.events.Insert(ctx, tx, evt)
}
