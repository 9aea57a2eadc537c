// Package planner computes a day's availability for an account by combining
// every scheduled-item source.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clevery/dayplanner/libs/metrics"
	otelx "github.com/clevery/dayplanner/libs/otel"
	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/clevery/dayplanner/services/planner-service/internal/sources"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type SettingsStore interface {
	GetSettings(ctx context.Context, accountID string) (model.Settings, error)
}

type Availability struct {
	Window   availability.DayWindow
	Busy     []availability.BusyInterval
	Free     []availability.FreeInterval
	Problems []availability.RecordError
	// Names maps record ids to item names.
	Names    map[string]string
}

type Service struct {
	settings SettingsStore
	sources  []sources.Source
	metrics  *metrics.Registry
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, used for slot filtering and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(settings SettingsStore, srcs []sources.Source, reg *metrics.Registry, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		sources:  srcs,
		metrics:  reg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type callerKey struct{}

// WithCaller labels availability metrics computed under ctx.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func callerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// Location returns the account's configured timezone, UTC when unset.
func (s *Service) Location(ctx context.Context, accountID string) (*time.Location, error) {
	if s.settings == nil {
		return time.UTC, nil
	}
	settings, err := s.settings.GetSettings(ctx, accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.UTC, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings.Location(), nil
}

// Today returns the current date in the account's timezone.
func (s *Service) Today(ctx context.Context, accountID string) (time.Time, error) {
	loc, err := s.Location(ctx, accountID)
	if err != nil {
		return time.Time{}, err
	}
	return s.now().In(loc), nil
}

// DayAvailability fetches every source for date (only its calendar fields are
// used), normalizes the items and computes the free intervals. Items that fail
// normalization are returned as Problems; a failing source fails the call.
func (s *Service) DayAvailability(ctx context.Context, accountID string, date time.Time) (Availability, error) {
	started := time.Now()
	ctx, span := otelx.Tracer().Start(ctx, "planner.DayAvailability", trace.WithAttributes(
		attribute.String("planner.account_id", accountID),
		attribute.String("planner.date", date.Format(time.DateOnly)),
	))
	defer span.End()

	loc, err := s.Location(ctx, accountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settings")
		return Availability{}, err
	}
	window := availability.NewDayWindow(date, loc)

	records := make([][]availability.Record, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			recs, err := src.ListItemsForDate(gctx, accountID, window.Date())
			if err != nil {
				return fmt.Errorf("%s source: %w", src.Kind(), err)
			}
			records[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sources")
		return Availability{}, err
	}

	var all []availability.Record
	names := make(map[string]string)
	for _, recs := range records {
		for _, rec := range recs {
			if rec.Name != "" {
				names[rec.ID] = rec.Name
			}
		}
		all = append(all, recs...)
	}
	busy, problems := availability.NormalizeAll(all, window)
	free := availability.ComputeAvailability(window, busy)

	result := Availability{
		Window:   window,
		Busy:     availability.ClipAndSort(window, busy),
		Free:     free,
		Problems: problems,
		Names:    names,
	}
	s.observe(ctx, result, time.Since(started))
	span.SetAttributes(
		attribute.Int("planner.busy_count", len(result.Busy)),
		attribute.Int("planner.free_count", len(result.Free)),
		attribute.Int("planner.problem_count", len(result.Problems)),
	)
	return result, nil
}

// Slots lists candidate start times for a block of the given length.
func (s *Service) Slots(a Availability, duration, step time.Duration) []time.Time {
	return availability.Slots(a.Window, a.Free, duration, step, s.now())
}

func (s *Service) observe(ctx context.Context, a Availability, took time.Duration) {
	for _, p := range a.Problems {
		if s.logger != nil {
			s.logger.Warn("scheduled item rejected", "record_id", p.RecordID, "source_kind", p.Kind.String(), "err", p.Err)
		}
	}
	if s.metrics == nil {
		return
	}
	s.metrics.AvailabilityComputed.WithLabelValues(callerFrom(ctx)).Inc()
	s.metrics.AvailabilityLatency.Observe(took.Seconds())
	for _, p := range a.Problems {
		s.metrics.RecordsRejected.WithLabelValues(p.Kind.String(), RejectReason(p.Err)).Inc()
	}
	for _, b := range a.Busy {
		if b.OverflowsDay {
			s.metrics.DayOverflows.WithLabelValues(b.SourceKind.String()).Inc()
		}
	}
}

// RejectReason maps a normalization error to a short label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, availability.ErrInvalidTimeFormat):
		return "invalid_time_format"
	case errors.Is(err, availability.ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, availability.ErrEmptyInterval):
		return "empty_interval"
	default:
		return "other"
	}
}
