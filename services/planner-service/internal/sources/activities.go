package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
)

type ActivityStore interface {
	ListActivitiesOn(ctx context.Context, accountID, day string) ([]model.Activity, error)
	ListRecurringActivities(ctx context.Context, accountID string) ([]model.Activity, error)
}

type Activities struct {
	store  ActivityStore
	logger *slog.Logger
}

func NewActivities(store ActivityStore, logger *slog.Logger) *Activities {
	return &Activities{store: store, logger: logger}
}

func (s *Activities) Kind() availability.SourceKind { return availability.SourceActivity }

func (s *Activities) ListItemsForDate(ctx context.Context, accountID string, date time.Time) ([]availability.Record, error) {
	oneOff, err := s.store.ListActivitiesOn(ctx, accountID, dayKey(date))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	recurring, err := s.store.ListRecurringActivities(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list recurring activities: %w", err)
	}

	records := make([]availability.Record, 0, len(oneOff)+len(recurring))
	for _, a := range oneOff {
		records = append(records, activityRecord(a))
	}
	for _, a := range recurring {
		ok, err := OccursOn(a, date, date.Location())
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping activity with bad recurrence", "activity_id", a.ID, "err", err)
			}
			continue
		}
		if ok {
			records = append(records, activityRecord(a))
		}
	}
	return records, nil
}

func activityRecord(a model.Activity) availability.Record {
	return availability.Record{
		ID:              a.ID,
		Kind:            availability.SourceActivity,
		Name:            a.Name,
		TimeOfDay:       a.Time,
		DurationMinutes: a.DurationMinutes,
	}
}
