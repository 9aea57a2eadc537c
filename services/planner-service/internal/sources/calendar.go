package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
)

type CalendarStore interface {
	ListCalendarItemsOn(ctx context.Context, accountID, day string) ([]model.CalendarItem, error)
}

type CalendarItems struct {
	store CalendarStore
}

func NewCalendarItems(store CalendarStore) *CalendarItems {
	return &CalendarItems{store: store}
}

func (s *CalendarItems) Kind() availability.SourceKind { return availability.SourceCalendarItem }

func (s *CalendarItems) ListItemsForDate(ctx context.Context, accountID string, date time.Time) ([]availability.Record, error) {
	items, err := s.store.ListCalendarItemsOn(ctx, accountID, dayKey(date))
	if err != nil {
		return nil, fmt.Errorf("list calendar items: %w", err)
	}
	records := make([]availability.Record, 0, len(items))
	for _, item := range items {
		records = append(records, availability.Record{
			ID:              item.ID,
			Kind:            availability.SourceCalendarItem,
			Name:            item.Name,
			TimeOfDay:       item.Time,
			DurationMinutes: item.DurationMinutes,
		})
	}
	return records, nil
}
