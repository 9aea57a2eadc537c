package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/model"
)

type RoutineStore interface {
	ListRoutineBlocks(ctx context.Context, accountID string) ([]model.RoutineBlock, error)
}

type RoutineBlocks struct {
	store RoutineStore
}

func NewRoutineBlocks(store RoutineStore) *RoutineBlocks {
	return &RoutineBlocks{store: store}
}

func (s *RoutineBlocks) Kind() availability.SourceKind { return availability.SourceRoutine }

func (s *RoutineBlocks) ListItemsForDate(ctx context.Context, accountID string, date time.Time) ([]availability.Record, error) {
	blocks, err := s.store.ListRoutineBlocks(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list routine blocks: %w", err)
	}
	var records []availability.Record
	for _, b := range blocks {
		if !b.OccursOn(date.Weekday()) {
			continue
		}
		records = append(records, availability.Record{
			ID:              b.ID,
			Kind:            availability.SourceRoutine,
			Name:            b.Name,
			TimeOfDay:       b.Time,
			DurationMinutes: b.DurationMinutes,
		})
	}
	return records, nil
}
