// Package sources adapts stored scheduled items into availability records for
// a single date.
package sources

import (
	"context"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
)

// Source lists the scheduled items of one kind that occur on a date. The date
// is interpreted through its wall-clock fields.
type Source interface {
	Kind() availability.SourceKind
	ListItemsForDate(ctx context.Context, accountID string, date time.Time) ([]availability.Record, error)
}

func dayKey(date time.Time) string {
	return date.Format(time.DateOnly)
}
