package storage

import (
	"context"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateCalendarItem(ctx context.Context, tx pgx.Tx, item *model.CalendarItem) (string, error) {
	id := newID(item.ID)
	if item.Tags == nil {
		item.Tags = []string{}
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO calendar_items (id, account_id, name, date, time, duration_minutes, notes, tags)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		RETURNING created_at
	`, id, item.AccountID, item.Name, item.Date.Format(time.DateOnly), item.Time, item.DurationMinutes,
		item.Notes, item.Tags).Scan(&item.CreatedAt)
	if err != nil {
		return "", err
	}
	item.ID = id
	return id, nil
}

func (r *Repository) DeleteCalendarItem(ctx context.Context, tx pgx.Tx, accountID, id string) error {
	return deleteOwned(ctx, tx, "calendar_items", accountID, id)
}

// ListCalendarItems returns items dated within [from, to].
func (r *Repository) ListCalendarItems(ctx context.Context, accountID string, from, to time.Time, limit int) ([]model.CalendarItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id, name, date, time, duration_minutes, notes, tags, created_at
		FROM calendar_items
		WHERE account_id = $1
			AND date >= $2::date
			AND date <= $3::date
		ORDER BY date ASC, time ASC
		LIMIT $4
	`, accountID, from.Format(time.DateOnly), to.Format(time.DateOnly), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanCalendarItems(rows)
}

// ListCalendarItemsOn returns every item on day (YYYY-MM-DD), without a row cap.
func (r *Repository) ListCalendarItemsOn(ctx context.Context, accountID, day string) ([]model.CalendarItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id, name, date, time, duration_minutes, notes, tags, created_at
		FROM calendar_items
		WHERE account_id = $1 AND date = $2::date
		ORDER BY time ASC
	`, accountID, day)
	if err != nil {
		return nil, err
	}
	return scanCalendarItems(rows)
}

func scanCalendarItems(rows pgx.Rows) ([]model.CalendarItem, error) {
	defer rows.Close()

	var out []model.CalendarItem
	for rows.Next() {
		var item model.CalendarItem
		if err := rows.Scan(
			&item.ID,
			&item.AccountID,
			&item.Name,
			&item.Date,
			&item.Time,
			&item.DurationMinutes,
			&item.Notes,
			&item.Tags,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
