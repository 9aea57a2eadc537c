package storage

import (
	"context"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `id::text, account_id, name, day, time, duration_minutes, description,
	is_recurring, recurrence_rule, notes, status, tags, created_at`

func (r *Repository) CreateActivity(ctx context.Context, tx pgx.Tx, a *model.Activity) (string, error) {
	id := newID(a.ID)
	if a.Status == "" {
		a.Status = "pending"
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO activities
			(id, account_id, name, day, time, duration_minutes, description, is_recurring, recurrence_rule, notes, status, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, id, a.AccountID, a.Name, a.Day, a.Time, a.DurationMinutes, a.Description, a.IsRecurring,
		a.RecurrenceRule, a.Notes, a.Status, a.Tags).Scan(&a.CreatedAt)
	if err != nil {
		return "", err
	}
	a.ID = id
	return id, nil
}

func (r *Repository) DeleteActivity(ctx context.Context, tx pgx.Tx, accountID, id string) error {
	return deleteOwned(ctx, tx, "activities", accountID, id)
}

// ListActivities returns one-off activities whose day falls in [fromDay, toDay]
// plus every recurring activity of the account.
func (r *Repository) ListActivities(ctx context.Context, accountID, fromDay, toDay string, limit int) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE account_id = $1
			AND (is_recurring OR (day >= $2 AND day <= $3))
		ORDER BY day ASC, time ASC
		LIMIT $4
	`, accountID, fromDay, toDay, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanActivities(rows)
}

// ListActivitiesOn returns one-off activities on day (YYYY-MM-DD).
func (r *Repository) ListActivitiesOn(ctx context.Context, accountID, day string) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE account_id = $1 AND NOT is_recurring AND day = $2
		ORDER BY time ASC
	`, accountID, day)
	if err != nil {
		return nil, err
	}
	return scanActivities(rows)
}

func (r *Repository) ListRecurringActivities(ctx context.Context, accountID string) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE account_id = $1 AND is_recurring
		ORDER BY time ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]model.Activity, error) {
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(
			&a.ID,
			&a.AccountID,
			&a.Name,
			&a.Day,
			&a.Time,
			&a.DurationMinutes,
			&a.Description,
			&a.IsRecurring,
			&a.RecurrenceRule,
			&a.Notes,
			&a.Status,
			&a.Tags,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
