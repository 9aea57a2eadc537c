package storage

import (
	"context"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateRoutineBlock(ctx context.Context, tx pgx.Tx, b *model.RoutineBlock) (string, error) {
	id := newID(b.ID)
	var weekday *int
	if b.Weekday != nil {
		wd := int(*b.Weekday)
		weekday = &wd
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO routine_blocks (id, account_id, name, weekday, time, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, id, b.AccountID, b.Name, weekday, b.Time, b.DurationMinutes).Scan(&b.CreatedAt)
	if err != nil {
		return "", err
	}
	b.ID = id
	return id, nil
}

func (r *Repository) DeleteRoutineBlock(ctx context.Context, tx pgx.Tx, accountID, id string) error {
	return deleteOwned(ctx, tx, "routine_blocks", accountID, id)
}

func (r *Repository) ListRoutineBlocks(ctx context.Context, accountID string) ([]model.RoutineBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id, name, weekday, time, duration_minutes, created_at
		FROM routine_blocks
		WHERE account_id = $1
		ORDER BY time ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoutineBlock
	for rows.Next() {
		var b model.RoutineBlock
		var weekday *int
		if err := rows.Scan(&b.ID, &b.AccountID, &b.Name, &weekday, &b.Time, &b.DurationMinutes, &b.CreatedAt); err != nil {
			return nil, err
		}
		if weekday != nil {
			wd := time.Weekday(*weekday)
			b.Weekday = &wd
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
