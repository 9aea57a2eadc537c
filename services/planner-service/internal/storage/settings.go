package storage

import (
	"context"

	"github.com/clevery/dayplanner/services/planner-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// GetSettings returns pgx.ErrNoRows when the account has no settings row.
func (r *Repository) GetSettings(ctx context.Context, accountID string) (model.Settings, error) {
	var s model.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT account_id, dark_mode, language, timezone, updated_at
		FROM account_settings
		WHERE account_id = $1
	`, accountID).Scan(&s.AccountID, &s.DarkMode, &s.Language, &s.Timezone, &s.UpdatedAt)
	if err != nil {
		return model.Settings{}, err
	}
	return s, nil
}

func (r *Repository) UpsertSettings(ctx context.Context, tx pgx.Tx, s *model.Settings) error {
	return tx.QueryRow(ctx, `
		INSERT INTO account_settings (account_id, dark_mode, language, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET dark_mode = EXCLUDED.dark_mode,
			language = EXCLUDED.language,
			timezone = EXCLUDED.timezone,
			updated_at = now()
		RETURNING updated_at
	`, s.AccountID, s.DarkMode, s.Language, s.Timezone).Scan(&s.UpdatedAt)
}

// EnsureSettings inserts s unless the account already has settings. It reports
// whether a row was created.
func (r *Repository) EnsureSettings(ctx context.Context, tx pgx.Tx, s model.Settings) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO account_settings (account_id, dark_mode, language, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO NOTHING
	`, s.AccountID, s.DarkMode, s.Language, s.Timezone)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListAccountIDs pages through known accounts ordered by id, starting after afterID.
func (r *Repository) ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id
		FROM account_settings
		WHERE account_id > $1
		ORDER BY account_id ASC
		LIMIT $2
	`, afterID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

// ProvisionSettings is EnsureSettings in its own transaction.
func (r *Repository) ProvisionSettings(ctx context.Context, s model.Settings) (bool, error) {
	var created bool
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = r.EnsureSettings(ctx, tx, s)
		return err
	})
	return created, err
}
