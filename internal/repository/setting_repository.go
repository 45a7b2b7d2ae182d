package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingRepository persists per-user JSON values under fixed key names
// (last session snapshot, session history, weak areas, settings record).
// User id 0 is the shared anonymous scope.
type SettingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get returns the stored JSON for a key, or nil when the key is absent.
func (r *SettingRepository) Get(ctx context.Context, userID int, key string) (json.RawMessage, error) {
	var value []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE user_id = $1 AND key = $2`,
		userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, userID int, key string, value json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO app_settings (user_id, key, value, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		userID, key, value)
	return err
}

func (r *SettingRepository) Delete(ctx context.Context, userID int, key string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM app_settings WHERE user_id = $1 AND key = $2`,
		userID, key)
	return err
}
