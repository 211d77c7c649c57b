package repositories

import (
	"context"
	"time"

	"github.com/daricheva/streamgate/internal/database"
	"github.com/daricheva/streamgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StreamRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewStreamRepository(db *database.DB) *StreamRepository {
	return &StreamRepository{db: db, pool: db.Pool}
}

func scanStreamRow(scanner rowScanner) (*models.ActiveStream, error) {
	var stream models.ActiveStream

	err := scanner.Scan(&stream.AccountID, &stream.DeviceID, &stream.StartedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stream, nil
}

// Reserve claims the account's single stream slot for deviceID. A claim
// always succeeds: no row means a fresh reservation, the same device
// refreshes startedAt, and a different device overwrites the holder
// (last write wins). The previous holder's device id is returned so the
// caller can log the takeover.
//
// The claim is a single upsert so two devices racing to create the
// account's first reservation cannot both take an insert path and
// collide on the primary key; the loser's insert turns into the update.
func (r *StreamRepository) Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, string, error) {
	query := `
		WITH previous AS (
			SELECT device_id FROM active_streams WHERE account_id = $1
		)
		INSERT INTO active_streams (account_id, device_id, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE
			SET device_id = EXCLUDED.device_id, started_at = EXCLUDED.started_at
		RETURNING account_id, device_id, started_at,
			(SELECT device_id FROM previous)`

	var stream models.ActiveStream
	var previousDeviceID *string

	err := r.pool.QueryRow(ctx, query, accountID, deviceID, time.Now()).Scan(
		&stream.AccountID, &stream.DeviceID, &stream.StartedAt, &previousDeviceID,
	)
	if err != nil {
		return nil, "", database.MapPostgresError(err)
	}

	if previousDeviceID == nil {
		return &stream, "", nil
	}
	return &stream, *previousDeviceID, nil
}

// Get returns the account's current reservation, or ErrNotFound
func (r *StreamRepository) Get(ctx context.Context, accountID string) (*models.ActiveStream, error) {
	query := `SELECT account_id, device_id, started_at FROM active_streams WHERE account_id = $1`

	return scanStreamRow(r.pool.QueryRow(ctx, query, accountID))
}

// Release deletes the account's reservation. No-op when absent.
func (r *StreamRepository) Release(ctx context.Context, accountID string) error {
	query := `DELETE FROM active_streams WHERE account_id = $1`

	if _, err := r.pool.Exec(ctx, query, accountID); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}
