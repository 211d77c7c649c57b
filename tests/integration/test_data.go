package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daricheva/streamgate/internal/models"
)

// TestAccount generates a unique account ID using timestamp
func TestAccount(suffix string) string {
	return fmt.Sprintf("acc-%d-%s", time.Now().UnixNano(), suffix)
}

// SeedDevice inserts a registered device directly, bypassing the
// admission path
func SeedDevice(ctx context.Context, pool *pgxpool.Pool, accountID, deviceID string, blocked bool) (*models.Device, error) {
	query := `
		INSERT INTO devices (id, account_id, device_id, user_agent, ip_address, first_seen, last_seen, blocked)
		VALUES (gen_random_uuid(), $1, $2, 'seed-agent', '198.51.100.1', NOW(), NOW(), $3)
		RETURNING id, account_id, device_id, first_seen, last_seen, blocked
	`

	var device models.Device
	err := pool.QueryRow(ctx, query, accountID, deviceID, blocked).Scan(
		&device.ID,
		&device.AccountID,
		&device.DeviceID,
		&device.FirstSeen,
		&device.LastSeen,
		&device.Blocked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert device: %w", err)
	}

	return &device, nil
}

// SeedActiveStream inserts a stream reservation directly
func SeedActiveStream(ctx context.Context, pool *pgxpool.Pool, accountID, deviceID string) (*models.ActiveStream, error) {
	query := `
		INSERT INTO active_streams (account_id, device_id, started_at)
		VALUES ($1, $2, NOW())
		RETURNING account_id, device_id, started_at
	`

	var stream models.ActiveStream
	err := pool.QueryRow(ctx, query, accountID, deviceID).Scan(
		&stream.AccountID,
		&stream.DeviceID,
		&stream.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert active stream: %w", err)
	}

	return &stream, nil
}
