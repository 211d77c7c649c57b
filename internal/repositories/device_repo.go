package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daricheva/streamgate/internal/database"
	"github.com/daricheva/streamgate/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewDeviceRepository(db *database.DB) *DeviceRepository {
	return &DeviceRepository{db: db, pool: db.Pool}
}

const deviceColumns = `id, account_id, device_id, user_agent, ip_address, first_seen, last_seen, blocked`

// rowScanner interface for scanning device rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDeviceRow handles nullable fields and populates a Device model from a database row
func scanDeviceRow(scanner rowScanner) (*models.Device, error) {
	var device models.Device
	var userAgent, ipAddress *string

	err := scanner.Scan(
		&device.ID, &device.AccountID, &device.DeviceID,
		&userAgent, &ipAddress,
		&device.FirstSeen, &device.LastSeen, &device.Blocked,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if userAgent != nil {
		device.UserAgent = *userAgent
	}
	if ipAddress != nil {
		device.IPAddress = *ipAddress
	}

	return &device, nil
}

func scanDeviceRows(rows pgx.Rows) ([]*models.Device, error) {
	defer rows.Close()

	devices := make([]*models.Device, 0)

	for rows.Next() {
		device, err := scanDeviceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return devices, nil
}

// Admit decides whether (accountID, info.DeviceID) may be admitted under
// the given cap and persists the outcome. A known device gets its
// metadata refreshed regardless of the cap; a new device is inserted
// only while the account's non-blocked device count is below the cap.
// Rejections write nothing.
//
// The whole check-then-act sequence runs inside one transaction holding
// a per-account advisory lock, so two first-time registrations racing at
// the cap boundary cannot both pass the count check.
func (r *DeviceRepository) Admit(ctx context.Context, accountID string, info models.DeviceInfo, maxDevices int) (*models.Device, models.AdmitStatus, error) {
	var device *models.Device
	var status models.AdmitStatus

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Serialize admission per account for the duration of the transaction
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, accountID); err != nil {
			return fmt.Errorf("failed to acquire admission lock: %w", err)
		}

		query := `SELECT ` + deviceColumns + ` FROM devices WHERE account_id = $1 AND device_id = $2`
		existing, err := scanDeviceRow(tx.QueryRow(ctx, query, accountID, info.DeviceID))

		switch {
		case err == nil:
			if existing.Blocked {
				device = existing
				status = models.AdmitRejectedBlocked
				return nil
			}

			update := `
				UPDATE devices SET last_seen = $1, user_agent = $2, ip_address = $3
				WHERE id = $4
				RETURNING ` + deviceColumns
			device, err = scanDeviceRow(tx.QueryRow(ctx, update,
				time.Now(), nullable(info.UserAgent), nullable(info.IPAddress), existing.ID,
			))
			if err != nil {
				return fmt.Errorf("failed to refresh device: %w", err)
			}
			status = models.AdmitExisting
			return nil

		case errors.Is(err, models.ErrNotFound):
			now := time.Now()
			insert := `
				INSERT INTO devices (id, account_id, device_id, user_agent, ip_address, first_seen, last_seen, blocked)
				SELECT $1, $2, $3, $4, $5, $6, $6, false
				WHERE (SELECT COUNT(*) FROM devices WHERE account_id = $2 AND blocked = false) < $7
				RETURNING ` + deviceColumns
			device, err = scanDeviceRow(tx.QueryRow(ctx, insert,
				uuid.New().String(), accountID, info.DeviceID,
				nullable(info.UserAgent), nullable(info.IPAddress), now, maxDevices,
			))
			if errors.Is(err, models.ErrNotFound) {
				// Cap reached: the conditional insert wrote nothing
				device = nil
				status = models.AdmitRejectedCap
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to insert device: %w", err)
			}
			status = models.AdmitCreated
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, 0, err
	}

	return device, status, nil
}

// ListByAccount returns all device records for an account, newest first
func (r *DeviceRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE account_id = $1 ORDER BY first_seen DESC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}

	return scanDeviceRows(rows)
}

// Remove deletes a specific device record
func (r *DeviceRepository) Remove(ctx context.Context, accountID, deviceID string) error {
	query := `DELETE FROM devices WHERE account_id = $1 AND device_id = $2`

	result, err := r.pool.Exec(ctx, query, accountID, deviceID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetBlocked toggles the blocked flag on a device record
func (r *DeviceRepository) SetBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error {
	query := `UPDATE devices SET blocked = $1 WHERE account_id = $2 AND device_id = $3`

	result, err := r.pool.Exec(ctx, query, blocked, accountID, deviceID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CountActive returns the number of non-blocked devices for an account
func (r *DeviceRepository) CountActive(ctx context.Context, accountID string) (int, error) {
	query := `SELECT COUNT(*) FROM devices WHERE account_id = $1 AND blocked = false`

	var count int
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
