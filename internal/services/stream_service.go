package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/daricheva/streamgate/internal/models"
	pkglogger "github.com/daricheva/streamgate/pkg/logger"
)

// StreamRepository defines the interface for reservation persistence
type StreamRepository interface {
	Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, string, error)
	Get(ctx context.Context, accountID string) (*models.ActiveStream, error)
	Release(ctx context.Context, accountID string) error
}

// StreamService enforces single-active-stream-per-account with
// last-in-wins takeover. A well-formed reserve call never fails at this
// layer; concurrent viewing is blocked indirectly, by the evicted
// device's next heartbeat coming back negative.
type StreamService struct {
	repo              StreamRepository
	heartbeatInterval time.Duration
	logger            *slog.Logger
	auditLogger       *pkglogger.AuditLogger
}

// NewStreamService creates a new StreamService
func NewStreamService(repo StreamRepository, heartbeatInterval time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *StreamService {
	return &StreamService{
		repo:              repo,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
		auditLogger:       auditLogger,
	}
}

// HeartbeatInterval returns the cadence clients should refresh at
func (s *StreamService) HeartbeatInterval() time.Duration {
	return s.heartbeatInterval
}

// Reserve claims the account's stream slot for deviceID, displacing any
// other device currently holding it
func (s *StreamService) Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, error) {
	stream, previousDeviceID, err := s.repo.Reserve(ctx, accountID, deviceID)
	if err != nil {
		s.logger.Error("stream reservation failed",
			slog.String("account_id", accountID),
			slog.Any("error", err))
		return nil, err
	}

	switch {
	case previousDeviceID == "":
		s.auditLogger.LogStreamEvent("stream_reserved", accountID, deviceID, nil)
	case previousDeviceID == deviceID:
		s.auditLogger.LogStreamEvent("stream_refreshed", accountID, deviceID, nil)
	default:
		s.auditLogger.LogStreamEvent("stream_takeover", accountID, deviceID, map[string]string{
			"evicted_device_id": previousDeviceID,
		})
	}

	return stream, nil
}

// Holder returns the account's current reservation, or ErrNotFound when
// no device is streaming
func (s *StreamService) Holder(ctx context.Context, accountID string) (*models.ActiveStream, error) {
	return s.repo.Get(ctx, accountID)
}

// Release drops the account's reservation. Idempotent.
func (s *StreamService) Release(ctx context.Context, accountID string) error {
	if err := s.repo.Release(ctx, accountID); err != nil {
		s.logger.Error("stream release failed",
			slog.String("account_id", accountID),
			slog.Any("error", err))
		return err
	}

	s.auditLogger.LogStreamEvent("stream_released", accountID, "", nil)
	return nil
}

// Heartbeat reports whether deviceID still holds the account's stream
// slot, refreshing the reservation when it does. The holder is checked
// before any refresh: an evicted device gets held=false and must stop
// playback rather than silently re-claim the slot. A missing reservation
// is re-acquired, since doing so displaces nobody.
func (s *StreamService) Heartbeat(ctx context.Context, accountID, deviceID string) (bool, error) {
	current, err := s.repo.Get(ctx, accountID)
	if errors.Is(err, models.ErrNotFound) {
		if _, err := s.Reserve(ctx, accountID, deviceID); err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if current.DeviceID != deviceID {
		s.auditLogger.LogStreamEvent("heartbeat_rejected", accountID, deviceID, map[string]string{
			"holder_device_id": current.DeviceID,
		})
		return false, nil
	}

	if _, err := s.Reserve(ctx, accountID, deviceID); err != nil {
		return false, err
	}

	return true, nil
}
