package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/daricheva/streamgate/internal/models"
	pkglogger "github.com/daricheva/streamgate/pkg/logger"
)

// DeviceRepository defines the interface for device persistence operations
type DeviceRepository interface {
	Admit(ctx context.Context, accountID string, info models.DeviceInfo, maxDevices int) (*models.Device, models.AdmitStatus, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Device, error)
	Remove(ctx context.Context, accountID, deviceID string) error
	SetBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error
}

// DeviceNotifier sends security notifications about device activity.
// Failures are logged and swallowed; notification delivery never affects
// the admission decision.
type DeviceNotifier interface {
	NotifyNewDevice(ctx context.Context, email string, device *models.Device) error
	NotifyDeviceLimitReached(ctx context.Context, email, deviceID string) error
}

// DeviceService implements the per-account device admission policy
type DeviceService struct {
	repo        DeviceRepository
	notifier    DeviceNotifier
	maxDevices  int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewDeviceService creates a new DeviceService
func NewDeviceService(repo DeviceRepository, notifier DeviceNotifier, maxDevices int, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *DeviceService {
	return &DeviceService{
		repo:        repo,
		notifier:    notifier,
		maxDevices:  maxDevices,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// MaxDevices returns the configured per-account device cap
func (s *DeviceService) MaxDevices() int {
	return s.maxDevices
}

// CheckDevice decides whether the device may be admitted for the
// account. A previously admitted device is always re-admitted and has
// its metadata refreshed; a new device is admitted only below the cap.
// Rejection is side-effect-free.
func (s *DeviceService) CheckDevice(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error) {
	device, status, err := s.repo.Admit(ctx, accountID, info, s.maxDevices)
	if errors.Is(err, models.ErrConflict) {
		// Lost a race against the same device id registering concurrently;
		// the record now exists, so a second attempt takes the refresh path
		device, status, err = s.repo.Admit(ctx, accountID, info, s.maxDevices)
	}
	if err != nil {
		s.logger.Error("device admission check failed",
			slog.String("account_id", accountID),
			slog.Any("error", err))
		return 0, err
	}

	s.auditLogger.LogDeviceEvent(pkglogger.AuditEvent{
		EventType:     "device_check",
		AccountID:     accountID,
		DeviceID:      info.DeviceID,
		IPAddress:     info.IPAddress,
		UserAgent:     info.UserAgent,
		Success:       status.Allowed(),
		FailureReason: status.Reason(),
	})

	switch status {
	case models.AdmitCreated:
		s.notify(func(ctx context.Context) error {
			return s.notifier.NotifyNewDevice(ctx, email, device)
		})
	case models.AdmitRejectedCap:
		s.notify(func(ctx context.Context) error {
			return s.notifier.NotifyDeviceLimitReached(ctx, email, info.DeviceID)
		})
	}

	return status, nil
}

// ListDevices returns all devices registered to the account
func (s *DeviceService) ListDevices(ctx context.Context, accountID string) ([]*models.Device, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// RemoveDevice deletes a device registration, freeing a cap slot
func (s *DeviceService) RemoveDevice(ctx context.Context, accountID, deviceID string) error {
	if err := s.repo.Remove(ctx, accountID, deviceID); err != nil {
		return err
	}

	s.auditLogger.LogDeviceEvent(pkglogger.AuditEvent{
		EventType: "device_removed",
		AccountID: accountID,
		DeviceID:  deviceID,
		Success:   true,
	})

	return nil
}

// SetDeviceBlocked toggles the blocked flag on a device (admin action)
func (s *DeviceService) SetDeviceBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error {
	if err := s.repo.SetBlocked(ctx, accountID, deviceID, blocked); err != nil {
		return err
	}

	eventType := "device_unblocked"
	if blocked {
		eventType = "device_blocked"
	}
	s.auditLogger.LogDeviceEvent(pkglogger.AuditEvent{
		EventType: eventType,
		AccountID: accountID,
		DeviceID:  deviceID,
		Success:   true,
	})

	return nil
}

// notify runs a notification send off the request path. Delivery errors
// are logged, never surfaced.
func (s *DeviceService) notify(send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error("device notification failed", slog.Any("error", err))
		}
	}()
}
