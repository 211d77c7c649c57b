package services

import (
	"context"
	"sync"
	"time"

	"github.com/daricheva/streamgate/internal/models"
	"github.com/google/uuid"
)

// FakeDeviceRepository is an in-memory DeviceRepository with the same
// admission semantics as the SQL implementation
type FakeDeviceRepository struct {
	mu      sync.Mutex
	devices map[string]map[string]*models.Device // accountID -> deviceID -> device

	AdmitErr error // forced storage failure
}

func NewFakeDeviceRepository() *FakeDeviceRepository {
	return &FakeDeviceRepository{
		devices: make(map[string]map[string]*models.Device),
	}
}

func (f *FakeDeviceRepository) Admit(ctx context.Context, accountID string, info models.DeviceInfo, maxDevices int) (*models.Device, models.AdmitStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.AdmitErr != nil {
		return nil, 0, f.AdmitErr
	}

	account := f.devices[accountID]
	if account == nil {
		account = make(map[string]*models.Device)
		f.devices[accountID] = account
	}

	if existing, ok := account[info.DeviceID]; ok {
		if existing.Blocked {
			return existing, models.AdmitRejectedBlocked, nil
		}
		existing.LastSeen = time.Now()
		existing.UserAgent = info.UserAgent
		existing.IPAddress = info.IPAddress
		return existing, models.AdmitExisting, nil
	}

	active := 0
	for _, d := range account {
		if !d.Blocked {
			active++
		}
	}
	if active >= maxDevices {
		return nil, models.AdmitRejectedCap, nil
	}

	now := time.Now()
	device := &models.Device{
		ID:        uuid.New().String(),
		AccountID: accountID,
		DeviceID:  info.DeviceID,
		UserAgent: info.UserAgent,
		IPAddress: info.IPAddress,
		FirstSeen: now,
		LastSeen:  now,
	}
	account[info.DeviceID] = device
	return device, models.AdmitCreated, nil
}

func (f *FakeDeviceRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	devices := make([]*models.Device, 0)
	for _, d := range f.devices[accountID] {
		devices = append(devices, d)
	}
	return devices, nil
}

func (f *FakeDeviceRepository) Remove(ctx context.Context, accountID, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account := f.devices[accountID]
	if _, ok := account[deviceID]; !ok {
		return models.ErrNotFound
	}
	delete(account, deviceID)
	return nil
}

func (f *FakeDeviceRepository) SetBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account := f.devices[accountID]
	device, ok := account[deviceID]
	if !ok {
		return models.ErrNotFound
	}
	device.Blocked = blocked
	return nil
}

// FakeStreamRepository is an in-memory StreamRepository with
// last-write-wins reservation semantics
type FakeStreamRepository struct {
	mu      sync.Mutex
	streams map[string]*models.ActiveStream // accountID -> reservation

	ReserveErr error // forced storage failure
}

func NewFakeStreamRepository() *FakeStreamRepository {
	return &FakeStreamRepository{
		streams: make(map[string]*models.ActiveStream),
	}
}

func (f *FakeStreamRepository) Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReserveErr != nil {
		return nil, "", f.ReserveErr
	}

	previousDeviceID := ""
	if existing, ok := f.streams[accountID]; ok {
		previousDeviceID = existing.DeviceID
	}

	stream := &models.ActiveStream{
		AccountID: accountID,
		DeviceID:  deviceID,
		StartedAt: time.Now(),
	}
	f.streams[accountID] = stream
	return stream, previousDeviceID, nil
}

func (f *FakeStreamRepository) Get(ctx context.Context, accountID string) (*models.ActiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stream, ok := f.streams[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return stream, nil
}

func (f *FakeStreamRepository) Release(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.streams, accountID)
	return nil
}

// Count returns the number of reservations across all accounts
func (f *FakeStreamRepository) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

// RecordingNotifier captures notifications for test assertions
type RecordingNotifier struct {
	mu              sync.Mutex
	NewDeviceEmails []string
	LimitEmails     []string
}

func (n *RecordingNotifier) NotifyNewDevice(ctx context.Context, email string, device *models.Device) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NewDeviceEmails = append(n.NewDeviceEmails, email)
	return nil
}

func (n *RecordingNotifier) NotifyDeviceLimitReached(ctx context.Context, email, deviceID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.LimitEmails = append(n.LimitEmails, email)
	return nil
}
