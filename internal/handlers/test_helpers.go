package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/models"
	pkghttp "github.com/daricheva/streamgate/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds account claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, accountID, email string) *http.Request {
	claims := &models.TokenClaims{
		AccountID: accountID,
		Email:     email,
		Role:      "user",
		Type:      "access",
	}
	ctx := context.WithValue(req.Context(), auth.AccountContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockDeviceService implements DeviceServiceInterface for testing
type MockDeviceService struct {
	CheckDeviceFunc      func(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error)
	ListDevicesFunc      func(ctx context.Context, accountID string) ([]*models.Device, error)
	RemoveDeviceFunc     func(ctx context.Context, accountID, deviceID string) error
	SetDeviceBlockedFunc func(ctx context.Context, accountID, deviceID string, blocked bool) error
	MaxDevicesValue      int
}

func (m *MockDeviceService) CheckDevice(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error) {
	if m.CheckDeviceFunc != nil {
		return m.CheckDeviceFunc(ctx, accountID, email, info)
	}
	return models.AdmitCreated, nil
}

func (m *MockDeviceService) ListDevices(ctx context.Context, accountID string) ([]*models.Device, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx, accountID)
	}
	return []*models.Device{}, nil
}

func (m *MockDeviceService) RemoveDevice(ctx context.Context, accountID, deviceID string) error {
	if m.RemoveDeviceFunc != nil {
		return m.RemoveDeviceFunc(ctx, accountID, deviceID)
	}
	return nil
}

func (m *MockDeviceService) SetDeviceBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error {
	if m.SetDeviceBlockedFunc != nil {
		return m.SetDeviceBlockedFunc(ctx, accountID, deviceID, blocked)
	}
	return nil
}

func (m *MockDeviceService) MaxDevices() int {
	if m.MaxDevicesValue != 0 {
		return m.MaxDevicesValue
	}
	return 3
}

// MockStreamService implements StreamServiceInterface for testing
type MockStreamService struct {
	ReserveFunc   func(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, error)
	HolderFunc    func(ctx context.Context, accountID string) (*models.ActiveStream, error)
	ReleaseFunc   func(ctx context.Context, accountID string) error
	HeartbeatFunc func(ctx context.Context, accountID, deviceID string) (bool, error)
}

func (m *MockStreamService) Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, accountID, deviceID)
	}
	return &models.ActiveStream{AccountID: accountID, DeviceID: deviceID, StartedAt: time.Now()}, nil
}

func (m *MockStreamService) Holder(ctx context.Context, accountID string) (*models.ActiveStream, error) {
	if m.HolderFunc != nil {
		return m.HolderFunc(ctx, accountID)
	}
	return nil, models.ErrNotFound
}

func (m *MockStreamService) Release(ctx context.Context, accountID string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, accountID)
	}
	return nil
}

func (m *MockStreamService) Heartbeat(ctx context.Context, accountID, deviceID string) (bool, error) {
	if m.HeartbeatFunc != nil {
		return m.HeartbeatFunc(ctx, accountID, deviceID)
	}
	return true, nil
}

func (m *MockStreamService) HeartbeatInterval() time.Duration {
	return 30 * time.Second
}
