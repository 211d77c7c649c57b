package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daricheva/streamgate/internal/handlers"
	"github.com/daricheva/streamgate/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestCheckDevice_Allowed(t *testing.T) {
	mockService := &handlers.MockDeviceService{
		CheckDeviceFunc: func(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error) {
			assert.Equal(t, "u1", accountID)
			assert.Equal(t, "d1", info.DeviceID)
			return models.AdmitCreated, nil
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/devices/check", handlers.CheckDeviceRequest{
		DeviceID: "d1",
	})
	req = handlers.WithAuthContext(req, "u1", "u1@example.com")

	w := httptest.NewRecorder()
	handler.CheckDevice(w, req)

	var resp handlers.CheckDeviceResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Allowed)
	assert.Empty(t, resp.Reason)
}

func TestCheckDevice_CapReached(t *testing.T) {
	mockService := &handlers.MockDeviceService{
		CheckDeviceFunc: func(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error) {
			return models.AdmitRejectedCap, nil
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/devices/check", handlers.CheckDeviceRequest{
		DeviceID: "d4",
	})
	req = handlers.WithAuthContext(req, "u1", "")

	w := httptest.NewRecorder()
	handler.CheckDevice(w, req)

	var resp handlers.CheckDeviceResponse
	handlers.AssertJSONResponse(t, w, 403, &resp)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "device_limit_reached", resp.Reason)
}

func TestCheckDevice_BlockedDevice(t *testing.T) {
	mockService := &handlers.MockDeviceService{
		CheckDeviceFunc: func(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error) {
			return models.AdmitRejectedBlocked, nil
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/devices/check", handlers.CheckDeviceRequest{
		DeviceID: "d1",
	})
	req = handlers.WithAuthContext(req, "u1", "")

	w := httptest.NewRecorder()
	handler.CheckDevice(w, req)

	var resp handlers.CheckDeviceResponse
	handlers.AssertJSONResponse(t, w, 403, &resp)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "device_blocked", resp.Reason)
}

func TestCheckDevice_MissingDeviceID(t *testing.T) {
	handler := handlers.NewDeviceHandler(&handlers.MockDeviceService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/devices/check", handlers.CheckDeviceRequest{})
	req = handlers.WithAuthContext(req, "u1", "")

	w := httptest.NewRecorder()
	handler.CheckDevice(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCheckDevice_Unauthenticated(t *testing.T) {
	handler := handlers.NewDeviceHandler(&handlers.MockDeviceService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/devices/check", handlers.CheckDeviceRequest{
		DeviceID: "d1",
	})

	w := httptest.NewRecorder()
	handler.CheckDevice(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestListDevices_ReturnsDevicesAndCap(t *testing.T) {
	now := time.Now()
	mockService := &handlers.MockDeviceService{
		ListDevicesFunc: func(ctx context.Context, accountID string) ([]*models.Device, error) {
			return []*models.Device{
				{DeviceID: "d1", UserAgent: "Mozilla/5.0", FirstSeen: now, LastSeen: now},
				{DeviceID: "d2", FirstSeen: now, LastSeen: now, Blocked: true},
			}, nil
		},
		MaxDevicesValue: 2,
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "GET", "/devices", nil)
	req = handlers.WithAuthContext(req, "u1", "")

	w := httptest.NewRecorder()
	handler.ListDevices(w, req)

	var resp handlers.ListDevicesResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp.Devices, 2)
	assert.Equal(t, 2, resp.MaxDevices)
	assert.Equal(t, "d1", resp.Devices[0].DeviceID)
	assert.True(t, resp.Devices[1].Blocked)
}

func TestRemoveDevice_Success(t *testing.T) {
	removed := ""
	mockService := &handlers.MockDeviceService{
		RemoveDeviceFunc: func(ctx context.Context, accountID, deviceID string) error {
			removed = deviceID
			return nil
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "DELETE", "/devices/d1", nil)
	req = handlers.WithAuthContext(req, "u1", "")
	req = withURLParam(req, "deviceID", "d1")

	w := httptest.NewRecorder()
	handler.RemoveDevice(w, req)

	var resp handlers.SuccessResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "d1", removed)
}

func TestRemoveDevice_NotFound(t *testing.T) {
	mockService := &handlers.MockDeviceService{
		RemoveDeviceFunc: func(ctx context.Context, accountID, deviceID string) error {
			return models.ErrNotFound
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "DELETE", "/devices/missing", nil)
	req = handlers.WithAuthContext(req, "u1", "")
	req = withURLParam(req, "deviceID", "missing")

	w := httptest.NewRecorder()
	handler.RemoveDevice(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestBlockDevice_Success(t *testing.T) {
	blocked := false
	mockService := &handlers.MockDeviceService{
		SetDeviceBlockedFunc: func(ctx context.Context, accountID, deviceID string, b bool) error {
			assert.Equal(t, "u2", accountID)
			assert.Equal(t, "d1", deviceID)
			blocked = b
			return nil
		},
	}

	handler := handlers.NewDeviceHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/admin/devices/block", handlers.BlockDeviceRequest{
		AccountID: "u2",
		DeviceID:  "d1",
		Blocked:   true,
	})

	w := httptest.NewRecorder()
	handler.BlockDevice(w, req)

	var resp handlers.SuccessResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Success)
	assert.True(t, blocked)
}

// withURLParam injects a chi route parameter into the request context
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
