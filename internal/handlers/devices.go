package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/models"
	pkghttp "github.com/daricheva/streamgate/pkg/http"
	"github.com/go-chi/chi/v5"
)

// DeviceServiceInterface defines the interface for device admission logic
type DeviceServiceInterface interface {
	CheckDevice(ctx context.Context, accountID, email string, info models.DeviceInfo) (models.AdmitStatus, error)
	ListDevices(ctx context.Context, accountID string) ([]*models.Device, error)
	RemoveDevice(ctx context.Context, accountID, deviceID string) error
	SetDeviceBlocked(ctx context.Context, accountID, deviceID string, blocked bool) error
	MaxDevices() int
}

// DeviceHandler handles device registry HTTP requests
type DeviceHandler struct {
	service  DeviceServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(service DeviceServiceInterface, ipConfig *pkghttp.IPConfig) *DeviceHandler {
	return &DeviceHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request/Response DTOs

// CheckDeviceRequest represents the request body for a device admission check
type CheckDeviceRequest struct {
	DeviceID  string `json:"device_id" validate:"required,min=1,max=128"`
	UserAgent string `json:"user_agent" validate:"omitempty,max=512"`
}

// CheckDeviceResponse represents the admission decision
type CheckDeviceResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// DeviceResponse represents a registered device in HTTP responses
type DeviceResponse struct {
	DeviceID  string `json:"device_id"`
	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
	Blocked   bool   `json:"blocked"`
}

// ListDevicesResponse represents the account's device list
type ListDevicesResponse struct {
	Devices    []*DeviceResponse `json:"devices"`
	MaxDevices int               `json:"max_devices"`
}

// SuccessResponse is the generic mutation acknowledgement
type SuccessResponse struct {
	Success bool `json:"success"`
}

// BlockDeviceRequest represents the admin request to block or unblock a device
type BlockDeviceRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	DeviceID  string `json:"device_id" validate:"required"`
	Blocked   bool   `json:"blocked"`
}

func deviceModelToResponse(device *models.Device) *DeviceResponse {
	return &DeviceResponse{
		DeviceID:  device.DeviceID,
		UserAgent: device.UserAgent,
		IPAddress: device.IPAddress,
		FirstSeen: device.FirstSeen.Format("2006-01-02T15:04:05Z07:00"),
		LastSeen:  device.LastSeen.Format("2006-01-02T15:04:05Z07:00"),
		Blocked:   device.Blocked,
	}
}

// CheckDevice handles the device admission check
//
// @Summary Check whether this device may be used under the account
// @Accept json
// @Param request body CheckDeviceRequest true "Device check request"
// @Produce json
// @Success 200 {object} CheckDeviceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} CheckDeviceResponse
// @Router /devices/check [post]
func (h *DeviceHandler) CheckDevice(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CheckDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	info := models.DeviceInfo{
		DeviceID:  req.DeviceID,
		UserAgent: userAgent,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
	}

	status, err := h.service.CheckDevice(r.Context(), claims.AccountID, claims.Email, info)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to check device")
		return
	}

	if !status.Allowed() {
		pkghttp.WriteJSON(w, http.StatusForbidden, CheckDeviceResponse{
			Allowed: false,
			Reason:  status.Reason(),
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CheckDeviceResponse{Allowed: true})
}

// ListDevices returns the account's registered devices
//
// @Summary List registered devices
// @Produce json
// @Success 200 {object} ListDevicesResponse
// @Failure 401 {object} ErrorResponse
// @Router /devices [get]
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	devices, err := h.service.ListDevices(r.Context(), claims.AccountID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list devices")
		return
	}

	resp := ListDevicesResponse{
		Devices:    make([]*DeviceResponse, 0, len(devices)),
		MaxDevices: h.service.MaxDevices(),
	}
	for _, device := range devices {
		resp.Devices = append(resp.Devices, deviceModelToResponse(device))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// RemoveDevice deletes a device registration
//
// @Summary Remove a registered device
// @Param deviceID path string true "Device ID"
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{deviceID} [delete]
func (h *DeviceHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		pkghttp.WriteBadRequest(w, "Device ID is required")
		return
	}

	if err := h.service.RemoveDevice(r.Context(), claims.AccountID, deviceID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Device not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to remove device")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// BlockDevice toggles the blocked flag on any account's device (admin only)
//
// @Summary Block or unblock a device
// @Accept json
// @Param request body BlockDeviceRequest true "Block request"
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/devices/block [post]
func (h *DeviceHandler) BlockDevice(w http.ResponseWriter, r *http.Request) {
	var req BlockDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.SetDeviceBlocked(r.Context(), req.AccountID, req.DeviceID, req.Blocked); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Device not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to update device")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
