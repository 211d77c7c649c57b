package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/models"
	pkghttp "github.com/daricheva/streamgate/pkg/http"
)

// StreamServiceInterface defines the interface for stream reservation logic
type StreamServiceInterface interface {
	Reserve(ctx context.Context, accountID, deviceID string) (*models.ActiveStream, error)
	Holder(ctx context.Context, accountID string) (*models.ActiveStream, error)
	Release(ctx context.Context, accountID string) error
	Heartbeat(ctx context.Context, accountID, deviceID string) (bool, error)
	HeartbeatInterval() time.Duration
}

// StreamHandler handles stream reservation HTTP requests
type StreamHandler struct {
	service StreamServiceInterface
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(service StreamServiceInterface) *StreamHandler {
	return &StreamHandler{
		service: service,
	}
}

// Request/Response DTOs

// ReserveStreamRequest represents the request body for reserving the stream slot
type ReserveStreamRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=1,max=128"`
}

// ReserveStreamResponse acknowledges a reservation and tells the player
// how often to heartbeat
type ReserveStreamResponse struct {
	Success                  bool `json:"success"`
	HeartbeatIntervalSeconds int  `json:"heartbeat_interval_seconds"`
}

// HolderResponse represents the account's current reservation state
type HolderResponse struct {
	Active    bool   `json:"active"`
	DeviceID  string `json:"device_id,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
}

// HeartbeatRequest represents the request body for a playback heartbeat
type HeartbeatRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=1,max=128"`
}

// HeartbeatResponse reports whether the device still holds the stream slot
type HeartbeatResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Reserve claims the account's stream slot for the calling device
//
// @Summary Reserve the account's stream slot
// @Accept json
// @Param request body ReserveStreamRequest true "Reserve request"
// @Produce json
// @Success 200 {object} ReserveStreamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /stream [post]
func (h *StreamHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ReserveStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if _, err := h.service.Reserve(r.Context(), claims.AccountID, req.DeviceID); err != nil {
		pkghttp.WriteInternalError(w, "Failed to reserve stream")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ReserveStreamResponse{
		Success:                  true,
		HeartbeatIntervalSeconds: int(h.service.HeartbeatInterval().Seconds()),
	})
}

// Holder returns which device currently holds the account's stream slot
//
// @Summary Get current stream holder
// @Produce json
// @Success 200 {object} HolderResponse
// @Failure 401 {object} ErrorResponse
// @Router /stream [get]
func (h *StreamHandler) Holder(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	stream, err := h.service.Holder(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteJSON(w, http.StatusOK, HolderResponse{Active: false})
			return
		}
		pkghttp.WriteInternalError(w, "Failed to get stream holder")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HolderResponse{
		Active:    true,
		DeviceID:  stream.DeviceID,
		StartedAt: stream.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Release drops the account's reservation (player closed)
//
// @Summary Release the account's stream slot
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /stream [delete]
func (h *StreamHandler) Release(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Release(r.Context(), claims.AccountID); err != nil {
		pkghttp.WriteInternalError(w, "Failed to release stream")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Heartbeat refreshes the reservation while the device still holds it.
// An evicted device gets success=false and must stop playback.
//
// @Summary Playback heartbeat
// @Accept json
// @Param request body HeartbeatRequest true "Heartbeat request"
// @Produce json
// @Success 200 {object} HeartbeatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /stream/heartbeat [patch]
func (h *StreamHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetAccountFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	held, err := h.service.Heartbeat(r.Context(), claims.AccountID, req.DeviceID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to process heartbeat")
		return
	}

	if !held {
		pkghttp.WriteJSON(w, http.StatusOK, HeartbeatResponse{
			Success: false,
			Reason:  "stream_busy",
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HeartbeatResponse{Success: true})
}
