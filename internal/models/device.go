package models

import (
	"time"
)

// Device is a physical client installation bound to an account.
// The (AccountID, DeviceID) pair is unique; DeviceID is a stable
// client-generated identifier string.
type Device struct {
	ID        string
	AccountID string
	DeviceID  string
	UserAgent string
	IPAddress string
	FirstSeen time.Time
	LastSeen  time.Time
	Blocked   bool
}

// DeviceInfo carries the client-reported metadata presented on an
// admission check.
type DeviceInfo struct {
	DeviceID  string
	UserAgent string
	IPAddress string
}

// AdmitStatus is the outcome of a device admission check.
type AdmitStatus int

const (
	// AdmitExisting means the device was already registered and its
	// metadata was refreshed.
	AdmitExisting AdmitStatus = iota
	// AdmitCreated means a new device record was created under the cap.
	AdmitCreated
	// AdmitRejectedCap means the account is at its device cap; no record
	// was written.
	AdmitRejectedCap
	// AdmitRejectedBlocked means the device record exists but is blocked.
	AdmitRejectedBlocked
)

// Allowed reports whether the status is an admitted outcome.
func (s AdmitStatus) Allowed() bool {
	return s == AdmitExisting || s == AdmitCreated
}

// Reason returns the machine-readable rejection reason code, or "" for
// admitted outcomes.
func (s AdmitStatus) Reason() string {
	switch s {
	case AdmitRejectedCap:
		return "device_limit_reached"
	case AdmitRejectedBlocked:
		return "device_blocked"
	default:
		return ""
	}
}
