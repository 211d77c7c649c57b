package models

import (
	"time"
)

// ActiveStream records which device currently holds the exclusive right
// to stream under an account. At most one row exists per account; a new
// claim from a different device overwrites the row (last write wins).
type ActiveStream struct {
	AccountID string
	DeviceID  string
	StartedAt time.Time
}
