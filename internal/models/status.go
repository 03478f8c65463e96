package models

import "time"

// DeviceStatus — производный статус живости по last_seen_at.
type DeviceStatus string

const (
	StatusOK      DeviceStatus = "OK"
	StatusStale   DeviceStatus = "STALE"
	StatusOffline DeviceStatus = "OFFLINE"
)

const (
	okWindow    = 15 * time.Minute
	staleWindow = 24 * time.Hour
)

// StatusFor classifies a liveness snapshot against the given instant.
// Pure: callers pass their own clock, nothing is memoized.
func StatusFor(lastSeenAt *time.Time, now time.Time) DeviceStatus {
	if lastSeenAt == nil {
		return StatusOffline
	}
	age := now.Sub(*lastSeenAt)
	switch {
	case age < okWindow:
		return StatusOK
	case age < staleWindow:
		return StatusStale
	default:
		return StatusOffline
	}
}
