package models

import (
	"testing"
	"time"
)

func TestStatusFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	cases := []struct {
		name     string
		lastSeen *time.Time
		want     DeviceStatus
	}{
		{name: "never seen", lastSeen: nil, want: StatusOffline},
		{name: "seen 5 minutes ago", lastSeen: ago(5 * time.Minute), want: StatusOK},
		{name: "just under 15 minutes", lastSeen: ago(15*time.Minute - time.Second), want: StatusOK},
		{name: "exactly 15 minutes", lastSeen: ago(15 * time.Minute), want: StatusStale},
		{name: "seen 2 hours ago", lastSeen: ago(2 * time.Hour), want: StatusStale},
		{name: "just under 24 hours", lastSeen: ago(24*time.Hour - time.Second), want: StatusStale},
		{name: "exactly 24 hours", lastSeen: ago(24 * time.Hour), want: StatusOffline},
		{name: "seen 25 hours ago", lastSeen: ago(25 * time.Hour), want: StatusOffline},
		{name: "future timestamp counts as fresh", lastSeen: ago(-time.Minute), want: StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(tc.lastSeen, now); got != tc.want {
				t.Errorf("StatusFor() = %s, want %s", got, tc.want)
			}
		})
	}
}
