// Package deadline holds the timezone-qualified deadline arithmetic: a picked
// local date-time is captured as an absolute UTC instant plus the picking
// client's zone metadata, so display and comparison never depend on the zone
// of whoever looks at it later.
package deadline

import (
	"fmt"
	"time"
)

// DefaultBusinessZone is the IANA zone deadline extensions are rendered in
// before being sent to the record backend.
const DefaultBusinessZone = "Asia/Kolkata"

// ExtensionLayout is the fixed pattern the record backend expects for an
// extended deadline.
const ExtensionLayout = "2006-01-02 15:04:05"

// Captured is a deadline as stored: the absolute instant plus the metadata of
// the zone it was picked in. The zone fields are audit/display data only and
// never participate in comparisons.
type Captured struct {
	InstantUTC    string `json:"instant_utc"` // RFC3339
	OffsetMinutes int    `json:"timezone_offset_minutes"`
	ZoneName      string `json:"timezone_name"`
}

// Countdown is the decomposed time remaining until a deadline.
type Countdown struct {
	Days      int  `json:"days"`
	Hours     int  `json:"hours"`
	Minutes   int  `json:"minutes"`
	Seconds   int  `json:"seconds"`
	Completed bool `json:"completed"`
}

// Capture records a picked local date-time as an absolute instant together
// with the picker's zone metadata.
func Capture(picked time.Time) Captured {
	zone, offsetSec := picked.Zone()
	return Captured{
		// Nano keeps the round trip lossless for sub-second picks; parsing
		// accepts either form.
		InstantUTC:    picked.UTC().Format(time.RFC3339Nano),
		OffsetMinutes: offsetSec / 60,
		ZoneName:      zone,
	}
}

// Instant reconstructs the absolute instant of a captured deadline. The result
// depends only on the stored instant, never on the local zone of the caller.
func (c Captured) Instant() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.InstantUTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse deadline instant %q: %w", c.InstantUTC, err)
	}
	return t, nil
}

// Remaining decomposes the duration from now until the deadline instant.
// A lapsed deadline yields a zeroed countdown with Completed set.
func Remaining(deadlineInstant, now time.Time) Countdown {
	if !deadlineInstant.After(now) {
		return Countdown{Completed: true}
	}
	total := int(deadlineInstant.Sub(now) / time.Second)
	return Countdown{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// String renders the countdown with two-digit zero padding per field.
func (c Countdown) String() string {
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

// Selectable is the picker constraint: candidates strictly earlier than now
// are rejected, the boundary candidate == now is accepted.
func Selectable(candidate, now time.Time) bool {
	return !candidate.Before(now)
}

// FormatExtension renders an instant in the business zone using the fixed
// backend pattern.
func FormatExtension(instant time.Time, businessZone string) (string, error) {
	loc, err := time.LoadLocation(businessZone)
	if err != nil {
		return "", fmt.Errorf("load business zone %q: %w", businessZone, err)
	}
	return instant.In(loc).Format(ExtensionLayout), nil
}
