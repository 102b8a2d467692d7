// Package clock holds the time rules of a round: when submissions close and
// when a match counts as started.
package clock

import (
	"strings"
	"time"
)

const (
	// CutoffWeekday and CutoffHour anchor every round's lock time.
	CutoffWeekday = time.Tuesday
	CutoffHour    = 17

	// localOffset is a fixed UTC-3 offset. No daylight-saving adjustment.
	localOffset = -3 * 60 * 60
)

// Local is the fixed-offset zone the cutoff is expressed in.
var Local = time.FixedZone("UTC-3", localOffset)

// schedulable lists the statuses under which a match still accepts picks.
var schedulable = map[string]bool{
	"SCHEDULED": true,
	"TIMED":     true,
}

// NextCutoff returns the next Tuesday 17:00 in UTC-3, expressed in UTC.
// On a Tuesday up to 17:00 (inclusive of the 17:00 minute) it returns the same day.
func NextCutoff(now time.Time) time.Time {
	local := now.In(Local)

	days := (int(CutoffWeekday) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		afterCutoff := local.Hour() > CutoffHour || (local.Hour() == CutoffHour && local.Minute() > 0)
		if afterCutoff {
			days = 7
		}
	}

	y, m, d := local.Date()
	cutoff := time.Date(y, m, d+days, CutoffHour, 0, 0, 0, Local)
	return cutoff.UTC()
}

// HasStarted reports whether reference is at or past kickoff.
// A zero kickoff (unknown or unparsable) counts as started.
func HasStarted(kickoff, reference time.Time) bool {
	if kickoff.IsZero() {
		return true
	}
	return !reference.Before(kickoff)
}

// ParseKickoff parses a provider kickoff string. The second return is false
// when the value is unusable; callers should then keep the zero time.
func ParseKickoff(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// IsSchedulable reports whether status still allows predictions.
func IsSchedulable(status string) bool {
	return schedulable[strings.ToUpper(strings.TrimSpace(status))]
}

// IsLocked reports whether a match with the given status and kickoff no longer
// accepts predictions at reference.
func IsLocked(status string, kickoff, reference time.Time) bool {
	return !IsSchedulable(status) || HasStarted(kickoff, reference)
}
