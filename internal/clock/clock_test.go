package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, Local)
}

func TestNextCutoff(t *testing.T) {
	// 2025-05-06 is a Tuesday.
	sameDay := time.Date(2025, 5, 6, 20, 0, 0, 0, time.UTC)
	nextWeek := time.Date(2025, 5, 13, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "tuesday before cutoff", now: local(2025, 5, 6, 16, 0), want: sameDay},
		{name: "tuesday exactly at cutoff", now: local(2025, 5, 6, 17, 0), want: sameDay},
		{name: "tuesday after cutoff minute", now: local(2025, 5, 6, 17, 1), want: nextWeek},
		{name: "tuesday evening", now: local(2025, 5, 6, 23, 59), want: nextWeek},
		{name: "monday", now: local(2025, 5, 5, 10, 0), want: sameDay},
		{name: "wednesday", now: local(2025, 5, 7, 9, 30), want: nextWeek},
		{name: "sunday", now: local(2025, 5, 11, 12, 0), want: nextWeek},
		// 2025-05-07 01:00 UTC is still Tuesday 22:00 locally.
		{name: "utc already wednesday local still tuesday", now: time.Date(2025, 5, 7, 1, 0, 0, 0, time.UTC), want: nextWeek},
		// 2025-05-06 02:00 UTC is Monday 23:00 locally.
		{name: "utc tuesday local monday", now: time.Date(2025, 5, 6, 2, 0, 0, 0, time.UTC), want: sameDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextCutoff(tt.now)
			assert.True(t, tt.want.Equal(got), "NextCutoff(%s) = %s, want %s", tt.now, got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNextCutoff_IsTuesdayInLocalZone(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*21; i++ {
		now := start.Add(time.Duration(i) * time.Hour)
		got := NextCutoff(now).In(Local)
		assert.Equal(t, time.Tuesday, got.Weekday())
		assert.Equal(t, 17, got.Hour())
		assert.Equal(t, 0, got.Minute())
		assert.LessOrEqual(t, got.Sub(now), 7*24*time.Hour)
	}
}

func TestHasStarted(t *testing.T) {
	kickoff := time.Date(2025, 5, 10, 19, 0, 0, 0, time.UTC)

	assert.False(t, HasStarted(kickoff, kickoff.Add(-time.Second)))
	assert.True(t, HasStarted(kickoff, kickoff))
	assert.True(t, HasStarted(kickoff, kickoff.Add(time.Minute)))
	assert.True(t, HasStarted(time.Time{}, kickoff), "unknown kickoff must lock")
}

func TestParseKickoff(t *testing.T) {
	got, ok := ParseKickoff("2025-05-10T19:00:00Z")
	assert.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 5, 10, 19, 0, 0, 0, time.UTC)))

	got, ok = ParseKickoff("2025-05-10T16:00:00-03:00")
	assert.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 5, 10, 19, 0, 0, 0, time.UTC)))

	for _, raw := range []string{"", "  ", "tomorrow", "2025-05-10"} {
		got, ok := ParseKickoff(raw)
		assert.False(t, ok, raw)
		assert.True(t, got.IsZero(), raw)
	}
}

func TestIsLocked(t *testing.T) {
	kickoff := time.Date(2025, 5, 10, 19, 0, 0, 0, time.UTC)
	before := kickoff.Add(-time.Hour)

	assert.False(t, IsLocked("SCHEDULED", kickoff, before))
	assert.False(t, IsLocked("timed", kickoff, before))
	assert.True(t, IsLocked("IN_PLAY", kickoff, before), "in-progress status locks regardless of kickoff")
	assert.True(t, IsLocked("FINISHED", kickoff, before))
	assert.True(t, IsLocked("POSTPONED", kickoff, before))
	assert.True(t, IsLocked("", kickoff, before))
	assert.True(t, IsLocked("TIMED", kickoff, kickoff))
}

func TestIsLocked_Monotonic(t *testing.T) {
	kickoff := time.Date(2025, 5, 10, 19, 0, 0, 0, time.UTC)
	start := kickoff.Add(-3 * time.Hour)

	for _, status := range []string{"SCHEDULED", "TIMED", "IN_PLAY", "FINISHED"} {
		locked := false
		for i := 0; i < 360; i++ {
			ref := start.Add(time.Duration(i) * time.Minute)
			now := IsLocked(status, kickoff, ref)
			if locked {
				assert.True(t, now, "status %s unlocked again at %s", status, ref)
			}
			locked = now
		}
		assert.True(t, locked, status)
	}
}
