package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wordbridge/linguameter/internal/clock"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero padded month", time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC), "2026-03"},
		{"double digit month", time.Date(2025, time.November, 30, 23, 59, 59, 0, time.UTC), "2025-11"},
		{"january first instant", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2026-01"},
		{"december last instant", time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC), "2026-12"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Key(tc.at))
		})
	}
}

func TestResolverRollover(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC))
	r := NewResolver(fake)

	assert.Equal(t, "2026-01", r.Current())

	fake.Advance(2 * time.Hour)
	assert.Equal(t, "2026-02", r.Current())
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("2026-01"))
	assert.True(t, Valid("1999-12"))
	assert.False(t, Valid("2026-13"))
	assert.False(t, Valid("2026-1"))
	assert.False(t, Valid("2026-00"))
	assert.False(t, Valid("garbage"))
	assert.False(t, Valid(""))
}
