package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/wordbridge/linguameter/internal/clock"
	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/period"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type contingentStub struct {
	ensured []string
}

func (c *contingentStub) IsExceeded(ctx context.Context, period, userID string) (contingentdomain.Decision, error) {
	return contingentdomain.Decision{}, nil
}

func (c *contingentStub) Status(ctx context.Context, period, userID string) (contingentdomain.Status, error) {
	return contingentdomain.Status{}, nil
}

func (c *contingentStub) EnsureConfig(ctx context.Context, period string) error {
	c.ensured = append(c.ensured, period)
	return nil
}

func (c *contingentStub) ListUserUsage(ctx context.Context, period string) ([]contingentdomain.UserUsage, error) {
	return nil, nil
}

func TestTick_EnsuresConfigAcrossRollover(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.September, 30, 23, 0, 0, 0, time.UTC))
	contingent := &contingentStub{}

	s := New(Params{
		Log:        zap.NewNop(),
		Periods:    period.NewResolver(fake),
		Contingent: contingent,
	})

	ctx := context.Background()
	s.tick(ctx)
	assert.Equal(t, []string{"2026-09"}, contingent.ensured)

	fake.Advance(2 * time.Hour)
	s.tick(ctx)
	assert.Equal(t, []string{"2026-09", "2026-10"}, contingent.ensured)
	assert.Equal(t, "2026-10", s.lastPeriod)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)

	cfg = Config{RunInterval: 5 * time.Minute}.withDefaults()
	assert.Equal(t, 5*time.Minute, cfg.RunInterval)
}
