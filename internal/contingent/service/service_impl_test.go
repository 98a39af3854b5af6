package service

import (
	"context"
	"errors"
	"testing"

	domain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/docstore"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func defaultConfig() domain.Config {
	return domain.Config{
		PerUserMonthlyLimit: 10_000,
		GlobalMonthlyLimit:  500_000,
		GlobalBuffer:        5_000,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         domain.Config
		globalChars int64
		userChars   int64
		exceeded    bool
		reason      string
	}{
		{
			name: "under all limits",
			cfg:  defaultConfig(),
		},
		{
			name:        "stop all wins over everything",
			cfg:         domain.Config{StopAll: true, PerUserMonthlyLimit: 10_000, GlobalMonthlyLimit: 500_000, GlobalBuffer: 5_000},
			globalChars: 0,
			userChars:   0,
			exceeded:    true,
			reason:      domain.ReasonStopAll,
		},
		{
			name:        "global at limit minus buffer is exceeded",
			cfg:         defaultConfig(),
			globalChars: 495_000,
			exceeded:    true,
			reason:      domain.ReasonGlobalLimit,
		},
		{
			name:        "global just under threshold is allowed",
			cfg:         defaultConfig(),
			globalChars: 494_999,
		},
		{
			name:      "user at limit is exceeded",
			cfg:       defaultConfig(),
			userChars: 10_000,
			exceeded:  true,
			reason:    domain.ReasonUserLimit,
		},
		{
			name:      "user just under limit is allowed",
			cfg:       defaultConfig(),
			userChars: 9_999,
		},
		{
			name:        "global check evaluated before user check",
			cfg:         defaultConfig(),
			globalChars: 495_000,
			userChars:   10_000,
			exceeded:    true,
			reason:      domain.ReasonGlobalLimit,
		},
		{
			name:     "zero global limit blocks immediately",
			cfg:      domain.Config{PerUserMonthlyLimit: 10_000, GlobalMonthlyLimit: 0, GlobalBuffer: 0},
			exceeded: true,
			reason:   domain.ReasonGlobalLimit,
		},
		{
			name:        "negative buffer raises effective global threshold",
			cfg:         domain.Config{PerUserMonthlyLimit: 10_000, GlobalMonthlyLimit: 500_000, GlobalBuffer: -1_000},
			globalChars: 500_500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.cfg, tt.globalChars, tt.userChars)
			assert.Equal(t, tt.exceeded, decision.Exceeded)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

type repoStub struct {
	cfg         domain.Config
	globalChars int64
	userChars   int64

	ensureErr error
	readErr   error

	ensured []string
}

func (r *repoStub) ReadConfig(ctx context.Context, period string) (domain.Config, error) {
	if r.readErr != nil {
		return domain.Config{}, r.readErr
	}
	return r.cfg, nil
}

func (r *repoStub) EnsureConfigExists(ctx context.Context, period string) error {
	if r.ensureErr != nil {
		return r.ensureErr
	}
	r.ensured = append(r.ensured, period)
	return nil
}

func (r *repoStub) ReadUserUsage(ctx context.Context, userID, period string) (domain.UserUsage, error) {
	if r.readErr != nil {
		return domain.UserUsage{}, r.readErr
	}
	return domain.UserUsage{UserID: userID, CharCount: r.userChars}, nil
}

func (r *repoStub) ReadGlobalUsage(ctx context.Context, period string) (int64, error) {
	if r.readErr != nil {
		return 0, r.readErr
	}
	return r.globalChars, nil
}

func (r *repoStub) IncrementUserUsage(ctx context.Context, userID, period string, deltaChars int64, targetLanguages []string) error {
	return nil
}

func (r *repoStub) IncrementGlobalUsage(ctx context.Context, period string, deltaChars int64) error {
	return nil
}

func (r *repoStub) ListUserUsage(ctx context.Context, period string) ([]domain.UserUsage, error) {
	return nil, nil
}

func newService(repo domain.Repository) domain.Service {
	return NewService(Params{
		Repo: repo,
		Log:  zap.NewNop(),
	})
}

func TestIsExceeded_EnsuresConfigBeforeEvaluating(t *testing.T) {
	repo := &repoStub{cfg: defaultConfig()}
	svc := newService(repo)

	decision, err := svc.IsExceeded(context.Background(), "2026-09", "user-1")
	assert.NoError(t, err)
	assert.False(t, decision.Exceeded)
	assert.Equal(t, []string{"2026-09"}, repo.ensured)
}

func TestIsExceeded_FailsClosedOnStoreError(t *testing.T) {
	storeErr := errors.New("docstore: unavailable: connection refused")

	repo := &repoStub{cfg: defaultConfig(), ensureErr: storeErr}
	svc := newService(repo)

	_, err := svc.IsExceeded(context.Background(), "2026-09", "user-1")
	assert.ErrorIs(t, err, storeErr)

	repo = &repoStub{cfg: defaultConfig(), readErr: docstore.ErrUnavailable}
	svc = newService(repo)

	_, err = svc.IsExceeded(context.Background(), "2026-09", "user-1")
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
}

func TestIsExceeded_DeniesAtUserLimit(t *testing.T) {
	repo := &repoStub{cfg: defaultConfig(), userChars: 10_000}
	svc := newService(repo)

	decision, err := svc.IsExceeded(context.Background(), "2026-09", "user-1")
	assert.NoError(t, err)
	assert.True(t, decision.Exceeded)
	assert.Equal(t, domain.ReasonUserLimit, decision.Reason)
}

func TestStatus_ReturnsInputsAlongsideDecision(t *testing.T) {
	repo := &repoStub{cfg: defaultConfig(), globalChars: 120_000, userChars: 4_200}
	svc := newService(repo)

	status, err := svc.Status(context.Background(), "2026-09", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "2026-09", status.Period)
	assert.False(t, status.Decision.Exceeded)
	assert.Equal(t, int64(120_000), status.GlobalChars)
	assert.Equal(t, int64(4_200), status.UserChars)
	assert.Equal(t, int64(10_000), status.Config.PerUserMonthlyLimit)
}
