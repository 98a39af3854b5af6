package usage

import (
	"context"
	"errors"
	"testing"

	domain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		targets []string
		want    int64
	}{
		{"single target", "hello", []string{"de"}, 5},
		{"three targets", "hello", []string{"de", "fr", "es"}, 15},
		{"no targets", "hello", nil, 0},
		{"empty text", "", []string{"de"}, 0},
		{"multibyte text counts runes not bytes", "grüße", []string{"de", "fr"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cost(tt.text, tt.targets))
		})
	}
}

type incrementCall struct {
	userID string
	period string
	delta  int64
}

type counterStub struct {
	domain.Repository

	userErr   error
	globalErr error

	userCalls   []incrementCall
	globalCalls []incrementCall
}

func (c *counterStub) IncrementUserUsage(ctx context.Context, userID, period string, deltaChars int64, targetLanguages []string) error {
	if c.userErr != nil {
		return c.userErr
	}
	c.userCalls = append(c.userCalls, incrementCall{userID: userID, period: period, delta: deltaChars})
	return nil
}

func (c *counterStub) IncrementGlobalUsage(ctx context.Context, period string, deltaChars int64) error {
	if c.globalErr != nil {
		return c.globalErr
	}
	c.globalCalls = append(c.globalCalls, incrementCall{period: period, delta: deltaChars})
	return nil
}

func newTestRecorder(repo domain.Repository) Recorder {
	return NewRecorder(Params{Repo: repo, Log: zap.NewNop()})
}

func TestRecord_ChargesBothCounters(t *testing.T) {
	repo := &counterStub{}
	rec := newTestRecorder(repo)

	rec.Record(context.Background(), "user-1", "2026-09", "hello", []string{"de", "fr"})

	assert.Equal(t, []incrementCall{{userID: "user-1", period: "2026-09", delta: 10}}, repo.userCalls)
	assert.Equal(t, []incrementCall{{period: "2026-09", delta: 10}}, repo.globalCalls)
}

func TestRecord_EmptyUserIsNoop(t *testing.T) {
	repo := &counterStub{}
	rec := newTestRecorder(repo)

	rec.Record(context.Background(), "", "2026-09", "hello", []string{"de"})

	assert.Empty(t, repo.userCalls)
	assert.Empty(t, repo.globalCalls)
}

func TestRecord_UserFailureStillChargesGlobal(t *testing.T) {
	repo := &counterStub{userErr: errors.New("write failed")}
	rec := newTestRecorder(repo)

	rec.Record(context.Background(), "user-1", "2026-09", "hello", []string{"de"})

	assert.Empty(t, repo.userCalls)
	assert.Len(t, repo.globalCalls, 1)
}

func TestRecord_GlobalFailureStillChargesUser(t *testing.T) {
	repo := &counterStub{globalErr: errors.New("write failed")}
	rec := newTestRecorder(repo)

	rec.Record(context.Background(), "user-1", "2026-09", "hello", []string{"de"})

	assert.Len(t, repo.userCalls, 1)
	assert.Empty(t, repo.globalCalls)
}
