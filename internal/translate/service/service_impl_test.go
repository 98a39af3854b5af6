package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wordbridge/linguameter/internal/clock"
	"github.com/wordbridge/linguameter/internal/config"
	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/docstore"
	"github.com/wordbridge/linguameter/internal/period"
	domain "github.com/wordbridge/linguameter/internal/translate/domain"
	"github.com/wordbridge/linguameter/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type contingentStub struct {
	decision contingentdomain.Decision
	err      error
	calls    int
}

func (c *contingentStub) IsExceeded(ctx context.Context, period, userID string) (contingentdomain.Decision, error) {
	c.calls++
	if c.err != nil {
		return contingentdomain.Decision{}, c.err
	}
	return c.decision, nil
}

func (c *contingentStub) Status(ctx context.Context, period, userID string) (contingentdomain.Status, error) {
	return contingentdomain.Status{Period: period, Decision: c.decision}, c.err
}

func (c *contingentStub) EnsureConfig(ctx context.Context, period string) error { return nil }

func (c *contingentStub) ListUserUsage(ctx context.Context, period string) ([]contingentdomain.UserUsage, error) {
	return nil, nil
}

type recordedCharge struct {
	userID  string
	period  string
	text    string
	targets []string
}

type recorderStub struct {
	charges []recordedCharge
}

func (r *recorderStub) Record(ctx context.Context, userID, period, text string, targetLanguages []string) {
	r.charges = append(r.charges, recordedCharge{userID: userID, period: period, text: text, targets: targetLanguages})
}

type providerStub struct {
	err   error
	calls []string
}

func (p *providerStub) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	p.calls = append(p.calls, targetLang)
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("%s in %s", text, targetLang), nil
}

type fixture struct {
	svc        domain.Service
	contingent *contingentStub
	recorder   *recorderStub
	provider   *providerStub
}

func newFixture(t *testing.T, simulate bool) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		contingent: &contingentStub{},
		recorder:   &recorderStub{},
		provider:   &providerStub{},
	}
	f.svc = NewService(Params{
		Cfg:        config.Config{SimulateTranslation: simulate},
		Log:        zap.NewNop(),
		GenID:      node,
		Periods:    period.NewResolver(clock.NewFakeClock(time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC))),
		Contingent: f.contingent,
		Recorder:   f.recorder,
		Provider:   f.provider,
	})
	return f
}

func validRequest() domain.Request {
	return domain.Request{
		Text:        "hello world",
		SourceLang:  "en",
		TargetLangs: []string{"de", "fr"},
	}
}

func TestTranslate_SuccessRecordsUsageAfterAllTargets(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.Translate(context.Background(), "user-1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, result.RequestID)
	assert.False(t, result.Simulated)
	assert.Equal(t, map[string]string{
		"de": "hello world in de",
		"fr": "hello world in fr",
	}, result.Translations)

	require.Len(t, f.recorder.charges, 1)
	charge := f.recorder.charges[0]
	assert.Equal(t, "user-1", charge.userID)
	assert.Equal(t, "2026-09", charge.period)
	assert.Equal(t, []string{"de", "fr"}, charge.targets)
}

func TestTranslate_ValidationFailsFastWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		req    domain.Request
	}{
		{"empty user", "", validRequest()},
		{"empty text", "user-1", domain.Request{SourceLang: "en", TargetLangs: []string{"de"}}},
		{"missing source", "user-1", domain.Request{Text: "hi", TargetLangs: []string{"de"}}},
		{"no targets", "user-1", domain.Request{Text: "hi", SourceLang: "en"}},
		{"blank target", "user-1", domain.Request{Text: "hi", SourceLang: "en", TargetLangs: []string{"de", " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			_, err := f.svc.Translate(context.Background(), tt.userID, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Zero(t, f.contingent.calls)
			assert.Empty(t, f.provider.calls)
			assert.Empty(t, f.recorder.charges)
		})
	}
}

func TestTranslate_DenialSkipsProviderAndRecording(t *testing.T) {
	f := newFixture(t, false)
	f.contingent.decision = contingentdomain.Decision{
		Exceeded: true,
		Reason:   contingentdomain.ReasonUserLimit,
	}

	_, err := f.svc.Translate(context.Background(), "user-1", validRequest())
	assert.ErrorIs(t, err, contingentdomain.ErrQuotaExceeded)
	assert.Empty(t, f.provider.calls)
	assert.Empty(t, f.recorder.charges)
}

func TestTranslate_StoreErrorDeniesFailClosed(t *testing.T) {
	f := newFixture(t, false)
	f.contingent.err = docstore.ErrUnavailable

	_, err := f.svc.Translate(context.Background(), "user-1", validRequest())
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	assert.Empty(t, f.provider.calls)
	assert.Empty(t, f.recorder.charges)
}

func TestTranslate_ProviderFailureCostsNothing(t *testing.T) {
	f := newFixture(t, false)
	f.provider.err = fmt.Errorf("%w: upstream 500", translator.ErrProvider)

	_, err := f.svc.Translate(context.Background(), "user-1", validRequest())
	assert.ErrorIs(t, err, translator.ErrProvider)
	assert.Empty(t, f.recorder.charges)
}

func TestTranslate_SimulateBypassesPolicyAndAccounting(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.svc.Translate(context.Background(), "user-1", validRequest())
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Equal(t, translator.SimulatedText("hello world", "de"), result.Translations["de"])

	assert.Zero(t, f.contingent.calls)
	assert.Empty(t, f.provider.calls)
	assert.Empty(t, f.recorder.charges)
}

func TestQuotaStatus_RequiresUser(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.QuotaStatus(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	status, err := f.svc.QuotaStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-09", status.Period)
}

func TestQuotaStatus_PropagatesStoreError(t *testing.T) {
	f := newFixture(t, false)
	f.contingent.err = errors.New("read timeout")

	_, err := f.svc.QuotaStatus(context.Background(), "user-1")
	assert.Error(t, err)
}
