// Package service implements the contingent policy engine.
package service

import (
	"context"

	domain "github.com/wordbridge/linguameter/internal/contingent/domain"
	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Evaluate applies the contingent policy to plain data, in order and
// short-circuiting on the first exceeded check:
//
//  1. global kill switch,
//  2. global usage against limit minus buffer,
//  3. per-user usage against the per-user limit.
//
// Comparisons are >=, so sitting exactly at a limit already counts as
// exceeded. Zero limits and negative buffers are legal and simply make the
// policy stricter. Both the trusted server path and the untrusted
// optimistic path run this same function; only their inputs differ.
func Evaluate(cfg domain.Config, globalChars, userChars int64) domain.Decision {
	if cfg.StopAll {
		return domain.Decision{Exceeded: true, Reason: domain.ReasonStopAll}
	}
	if globalChars >= cfg.GlobalMonthlyLimit-cfg.GlobalBuffer {
		return domain.Decision{Exceeded: true, Reason: domain.ReasonGlobalLimit}
	}
	if userChars >= cfg.PerUserMonthlyLimit {
		return domain.Decision{Exceeded: true, Reason: domain.ReasonUserLimit}
	}
	return domain.Decision{}
}

type Params struct {
	fx.In

	Repo    domain.Repository
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	repo    domain.Repository
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		repo:    p.Repo,
		log:     p.Log.Named("contingent.service"),
		metrics: p.Metrics,
	}
}

// IsExceeded is the mandatory, fail-closed check. The config is ensured
// before reading so a fresh period is never mistaken for "unlimited"; any
// store error propagates and the caller must deny.
func (s *Service) IsExceeded(ctx context.Context, period, userID string) (domain.Decision, error) {
	status, err := s.Status(ctx, period, userID)
	if err != nil {
		return domain.Decision{}, err
	}
	if status.Decision.Exceeded {
		s.log.Warn("contingent exceeded",
			zap.String("period", period),
			zap.String("user_id", userID),
			zap.String("reason", status.Decision.Reason),
			zap.Int64("user_chars", status.UserChars),
			zap.Int64("global_chars", status.GlobalChars),
		)
		s.metrics.RecordQuotaDenial(ctx, status.Decision.Reason)
	}
	return status.Decision, nil
}

func (s *Service) Status(ctx context.Context, period, userID string) (domain.Status, error) {
	if err := s.repo.EnsureConfigExists(ctx, period); err != nil {
		return domain.Status{}, err
	}
	cfg, err := s.repo.ReadConfig(ctx, period)
	if err != nil {
		return domain.Status{}, err
	}
	globalChars, err := s.repo.ReadGlobalUsage(ctx, period)
	if err != nil {
		return domain.Status{}, err
	}
	userUsage, err := s.repo.ReadUserUsage(ctx, userID, period)
	if err != nil {
		return domain.Status{}, err
	}

	return domain.Status{
		Period:      period,
		Decision:    Evaluate(cfg, globalChars, userUsage.CharCount),
		Config:      cfg,
		GlobalChars: globalChars,
		UserChars:   userUsage.CharCount,
	}, nil
}

func (s *Service) EnsureConfig(ctx context.Context, period string) error {
	return s.repo.EnsureConfigExists(ctx, period)
}

func (s *Service) ListUserUsage(ctx context.Context, period string) ([]domain.UserUsage, error) {
	return s.repo.ListUserUsage(ctx, period)
}
