// Package service orchestrates a translation request: validate, enforce
// the contingent, call the provider, record usage.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/wordbridge/linguameter/internal/config"
	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	"github.com/wordbridge/linguameter/internal/period"
	domain "github.com/wordbridge/linguameter/internal/translate/domain"
	"github.com/wordbridge/linguameter/internal/translator"
	"github.com/wordbridge/linguameter/internal/usage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	GenID      *snowflake.Node
	Periods    *period.Resolver
	Contingent contingentdomain.Service
	Recorder   usage.Recorder
	Provider   translator.Provider
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	periods    *period.Resolver
	contingent contingentdomain.Service
	recorder   usage.Recorder
	provider   translator.Provider
	metrics    *obsmetrics.Metrics
	simulate   bool
}

func NewService(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("translate.service"),
		genID:      p.GenID,
		periods:    p.Periods,
		contingent: p.Contingent,
		recorder:   p.Recorder,
		provider:   p.Provider,
		metrics:    p.Metrics,
		simulate:   p.Cfg.SimulateTranslation,
	}
}

// Translate runs the mandatory, trusted path:
//
//	validate -> ensure config -> policy check -> provider -> record usage
//
// Validation fails fast with no side effects. The policy check fails
// closed: if the counters cannot be read, the request is denied with the
// store error rather than allowed through. Usage is charged only after
// every provider call succeeded, so failed provider calls cost nothing.
func (s *Service) Translate(ctx context.Context, userID string, req domain.Request) (*domain.Result, error) {
	if err := validate(userID, req); err != nil {
		s.metrics.RecordTranslateRequest(ctx, "invalid")
		return nil, err
	}

	requestID := s.genID.Generate().String()

	if s.simulate {
		s.metrics.RecordTranslateRequest(ctx, "simulated")
		return &domain.Result{
			RequestID:    requestID,
			Translations: simulateAll(req),
			Simulated:    true,
		}, nil
	}

	currentPeriod := s.periods.Current()

	decision, err := s.contingent.IsExceeded(ctx, currentPeriod, userID)
	if err != nil {
		s.metrics.RecordTranslateRequest(ctx, "store_error")
		return nil, err
	}
	if decision.Exceeded {
		s.metrics.RecordTranslateRequest(ctx, "denied")
		return nil, fmt.Errorf("%w: %s", contingentdomain.ErrQuotaExceeded, decision.Reason)
	}

	translations := make(map[string]string, len(req.TargetLangs))
	for _, target := range req.TargetLangs {
		out, err := s.provider.Translate(ctx, req.Text, req.SourceLang, target)
		if err != nil {
			s.metrics.RecordTranslateRequest(ctx, "provider_error")
			s.log.Error("translation provider failed",
				zap.String("request_id", requestID),
				zap.String("target_lang", target),
				zap.Error(err),
			)
			return nil, err
		}
		translations[target] = out
	}

	// Best-effort accounting after confirmed success; never blocks the
	// result.
	s.recorder.Record(ctx, userID, currentPeriod, req.Text, req.TargetLangs)

	s.metrics.RecordTranslateRequest(ctx, "ok")
	s.log.Info("translation completed",
		zap.String("request_id", requestID),
		zap.String("period", currentPeriod),
		zap.Int("target_langs", len(req.TargetLangs)),
		zap.Int64("cost_chars", usage.Cost(req.Text, req.TargetLangs)),
	)

	return &domain.Result{
		RequestID:    requestID,
		Translations: translations,
	}, nil
}

// QuotaStatus backs the optimistic check. It shares Evaluate with the
// mandatory path, so the two trust boundaries can never disagree on the
// branching logic, only on the freshness of their inputs.
func (s *Service) QuotaStatus(ctx context.Context, userID string) (contingentdomain.Status, error) {
	if strings.TrimSpace(userID) == "" {
		return contingentdomain.Status{}, domain.ErrInvalidRequest
	}
	return s.contingent.Status(ctx, s.periods.Current(), userID)
}

func validate(userID string, req domain.Request) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrInvalidRequest
	}
	if req.Text == "" || strings.TrimSpace(req.SourceLang) == "" || len(req.TargetLangs) == 0 {
		return domain.ErrInvalidRequest
	}
	for _, lang := range req.TargetLangs {
		if strings.TrimSpace(lang) == "" {
			return domain.ErrInvalidRequest
		}
	}
	return nil
}

func simulateAll(req domain.Request) map[string]string {
	translations := make(map[string]string, len(req.TargetLangs))
	for _, target := range req.TargetLangs {
		translations[target] = translator.SimulatedText(req.Text, target)
	}
	return translations
}
