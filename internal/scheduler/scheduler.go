// Package scheduler proactively creates the contingent config document for
// the current period. The mandatory check still ensures it lazily; this
// worker only keeps the common path cheap and logs period rollovers.
package scheduler

import (
	"context"
	"time"

	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Periods    *period.Resolver
	Contingent contingentdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	periods    *period.Resolver
	contingent contingentdomain.Service

	lastPeriod string
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		periods:    p.Periods,
		contingent: p.Contingent,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.tick(ctx)

		ticker := time.NewTicker(s.cfg.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) tick(ctx context.Context) {
	current := s.periods.Current()
	if s.lastPeriod != "" && s.lastPeriod != current {
		s.log.Info("accounting period rolled over",
			zap.String("previous", s.lastPeriod),
			zap.String("current", current),
		)
	}
	s.lastPeriod = current

	if err := s.contingent.EnsureConfig(ctx, current); err != nil {
		// Transient store errors are fine here; the mandatory check
		// ensures the config again on demand.
		s.log.Warn("failed to ensure contingent config",
			zap.String("period", current),
			zap.Error(err),
		)
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}
