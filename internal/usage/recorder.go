// Package usage records translated-character consumption against the
// per-user and global counters.
package usage

import (
	"context"
	"unicode/utf8"

	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Recorder charges translation cost to the counters.
type Recorder interface {
	// Record is best-effort: each counter increment is attempted
	// independently, failures are logged and never propagate, so an
	// already-obtained translation result is never blocked by accounting.
	Record(ctx context.Context, userID, period, text string, targetLanguages []string)
}

// Cost is the contingent charge for one translation request: character
// count of the text times the number of target languages.
func Cost(text string, targetLanguages []string) int64 {
	return int64(utf8.RuneCountInString(text)) * int64(len(targetLanguages))
}

type Params struct {
	fx.In

	Repo    contingentdomain.Repository
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type recorder struct {
	repo    contingentdomain.Repository
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewRecorder(p Params) Recorder {
	return &recorder{
		repo:    p.Repo,
		log:     p.Log.Named("usage.recorder"),
		metrics: p.Metrics,
	}
}

func (r *recorder) Record(ctx context.Context, userID, period, text string, targetLanguages []string) {
	if userID == "" {
		return
	}
	cost := Cost(text, targetLanguages)

	// The two increments are deliberately independent: losing one must not
	// roll back or block the other. The counters drift apart only when a
	// write fails, which the global buffer absorbs.
	if err := r.repo.IncrementUserUsage(ctx, userID, period, cost, targetLanguages); err != nil {
		r.log.Error("failed to increment user usage",
			zap.String("user_id", userID),
			zap.String("period", period),
			zap.Int64("delta_chars", cost),
			zap.Error(err),
		)
	}
	if err := r.repo.IncrementGlobalUsage(ctx, period, cost); err != nil {
		r.log.Error("failed to increment global usage",
			zap.String("period", period),
			zap.Int64("delta_chars", cost),
			zap.Error(err),
		)
	}

	r.metrics.RecordTranslatedChars(ctx, cost)
}

var Module = fx.Module("usage",
	fx.Provide(NewRecorder),
)
