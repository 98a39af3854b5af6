// Package domain holds the contingent (quota) accounting model: the
// per-period config document, the per-user and global character counters,
// and the policy decision evaluated against them.
package domain

import (
	"context"
	"errors"
	"time"
)

// Config is the per-period contingent configuration. It is created lazily
// with defaults and never overwritten afterwards; operators may edit the
// stored document directly to tune limits without a deploy.
type Config struct {
	StopAll             bool      `json:"stopAll"`
	PerUserMonthlyLimit int64     `json:"perUserMonthlyLimit"`
	GlobalMonthlyLimit  int64     `json:"globalMonthlyLimit"`
	GlobalBuffer        int64     `json:"globalBuffer"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// UserUsage is the per-user counter document for one period. CharCount is
// monotonically non-decreasing within a period; the period rollover is the
// implicit reset.
type UserUsage struct {
	UserID          string    `json:"userId"`
	CharCount       int64     `json:"charCount"`
	TargetLanguages []string  `json:"targetLanguages"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// GlobalUsage sums all user counters for a period. It is maintained by
// independent increments, so it is eventually consistent with the per-user
// documents, not transactionally tied to them.
type GlobalUsage struct {
	CharCount   int64     `json:"charCount"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Denial reasons, in evaluation order.
const (
	ReasonStopAll     = "stop_all"
	ReasonGlobalLimit = "global_limit"
	ReasonUserLimit   = "user_limit"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Exceeded bool   `json:"exceeded"`
	Reason   string `json:"reason,omitempty"`
}

// Status bundles a decision with the inputs it was computed from, for the
// optimistic client-side check.
type Status struct {
	Period      string   `json:"period"`
	Decision    Decision `json:"decision"`
	Config      Config   `json:"config"`
	GlobalChars int64    `json:"globalChars"`
	UserChars   int64    `json:"userChars"`
}

// ErrQuotaExceeded is a policy decision, distinct from any transient
// failure, so callers can offer a degraded experience instead of a bare
// error.
var ErrQuotaExceeded = errors.New("quota_exceeded")

// Repository is the quota store adapter. All reads treat an absent document
// as defaults or zero; writes are field-level merges.
type Repository interface {
	// ReadConfig returns the period config with compiled-in fallbacks
	// filling any fields the stored document does not carry.
	ReadConfig(ctx context.Context, period string) (Config, error)
	// EnsureConfigExists writes the default config only when no document
	// exists for the period. It never touches an existing document.
	EnsureConfigExists(ctx context.Context, period string) error
	ReadUserUsage(ctx context.Context, userID, period string) (UserUsage, error)
	ReadGlobalUsage(ctx context.Context, period string) (int64, error)
	// IncrementUserUsage atomically adds deltaChars and overwrites the
	// last-used target languages.
	IncrementUserUsage(ctx context.Context, userID, period string, deltaChars int64, targetLanguages []string) error
	IncrementGlobalUsage(ctx context.Context, period string, deltaChars int64) error
	ListUserUsage(ctx context.Context, period string) ([]UserUsage, error)
}

// Service evaluates the contingent policy.
type Service interface {
	// IsExceeded is the trusted, fail-closed evaluation: it ensures the
	// period config exists, reads the counters, and returns the decision.
	// A store error propagates instead of being treated as "allowed".
	IsExceeded(ctx context.Context, period, userID string) (Decision, error)
	// Status is the untrusted, UX-facing evaluation with its inputs.
	Status(ctx context.Context, period, userID string) (Status, error)
	EnsureConfig(ctx context.Context, period string) error
	ListUserUsage(ctx context.Context, period string) ([]UserUsage, error)
}
