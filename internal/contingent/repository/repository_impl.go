// Package repository implements the quota store adapter over the document
// store. It owns path construction and the hash-field encoding of the
// config and counter documents.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wordbridge/linguameter/internal/clock"
	"github.com/wordbridge/linguameter/internal/config"
	domain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/docstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	fieldStopAll         = "stop_all"
	fieldPerUserLimit    = "per_user_monthly_limit"
	fieldGlobalLimit     = "global_monthly_limit"
	fieldGlobalBuffer    = "global_buffer"
	fieldCharCount       = "char_count"
	fieldTargetLanguages = "target_languages"
	fieldLastUpdated     = "last_updated"
)

type Params struct {
	fx.In

	Store    *docstore.Store
	Cfg      config.Config
	Defaults *config.ContingentHolder
	Clock    clock.Clock
	Log      *zap.Logger
}

type repo struct {
	store     *docstore.Store
	namespace string
	defaults  *config.ContingentHolder
	clock     clock.Clock
	log       *zap.Logger
}

func New(p Params) domain.Repository {
	return &repo{
		store:     p.Store,
		namespace: p.Cfg.Namespace,
		defaults:  p.Defaults,
		clock:     p.Clock,
		log:       p.Log.Named("contingent.repository"),
	}
}

func (r *repo) configKey(period string) string {
	return fmt.Sprintf("%s:%s:config", r.namespace, period)
}

func (r *repo) userKey(period, userID string) string {
	return fmt.Sprintf("%s:%s:user:%s", r.namespace, period, userID)
}

func (r *repo) globalKey(period string) string {
	return fmt.Sprintf("%s:%s:global", r.namespace, period)
}

// ReadConfig reads the period config document. Field-level precedence:
// every field the document carries wins; anything absent falls back to the
// compiled-in defaults. A fully absent document is therefore the defaults,
// not an error.
func (r *repo) ReadConfig(ctx context.Context, period string) (domain.Config, error) {
	fallback := r.defaults.Get()
	cfg := domain.Config{
		PerUserMonthlyLimit: fallback.PerUserMonthlyLimit,
		GlobalMonthlyLimit:  fallback.GlobalMonthlyLimit,
		GlobalBuffer:        fallback.GlobalBuffer,
	}

	fields, err := r.store.GetAll(ctx, r.configKey(period))
	if err != nil {
		return domain.Config{}, err
	}

	if raw, ok := fields[fieldStopAll]; ok {
		cfg.StopAll = raw == "1"
	}
	if v, ok := parseIntField(fields, fieldPerUserLimit); ok {
		cfg.PerUserMonthlyLimit = v
	}
	if v, ok := parseIntField(fields, fieldGlobalLimit); ok {
		cfg.GlobalMonthlyLimit = v
	}
	if v, ok := parseIntField(fields, fieldGlobalBuffer); ok {
		cfg.GlobalBuffer = v
	}
	if raw, ok := fields[fieldLastUpdated]; ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			cfg.LastUpdated = ts
		}
	}

	return cfg, nil
}

// EnsureConfigExists creates the period config with defaults when absent.
// Idempotent: an existing document is never merged over, so operator edits
// survive any number of ensure calls.
func (r *repo) EnsureConfigExists(ctx context.Context, period string) error {
	defaults := r.defaults.Get()
	created, err := r.store.SetIfAbsent(ctx, r.configKey(period), map[string]any{
		fieldStopAll:      "0",
		fieldPerUserLimit: defaults.PerUserMonthlyLimit,
		fieldGlobalLimit:  defaults.GlobalMonthlyLimit,
		fieldGlobalBuffer: defaults.GlobalBuffer,
		fieldLastUpdated:  r.clock.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if created {
		r.log.Info("created contingent config for period",
			zap.String("period", period),
			zap.Int64("per_user_limit", defaults.PerUserMonthlyLimit),
			zap.Int64("global_limit", defaults.GlobalMonthlyLimit),
			zap.Int64("global_buffer", defaults.GlobalBuffer),
		)
	}
	return nil
}

func (r *repo) ReadUserUsage(ctx context.Context, userID, period string) (domain.UserUsage, error) {
	usage := domain.UserUsage{UserID: userID}

	fields, err := r.store.GetAll(ctx, r.userKey(period, userID))
	if err != nil {
		return domain.UserUsage{}, err
	}
	if v, ok := parseIntField(fields, fieldCharCount); ok {
		usage.CharCount = v
	}
	if raw, ok := fields[fieldTargetLanguages]; ok && raw != "" {
		var langs []string
		if err := json.Unmarshal([]byte(raw), &langs); err == nil {
			usage.TargetLanguages = langs
		}
	}
	if raw, ok := fields[fieldLastUpdated]; ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			usage.LastUpdated = ts
		}
	}
	return usage, nil
}

func (r *repo) ReadGlobalUsage(ctx context.Context, period string) (int64, error) {
	value, _, err := r.store.GetInt(ctx, r.globalKey(period), fieldCharCount)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (r *repo) IncrementUserUsage(ctx context.Context, userID, period string, deltaChars int64, targetLanguages []string) error {
	langs, err := json.Marshal(targetLanguages)
	if err != nil {
		return fmt.Errorf("encode target languages: %w", err)
	}
	_, err = r.store.IncrByMerge(ctx, r.userKey(period, userID), fieldCharCount, deltaChars, map[string]any{
		fieldTargetLanguages: string(langs),
		fieldLastUpdated:     r.clock.Now().Format(time.RFC3339),
	})
	return err
}

func (r *repo) IncrementGlobalUsage(ctx context.Context, period string, deltaChars int64) error {
	_, err := r.store.IncrByMerge(ctx, r.globalKey(period), fieldCharCount, deltaChars, map[string]any{
		fieldLastUpdated: r.clock.Now().Format(time.RFC3339),
	})
	return err
}

func (r *repo) ListUserUsage(ctx context.Context, period string) ([]domain.UserUsage, error) {
	prefix := fmt.Sprintf("%s:%s:user:", r.namespace, period)
	keys, err := r.store.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}

	usages := make([]domain.UserUsage, 0, len(keys))
	for _, key := range keys {
		userID := strings.TrimPrefix(key, prefix)
		usage, err := r.ReadUserUsage(ctx, userID, period)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, nil
}

func parseIntField(fields map[string]string, name string) (int64, bool) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
