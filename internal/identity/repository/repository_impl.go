// Package repository persists identity mappings in the document store
// under a period-independent path.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wordbridge/linguameter/internal/config"
	"github.com/wordbridge/linguameter/internal/docstore"
	domain "github.com/wordbridge/linguameter/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	fieldUserID      = "user_id"
	fieldDisplayName = "display_name"
	fieldKind        = "kind"
	fieldDevice      = "device"
	fieldDeviceInfo  = "device_info"
	fieldIsNative    = "is_native"
	fieldCreatedAt   = "created_at"
	fieldLastUpdated = "last_updated"
)

type Params struct {
	fx.In

	Store *docstore.Store
	Cfg   config.Config
	Log   *zap.Logger
}

type repo struct {
	store     *docstore.Store
	namespace string
	log       *zap.Logger
}

func New(p Params) domain.Repository {
	return &repo{
		store:     p.Store,
		namespace: p.Cfg.Namespace,
		log:       p.Log.Named("identity.repository"),
	}
}

func (r *repo) key(userID string) string {
	return fmt.Sprintf("%s:identity:%s", r.namespace, userID)
}

func (r *repo) Get(ctx context.Context, userID string) (domain.Record, error) {
	fields, err := r.store.GetAll(ctx, r.key(userID))
	if err != nil {
		return domain.Record{}, err
	}
	if len(fields) == 0 {
		return domain.Record{}, domain.ErrNotFound
	}
	return decode(userID, fields), nil
}

func (r *repo) Upsert(ctx context.Context, userID string, fields map[string]any) error {
	return r.store.MergeFields(ctx, r.key(userID), fields)
}

func (r *repo) List(ctx context.Context) ([]domain.Record, error) {
	prefix := fmt.Sprintf("%s:identity:", r.namespace)
	keys, err := r.store.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(keys))
	for _, key := range keys {
		userID := strings.TrimPrefix(key, prefix)
		fields, err := r.store.GetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		records = append(records, decode(userID, fields))
	}
	return records, nil
}

// EncodeRecord maps a record to its stored hash fields. Exported so the
// service layer composes partial updates from the same encoding.
func EncodeRecord(rec domain.Record) map[string]any {
	fields := map[string]any{
		fieldUserID:      rec.UserID,
		fieldDisplayName: rec.DisplayName,
		fieldKind:        string(rec.Kind),
		fieldIsNative:    boolField(rec.IsNative),
	}
	if rec.Device != "" {
		fields[fieldDevice] = rec.Device
	}
	if rec.DeviceInfo != nil {
		if raw, err := json.Marshal(rec.DeviceInfo); err == nil {
			fields[fieldDeviceInfo] = string(raw)
		}
	}
	if !rec.CreatedAt.IsZero() {
		fields[fieldCreatedAt] = rec.CreatedAt.Format(time.RFC3339)
	}
	if !rec.LastUpdated.IsZero() {
		fields[fieldLastUpdated] = rec.LastUpdated.Format(time.RFC3339)
	}
	return fields
}

// DeviceInfoFields is the partial update written when only the device
// metadata changed.
func DeviceInfoFields(info domain.DeviceInfo, isNative bool, now time.Time) map[string]any {
	fields := map[string]any{
		fieldIsNative:    boolField(isNative),
		fieldLastUpdated: now.Format(time.RFC3339),
	}
	if raw, err := json.Marshal(info); err == nil {
		fields[fieldDeviceInfo] = string(raw)
	}
	return fields
}

// PromotionFields is the partial update that flips a mapping to privileged.
func PromotionFields(displayName, device string, now time.Time) map[string]any {
	return map[string]any{
		fieldDisplayName: displayName,
		fieldKind:        string(domain.KindPrivileged),
		fieldDevice:      device,
		fieldLastUpdated: now.Format(time.RFC3339),
	}
}

func decode(userID string, fields map[string]string) domain.Record {
	rec := domain.Record{
		UserID:      userID,
		DisplayName: fields[fieldDisplayName],
		Kind:        domain.Kind(fields[fieldKind]),
		Device:      fields[fieldDevice],
		IsNative:    fields[fieldIsNative] == "1",
	}
	if stored := fields[fieldUserID]; stored != "" {
		rec.UserID = stored
	}
	if raw := fields[fieldDeviceInfo]; raw != "" {
		var info domain.DeviceInfo
		if err := json.Unmarshal([]byte(raw), &info); err == nil {
			rec.DeviceInfo = &info
		}
	}
	if raw := fields[fieldCreatedAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.CreatedAt = ts
		}
	}
	if raw := fields[fieldLastUpdated]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.LastUpdated = ts
		}
	}
	return rec
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
