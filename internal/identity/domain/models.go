// Package domain models the anonymous-user identity mapping: one record
// per opaque external user id, independent of accounting periods.
package domain

import (
	"context"
	"errors"
	"time"
)

// Kind distinguishes ordinary users from privileged (internal) ones. The
// value doubles as the display-name prefix.
type Kind string

const (
	KindOrdinary   Kind = "U"
	KindPrivileged Kind = "P"
)

func (k Kind) Valid() bool {
	return k == KindOrdinary || k == KindPrivileged
}

// AppVersion is the client build that registered the device.
type AppVersion struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Date  string `json:"date"`
}

// DeviceInfo is opaque client metadata stored with the mapping.
type DeviceInfo struct {
	UserAgent  string     `json:"userAgent"`
	Platform   string     `json:"platform"`
	Language   string     `json:"language"`
	AppVersion AppVersion `json:"appVersion"`
}

// Record is one user identity mapping. DisplayName carries a sequential
// per-kind suffix ("U-7", "P-3") that is assigned once and never reused.
type Record struct {
	UserID      string      `json:"userId"`
	DisplayName string      `json:"displayName"`
	Kind        Kind        `json:"kind"`
	Device      string      `json:"device,omitempty"`
	DeviceInfo  *DeviceInfo `json:"deviceInfo,omitempty"`
	IsNative    bool        `json:"isNative"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastUpdated time.Time   `json:"lastUpdated,omitempty"`
}

// DeviceRef names a privileged device by its opaque user id.
type DeviceRef struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type RegisterRequest struct {
	UserID     string
	DeviceInfo DeviceInfo
	IsNative   bool
}

var (
	ErrNotFound       = errors.New("identity_not_found")
	ErrInvalidRequest = errors.New("identity_invalid_request")
)

type Repository interface {
	Get(ctx context.Context, userID string) (Record, error)
	// Upsert merges the given fields into the record, creating it if
	// absent; fields not named keep their stored values.
	Upsert(ctx context.Context, userID string, fields map[string]any) error
	List(ctx context.Context) ([]Record, error)
}

type Service interface {
	// Register creates the mapping on first contact and assigns the next
	// display name for the user's kind; on later calls it only refreshes
	// changed device metadata.
	Register(ctx context.Context, req RegisterRequest) error
	// PromotePrivileged upgrades the listed device uids to privileged
	// mappings, creating missing ones. Per-entry failures are logged and
	// skipped so one bad device cannot block the rest.
	PromotePrivileged(ctx context.Context, devices []DeviceRef) error
	List(ctx context.Context) ([]Record, error)
}
