// Package domain defines the translate operation surface.
package domain

import (
	"context"
	"errors"

	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
)

type Request struct {
	Text        string   `json:"text"`
	SourceLang  string   `json:"sourceLang"`
	TargetLangs []string `json:"targetLangs"`
}

type Result struct {
	RequestID    string            `json:"requestId"`
	Translations map[string]string `json:"translations"`
	Simulated    bool              `json:"simulated,omitempty"`
}

var ErrInvalidRequest = errors.New("translate_invalid_request")

// Service is the dual enforcement coordinator. Translate performs the
// mandatory server-side check; QuotaStatus feeds the optimistic client-side
// check, which is a UX aid and never a security boundary.
type Service interface {
	Translate(ctx context.Context, userID string, req Request) (*Result, error)
	QuotaStatus(ctx context.Context, userID string) (contingentdomain.Status, error)
}
