// Package translator wraps the external machine-translation API. One
// request is issued per target language; quota decisions never live here.
package translator

import (
	"context"
	"errors"
)

// ErrProvider marks a failure of the external translation API. It is
// independent of quota and maps to its own error category at the edge.
var ErrProvider = errors.New("translation_provider_error")

// Provider translates a single text into a single target language.
type Provider interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
