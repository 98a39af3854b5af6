package translator

import (
	"context"
	"fmt"
)

// Simulated produces deterministic placeholder translations without any
// network I/O. Used in simulate mode and in tests.
type Simulated struct{}

func NewSimulated() *Simulated { return &Simulated{} }

func (s *Simulated) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	return SimulatedText(text, targetLang), nil
}

// SimulatedText is the placeholder result for a given text and language.
func SimulatedText(text, targetLang string) string {
	return fmt.Sprintf("[%s] %s", targetLang, text)
}
