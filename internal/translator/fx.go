package translator

import (
	"errors"

	"github.com/wordbridge/linguameter/internal/config"
	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ProviderParams struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// NewProvider selects the provider implementation. Simulate mode never
// touches the network, so no API key is required there.
func NewProvider(p ProviderParams) (Provider, error) {
	if p.Cfg.SimulateTranslation {
		p.Log.Warn("simulate mode enabled, translation provider disabled")
		return NewSimulated(), nil
	}
	if p.Cfg.TranslateAPIKey == "" {
		return nil, errors.New("translator: TRANSLATE_API_KEY is required unless SIMULATE_TRANSLATION is on")
	}
	return NewGoogleClient(p.Cfg.TranslateEndpoint, p.Cfg.TranslateAPIKey, p.Log, p.Metrics), nil
}

var Module = fx.Module("translator",
	fx.Provide(NewProvider),
)
