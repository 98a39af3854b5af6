package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	"go.uber.org/zap"
)

// GoogleClient talks to the Google Translate v2 REST API.
type GoogleClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func NewGoogleClient(endpoint, apiKey string, log *zap.Logger, metrics *obsmetrics.Metrics) *GoogleClient {
	return &GoogleClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.Named("translator.google"),
		metrics:  metrics,
	}
}

func (g *GoogleClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(googleRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %s", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.requestURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.RecordProviderRequest(ctx, 0, time.Since(start))
		return "", fmt.Errorf("%w: %s", ErrProvider, err)
	}
	defer resp.Body.Close()
	g.metrics.RecordProviderRequest(ctx, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused; the payload itself may
		// contain the API key echo and is not worth logging verbatim.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		g.log.Warn("translation API returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("target_lang", targetLang),
		)
		return "", fmt.Errorf("%w: status %s", ErrProvider, resp.Status)
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %s", ErrProvider, err)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", fmt.Errorf("%w: empty translations in response", ErrProvider)
	}
	return parsed.Data.Translations[0].TranslatedText, nil
}

func (g *GoogleClient) requestURL() string {
	return g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
}
