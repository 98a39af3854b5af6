package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration. Everything here is deploy-time:
// it is read once at process start and never mutated afterwards.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr   string
	AdminToken string

	// Namespace prefixes every document path in the store.
	Namespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TranslateEndpoint string
	TranslateAPIKey   string

	// SimulateTranslation bypasses the real provider entirely. Used during
	// development to avoid burning translation quota; no usage is recorded.
	SimulateTranslation bool

	// PrivilegedDeviceUIDs lists the opaque user ids that register as
	// privileged ("P") identities instead of ordinary ("U") ones.
	PrivilegedDeviceUIDs []string

	OTLPEndpoint string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:              getenv("APP_SERVICE", "linguameter"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		AdminToken:           strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
		Namespace:            getenv("DOCSTORE_NAMESPACE", "translations"),
		RedisAddr:            getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:              getenvInt("REDIS_DB", 0),
		TranslateEndpoint:    getenv("TRANSLATE_ENDPOINT", "https://translation.googleapis.com/language/translate/v2"),
		TranslateAPIKey:      strings.TrimSpace(getenv("TRANSLATE_API_KEY", "")),
		SimulateTranslation:  getenvBool("SIMULATE_TRANSLATION", false),
		PrivilegedDeviceUIDs: parseList(getenv("PRIVILEGED_DEVICE_UIDS", "")),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewContingentHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
