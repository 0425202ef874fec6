package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	AssetDir         string
	GeoIPDBPath      string
	PresetsFile      string
	ImageProvider    string
	PromptProvider   string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	QwenAPIKey       string
	QwenModel        string
	QwenBaseURL      string
	CORSOrigins      []string
	SessionTTL       time.Duration
	MaxUploadBytes   int64
	ImageConcurrency int
	ImageTimeout     time.Duration
	HistoryRetention time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// DATABASE_URL is optional: without it the studio runs fully in-memory and
// history endpoints are disabled.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AssetDir:         getEnv("ASSET_DIR", "./data/assets"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		PresetsFile:      os.Getenv("PROMPT_PRESETS_FILE"),
		ImageProvider:    getEnv("IMAGE_PROVIDER", "gemini"),
		PromptProvider:   getEnv("PROMPT_PROVIDER", "gemini"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		QwenAPIKey:       os.Getenv("QWEN_API_KEY"),
		QwenModel:        getEnv("QWEN_MODEL", "qwen-image-edit"),
		QwenBaseURL:      getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SessionTTL:       time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 8)) << 20,
		ImageConcurrency: getEnvInt("IMAGE_CONCURRENCY", 2),
		ImageTimeout:     time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 120)),
		HistoryRetention: time.Hour * 24 * time.Duration(getEnvInt("HISTORY_RETENTION_DAYS", 30)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// zero keeps long-lived event streams alive
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	switch cfg.ImageProvider {
	case "gemini", "qwen":
	default:
		return nil, fmt.Errorf("IMAGE_PROVIDER must be gemini or qwen, got %q", cfg.ImageProvider)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	if cfg.ImageConcurrency < 1 {
		cfg.ImageConcurrency = 1
	}

	return cfg, nil
}

// HistoryEnabled reports whether a database was configured.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
