package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	shared "github.com/okkyok/Fibit2Obsidian/pkg"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/secrets"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/sentry"
)

// Config holds standard configuration for the sync job.
// Loaded once from environment variables and validated at startup.
type Config struct {
	ProjectID string

	FitbitClientID     string
	FitbitClientSecret string
	// FitbitAuthCode is the one-time authorization code used on first run
	// to bootstrap the refresh token. Must be removed after setup.
	FitbitAuthCode    string
	FitbitRedirectURI string

	WebDAVURL      string
	WebDAVUsername string
	WebDAVPassword string
	WebDAVPath     string

	HeadingTemplate string
	FilenameFormat  string
	// WeekdayLabels are localized day-of-week labels, Sunday first.
	WeekdayLabels []string
	Location      *time.Location
	SyncDays      int

	TokenSecretName string
	SentryDSN       string
}

// LoadConfig reads configuration from environment variables.
// Missing required keys are reported before any network call happens.
func LoadConfig() (*Config, error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	cfg := &Config{
		ProjectID:          projectID,
		FitbitClientID:     os.Getenv("FITBIT_CLIENT_ID"),
		FitbitClientSecret: os.Getenv("FITBIT_CLIENT_SECRET"),
		FitbitAuthCode:     os.Getenv("FITBIT_AUTH_CODE"),
		FitbitRedirectURI:  getEnv("FITBIT_REDIRECT_URI", shared.DefaultRedirectURI),
		WebDAVURL:          os.Getenv("WEBDAV_URL"),
		WebDAVUsername:     os.Getenv("WEBDAV_USERNAME"),
		WebDAVPassword:     os.Getenv("WEBDAV_PASSWORD"),
		WebDAVPath:         os.Getenv("WEBDAV_PATH"),
		HeadingTemplate:    getEnv("FITBIT_HEADING_TEMPLATE", shared.DefaultHeadingTemplate),
		FilenameFormat:     getEnv("DAILY_NOTE_FILENAME_FORMAT", shared.DefaultFilenameFormat),
		TokenSecretName:    getEnv("TOKEN_SECRET_NAME", shared.TokenSecretName),
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		SyncDays:           shared.DefaultSyncDays,
	}

	var missing []string
	for key, val := range map[string]string{
		"FITBIT_CLIENT_ID":     cfg.FitbitClientID,
		"FITBIT_CLIENT_SECRET": cfg.FitbitClientSecret,
		"WEBDAV_URL":           cfg.WebDAVURL,
		"WEBDAV_USERNAME":      cfg.WebDAVUsername,
		"WEBDAV_PASSWORD":      cfg.WebDAVPassword,
		"WEBDAV_PATH":          cfg.WebDAVPath,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	labels := strings.Split(getEnv("WEEKDAY_LABELS", shared.DefaultWeekdayLabels), ",")
	if len(labels) != 7 {
		return nil, fmt.Errorf("WEEKDAY_LABELS must contain 7 comma-separated labels, got %d", len(labels))
	}
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	cfg.WeekdayLabels = labels

	tz := getEnv("TIMEZONE", shared.DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if daysStr := os.Getenv("SYNC_DAYS"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 1 {
			return nil, fmt.Errorf("invalid SYNC_DAYS %q", daysStr)
		}
		cfg.SyncDays = days
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Service holds initialized dependencies
type Service struct {
	Secrets shared.SecretStore
	Config  *Config
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger() {
	opts := GetSlogHandlerOptions(logLevelFromEnv())
	handler := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	opts := GetSlogHandlerOptions(logLevelFromEnv())
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With("service", serviceName)
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	InitLogger()

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Config load failed", "error", err)
		return nil, fmt.Errorf("load config: %w", err)
	}

	slog.Info("Initializing service", "project_id", cfg.ProjectID, "webdav_path", cfg.WebDAVPath)

	if err := sentry.Init(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: getEnv("SENTRY_ENVIRONMENT", "production"),
		Release:     os.Getenv("SENTRY_RELEASE"),
	}, slog.Default()); err != nil {
		// Crash reporting is best-effort; the sync still runs without it.
		slog.Warn("Sentry init failed", "error", err)
	}

	store, err := secrets.NewAdapter(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Secret Manager init failed", "error", err)
		return nil, fmt.Errorf("secretmanager init: %w", err)
	}

	return &Service{
		Secrets: store,
		Config:  cfg,
	}, nil
}
