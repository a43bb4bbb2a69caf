// Package sync orchestrates one invocation of the Fitbit-to-Obsidian job:
// AUTH once, then FETCH -> FORMAT -> PUBLISH for each date in the trailing
// window, strictly sequential with per-date failure isolation.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okkyok/Fibit2Obsidian/pkg/bootstrap"
	"github.com/okkyok/Fibit2Obsidian/pkg/domain/metrics"
	"github.com/okkyok/Fibit2Obsidian/pkg/domain/note"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/oauth"
	"github.com/okkyok/Fibit2Obsidian/pkg/integrations/fitbit"
	"github.com/okkyok/Fibit2Obsidian/pkg/integrations/webdav"
)

// MetricsAPI is the slice of the Fitbit client the pipeline needs.
type MetricsAPI interface {
	GetActivitySummary(ctx context.Context, date string) (*fitbit.ActivitySummary, error)
	GetSleep(ctx context.Context, date string) (*fitbit.SleepSummary, error)
}

// NoteStore is the slice of the WebDAV client the pipeline needs.
type NoteStore interface {
	GetNote(ctx context.Context, filename string) (content string, exists bool, err error)
	PutNote(ctx context.Context, filename, content string) error
}

// DayResult reports the outcome for a single date.
type DayResult struct {
	Date     string `json:"date"`
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// RunReport is the overall invocation outcome. Success means every date in
// the window synced; the report is returned even when some dates failed.
type RunReport struct {
	Success        bool        `json:"success"`
	SetupCompleted bool        `json:"setup_completed,omitempty"`
	Message        string      `json:"message"`
	Results        []DayResult `json:"results,omitempty"`
}

// Pipeline wires the credential loader, metrics fetcher, formatter and
// publisher for one invocation. All fields must be set; NewPipeline builds
// the production wiring.
type Pipeline struct {
	Config *bootstrap.Config
	Tokens oauth.TokenSource
	Fitbit MetricsAPI
	Notes  NoteStore
	Logger *slog.Logger

	// Now is the clock used to resolve the trailing date window.
	Now func() time.Time
}

// NewPipeline builds the production pipeline from an initialized service.
func NewPipeline(svc *bootstrap.Service) *Pipeline {
	cfg := svc.Config

	tokens := oauth.NewSecretsTokenSource(svc.Secrets, oauth.Config{
		SecretName:   cfg.TokenSecretName,
		ClientID:     cfg.FitbitClientID,
		ClientSecret: cfg.FitbitClientSecret,
		AuthCode:     cfg.FitbitAuthCode,
		RedirectURI:  cfg.FitbitRedirectURI,
	})

	return &Pipeline{
		Config: cfg,
		Tokens: tokens,
		Fitbit: fitbit.NewClient(oauth.NewClient(tokens)),
		Notes:  webdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUsername, cfg.WebDAVPassword, cfg.WebDAVPath),
		Logger: slog.Default(),
	}
}

func (p *Pipeline) noteConfig() note.Config {
	return note.Config{
		HeadingTemplate: p.Config.HeadingTemplate,
		FilenameFormat:  p.Config.FilenameFormat,
		WeekdayLabels:   p.Config.WeekdayLabels,
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().In(p.Config.Location)
	}
	return time.Now().In(p.Config.Location)
}

// Run executes one invocation. The returned error is non-nil only for
// invocation-fatal failures (AuthError); per-date failures are reported in
// the RunReport.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// First-run setup: exchange the one-time code, persist the pair, stop.
	// The code is single-use, so no metrics are fetched on this invocation.
	if p.Config.FitbitAuthCode != "" {
		logger.Info("Auth code configured, running first-time token setup")
		if _, err := p.Tokens.Token(ctx); err != nil {
			return nil, &AuthError{Err: err}
		}
		logger.Info("Token setup complete, remove FITBIT_AUTH_CODE before the next deploy")
		return &RunReport{
			Success:        true,
			SetupCompleted: true,
			Message:        "initial token setup completed; remove FITBIT_AUTH_CODE from the environment",
		}, nil
	}

	// AUTH: resolve a valid access token before any data fetch. An expired
	// cached token triggers exactly one refresh here.
	if _, err := p.Tokens.Token(ctx); err != nil {
		logger.Error("Credential load failed", "error", err)
		return nil, &AuthError{Err: err}
	}

	now := p.now()
	logger.Info("Starting sync", "window_days", p.Config.SyncDays, "today", now.Format("2006-01-02"))

	report := &RunReport{Success: true}
	for daysAgo := 0; daysAgo < p.Config.SyncDays; daysAgo++ {
		date := now.AddDate(0, 0, -daysAgo)
		result := p.syncDay(ctx, logger, date)
		if !result.Success {
			report.Success = false
		}
		report.Results = append(report.Results, result)
	}

	succeeded := 0
	for _, r := range report.Results {
		if r.Success {
			succeeded++
		}
	}
	report.Message = fmt.Sprintf("synced %d/%d days", succeeded, len(report.Results))
	logger.Info("Sync finished", "message", report.Message)

	return report, nil
}

// syncDay runs FETCH -> FORMAT -> PUBLISH for one date. Failures are
// captured in the result and never abort the remaining dates.
func (p *Pipeline) syncDay(ctx context.Context, logger *slog.Logger, date time.Time) DayResult {
	cfg := p.noteConfig()
	dateStr := date.Format("2006-01-02")
	result := DayResult{
		Date:     dateStr,
		Filename: cfg.Filename(date),
	}
	logger = logger.With("date", dateStr, "filename", result.Filename)

	activity, err := p.Fitbit.GetActivitySummary(ctx, dateStr)
	if err != nil {
		return result.fail(logger, &FetchError{Date: dateStr, Endpoint: "activities", Err: err})
	}

	sleep, err := p.Fitbit.GetSleep(ctx, dateStr)
	if err != nil {
		return result.fail(logger, &FetchError{Date: dateStr, Endpoint: "sleep", Err: err})
	}

	m := metrics.FromFitbit(date, activity, sleep, p.Config.Location)
	section := note.FormatSection(m, cfg)

	existing, exists, err := p.Notes.GetNote(ctx, result.Filename)
	if err != nil {
		// Failing here beats merging blind and clobbering user content.
		return result.fail(logger, &PublishError{Date: dateStr, Filename: result.Filename, Err: err})
	}
	if exists {
		logger.Info("Updating existing note")
	} else {
		logger.Info("Creating new note")
	}

	content := note.Merge(existing, cfg.Title(date), cfg.BaseHeading(), section)
	if err := p.Notes.PutNote(ctx, result.Filename, content); err != nil {
		return result.fail(logger, &PublishError{Date: dateStr, Filename: result.Filename, Err: err})
	}

	logger.Info("Note saved", "steps", m.Steps, "sleep_minutes", m.Sleep.TotalMinutes)
	result.Success = true
	return result
}

func (r DayResult) fail(logger *slog.Logger, err error) DayResult {
	logger.Error("Day sync failed", "error", err)
	r.Success = false
	r.Error = err.Error()
	return r
}
