// Package fitbit is a minimal client for the Fitbit Web API covering the
// daily activity summary and sleep log endpoints.
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	shared "github.com/okkyok/Fibit2Obsidian/pkg"
	httputil "github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/http"
)

// Client is an API client for the Fitbit Web API.
// The HTTP client is expected to carry authentication (oauth.Transport).
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Fitbit API client on top of an authenticated HTTP client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: shared.FitbitAPIBaseURL,
		client:  httpClient,
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// ActivitySummary is the daily activity summary response.
type ActivitySummary struct {
	Summary struct {
		Steps             int `json:"steps"`
		CaloriesOut       int `json:"caloriesOut"`
		VeryActiveMinutes int `json:"veryActiveMinutes"`
		Distances         []struct {
			Activity string  `json:"activity"`
			Distance float64 `json:"distance"`
		} `json:"distances"`
	} `json:"summary"`
}

// TotalDistanceKm returns the "total" distance entry in kilometers.
func (a *ActivitySummary) TotalDistanceKm() float64 {
	for _, d := range a.Summary.Distances {
		if d.Activity == "total" {
			return d.Distance
		}
	}
	return 0
}

// StageSummary holds minutes spent in one sleep stage.
type StageSummary struct {
	Minutes int `json:"minutes"`
}

// SleepLog is a single sleep log entry from the v1.2 sleep endpoint.
type SleepLog struct {
	IsMainSleep   bool   `json:"isMainSleep"`
	MinutesAsleep int    `json:"minutesAsleep"`
	TimeInBed     int    `json:"timeInBed"`
	StartTime     string `json:"startTime"`
	AwakeCount    int    `json:"awakeCount"`
	RestlessCount int    `json:"restlessCount"`
	Levels        struct {
		Summary map[string]StageSummary `json:"summary"`
	} `json:"levels"`
}

// SleepSummary is the per-date sleep response.
type SleepSummary struct {
	Sleep   []SleepLog `json:"sleep"`
	Summary struct {
		Stages struct {
			Deep  int `json:"deep"`
			Light int `json:"light"`
			REM   int `json:"rem"`
			Wake  int `json:"wake"`
		} `json:"stages"`
		TotalMinutesAsleep int `json:"totalMinutesAsleep"`
		TotalTimeInBed     int `json:"totalTimeInBed"`
	} `json:"summary"`
}

// MainSleep returns the main sleep log, falling back to the longest log.
// Returns nil when no sleep was recorded for the date.
func (s *SleepSummary) MainSleep() *SleepLog {
	var longest *SleepLog
	for i := range s.Sleep {
		log := &s.Sleep[i]
		if log.IsMainSleep {
			return log
		}
		if longest == nil || log.MinutesAsleep > longest.MinutesAsleep {
			longest = log
		}
	}
	return longest
}

// GetActivitySummary fetches the daily activity summary for an ISO date.
func (c *Client) GetActivitySummary(ctx context.Context, date string) (*ActivitySummary, error) {
	url := fmt.Sprintf("%s/1/user/-/activities/date/%s.json", c.baseURL, date)

	var summary ActivitySummary
	if err := c.getJSON(ctx, url, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetSleep fetches the sleep logs for an ISO date. The v1.2 endpoint is
// required for the sleep stage (levels) breakdown.
func (c *Client) GetSleep(ctx context.Context, date string) (*SleepSummary, error) {
	url := fmt.Sprintf("%s/1.2/user/-/sleep/date/%s.json", c.baseURL, date)

	var summary SleepSummary
	if err := c.getJSON(ctx, url, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
