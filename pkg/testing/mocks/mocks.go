package mocks

import (
	"context"

	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/oauth"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/secrets"
	"github.com/okkyok/Fibit2Obsidian/pkg/integrations/fitbit"
)

// --- Mock Secrets ---

type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, name string) (string, error)
	SetSecretFunc func(ctx context.Context, name, value string) error

	// Values backs the default behavior when no funcs are set.
	Values map[string]string
}

func (m *MockSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, name)
	}
	if v, ok := m.Values[name]; ok {
		return v, nil
	}
	return "", secrets.ErrNotFound
}

func (m *MockSecretStore) SetSecret(ctx context.Context, name, value string) error {
	if m.SetSecretFunc != nil {
		return m.SetSecretFunc(ctx, name, value)
	}
	if m.Values == nil {
		m.Values = map[string]string{}
	}
	m.Values[name] = value
	return nil
}

// --- Mock Token Source ---

type MockTokenSource struct {
	TokenFunc        func(ctx context.Context) (*oauth.TokenPair, error)
	ForceRefreshFunc func(ctx context.Context) (*oauth.TokenPair, error)

	TokenCalls        int
	ForceRefreshCalls int
}

func (m *MockTokenSource) Token(ctx context.Context) (*oauth.TokenPair, error) {
	m.TokenCalls++
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx)
	}
	return &oauth.TokenPair{AccessToken: "mock-access-token"}, nil
}

func (m *MockTokenSource) ForceRefresh(ctx context.Context) (*oauth.TokenPair, error) {
	m.ForceRefreshCalls++
	if m.ForceRefreshFunc != nil {
		return m.ForceRefreshFunc(ctx)
	}
	return &oauth.TokenPair{AccessToken: "mock-refreshed-token"}, nil
}

// --- Mock Fitbit API ---

type MockMetricsAPI struct {
	GetActivitySummaryFunc func(ctx context.Context, date string) (*fitbit.ActivitySummary, error)
	GetSleepFunc           func(ctx context.Context, date string) (*fitbit.SleepSummary, error)
}

func (m *MockMetricsAPI) GetActivitySummary(ctx context.Context, date string) (*fitbit.ActivitySummary, error) {
	if m.GetActivitySummaryFunc != nil {
		return m.GetActivitySummaryFunc(ctx, date)
	}
	return &fitbit.ActivitySummary{}, nil
}

func (m *MockMetricsAPI) GetSleep(ctx context.Context, date string) (*fitbit.SleepSummary, error) {
	if m.GetSleepFunc != nil {
		return m.GetSleepFunc(ctx, date)
	}
	return &fitbit.SleepSummary{}, nil
}

// --- Mock Note Store ---

type MockNoteStore struct {
	GetNoteFunc func(ctx context.Context, filename string) (string, bool, error)
	PutNoteFunc func(ctx context.Context, filename, content string) error

	// Notes backs the default behavior when no funcs are set.
	Notes map[string]string
}

func (m *MockNoteStore) GetNote(ctx context.Context, filename string) (string, bool, error) {
	if m.GetNoteFunc != nil {
		return m.GetNoteFunc(ctx, filename)
	}
	content, ok := m.Notes[filename]
	return content, ok, nil
}

func (m *MockNoteStore) PutNote(ctx context.Context, filename, content string) error {
	if m.PutNoteFunc != nil {
		return m.PutNoteFunc(ctx, filename, content)
	}
	if m.Notes == nil {
		m.Notes = map[string]string{}
	}
	m.Notes[filename] = content
	return nil
}
