package shared

import "context"

// --- Persistence Interfaces ---

// SecretStore persists small opaque values under a fixed name.
// The stored OAuth token pair is the only mutable state this job owns
// across invocations.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
	SetSecret(ctx context.Context, name, value string) error
}
