// Package secrets adapts Google Secret Manager to the shared.SecretStore
// interface. Values are stored as new secret versions; reads always resolve
// the latest version.
package secrets

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when the secret (or any version of it) does not exist.
var ErrNotFound = errors.New("secret not found")

// Adapter implements shared.SecretStore backed by Secret Manager.
type Adapter struct {
	client    *secretmanager.Client
	projectID string
}

// NewAdapter creates an Adapter for the given project.
// Extra client options are passed through (credentials, endpoint).
func NewAdapter(ctx context.Context, projectID string, opts ...option.ClientOption) (*Adapter, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager client: %w", err)
	}
	return &Adapter{client: client, projectID: projectID}, nil
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// GetSecret returns the latest version of the named secret.
func (a *Adapter) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := a.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", a.projectID, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.Payload.Data), nil
}

// SetSecret adds a new version of the named secret, creating the secret
// container first if it does not exist yet.
func (a *Adapter) SetSecret(ctx context.Context, name, value string) error {
	if err := a.addVersion(ctx, name, value); err == nil {
		return nil
	} else if status.Code(err) != codes.NotFound {
		return fmt.Errorf("add secret version %s: %w", name, err)
	}

	_, err := a.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + a.projectID,
		SecretId: name,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("create secret %s: %w", name, err)
	}

	if err := a.addVersion(ctx, name, value); err != nil {
		return fmt.Errorf("add secret version %s: %w", name, err)
	}
	return nil
}

func (a *Adapter) addVersion(ctx context.Context, name, value string) error {
	_, err := a.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  fmt.Sprintf("projects/%s/secrets/%s", a.projectID, name),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	return err
}
