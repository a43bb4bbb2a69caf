// Package webdav is a minimal WebDAV client for reading and replacing
// whole note files with basic auth.
package webdav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httputil "github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/http"
)

// Client reads and writes files below a base path on a WebDAV server.
type Client struct {
	baseURL  string
	username string
	password string
	basePath string
	client   *http.Client
}

// NewClient creates a WebDAV client for the given server and directory.
func NewClient(baseURL, username, password, basePath string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		basePath: strings.Trim(basePath, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) fileURL(filename string) string {
	if c.basePath == "" {
		return c.baseURL + "/" + filename
	}
	return c.baseURL + "/" + c.basePath + "/" + filename
}

// GetNote fetches the current contents of a note.
// The second return value reports whether the note exists; a 404 is not
// an error.
func (c *Client) GetNote(ctx context.Context, filename string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.fileURL(filename), nil)
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if err := httputil.ParseErrorResponse(resp); err != nil {
		return "", false, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read response: %w", err)
	}
	return string(body), true, nil
}

// PutNote replaces the note with the given contents, creating it if absent.
// A single PUT with no concurrency check: last write wins.
func (c *Client) PutNote(ctx context.Context, filename, content string) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", c.fileURL(filename), strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// 201 Created for new files, 204 No Content for updates. Some servers
	// answer a plain 200.
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	}
	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}
	return httputil.WrapResponseError(resp, "unexpected response to PUT")
}
