package webdav

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	httputil "github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/http"
)

func TestGetNoteExisting(t *testing.T) {
	var gotPath, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		w.Write([]byte("# My Day\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice", "secret", "/daily/")

	content, exists, err := client.GetNote(context.Background(), "📅2025-08-25(月).md")
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
	if content != "# My Day\n" {
		t.Errorf("content = %q", content)
	}
	if gotPath != "/daily/📅2025-08-25(月).md" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotUser != "alice" || gotPass != "secret" {
		t.Errorf("basic auth = %q/%q", gotUser, gotPass)
	}
}

func TestGetNoteMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice", "secret", "daily")

	content, exists, err := client.GetNote(context.Background(), "missing.md")
	if err != nil {
		t.Fatalf("a 404 must not be an error, got %v", err)
	}
	if exists {
		t.Error("exists = true for a 404")
	}
	if content != "" {
		t.Errorf("content = %q, want empty", content)
	}
}

func TestGetNoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "locked", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice", "secret", "daily")

	_, _, err := client.GetNote(context.Background(), "note.md")
	var httpErr *httputil.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error is not an *httputil.HTTPError: %v", err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", httpErr.StatusCode)
	}
}

func TestPutNote(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"created", http.StatusCreated},
		{"updated", http.StatusNoContent},
		{"plain ok", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotBody, gotContentType string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
				gotContentType = r.Header.Get("Content-Type")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "alice", "secret", "daily")

			err := client.PutNote(context.Background(), "note.md", "# Hello\n")
			if err != nil {
				t.Fatalf("PutNote() error = %v", err)
			}
			if gotMethod != "PUT" {
				t.Errorf("method = %q, want PUT", gotMethod)
			}
			if gotBody != "# Hello\n" {
				t.Errorf("body = %q", gotBody)
			}
			if gotContentType != "text/plain; charset=utf-8" {
				t.Errorf("content type = %q", gotContentType)
			}
		})
	}
}

func TestPutNoteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice", "secret", "daily")

	err := client.PutNote(context.Background(), "note.md", "content")
	if err == nil {
		t.Fatal("expected an error for a 507 response")
	}
}

func TestFileURLTrimsSlashes(t *testing.T) {
	client := NewClient("https://dav.example.com/", "u", "p", "/Obsidian/daily/")

	if got := client.fileURL("note.md"); got != "https://dav.example.com/Obsidian/daily/note.md" {
		t.Errorf("fileURL() = %q", got)
	}

	root := NewClient("https://dav.example.com", "u", "p", "")
	if got := root.fileURL("note.md"); got != "https://dav.example.com/note.md" {
		t.Errorf("fileURL() with empty base path = %q", got)
	}
}
