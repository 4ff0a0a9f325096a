package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apppkg "github.com/hyperifyio/resumeflow/internal/app"
)

// Smoke test: run submits a file against a canned backend and writes artifacts.
func TestRun_WritesArtifacts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resume_id":"42","text":"Jane Doe"}`))
	})
	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Jane Doe"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(in, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := apppkg.Config{
		BaseURL:   srv.URL,
		Inputs:    []string{in},
		OutputDir: filepath.Join(dir, "out"),
	}
	if err := run(cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "out", "structured.json"))
	if err != nil || len(b) == 0 {
		t.Fatalf("expected structured.json, err=%v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	err := run(apppkg.Config{Inputs: []string{"x.pdf"}})
	if err == nil {
		t.Fatalf("expected config error")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code=%d, want 1", code)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{apppkg.ErrSubmissionFailed, 2},
		{fmt.Errorf("wrapped: %w", apppkg.ErrSubmissionFailed), 2},
		{errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v)=%d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" .env, ,local.env ")
	if len(got) != 2 || got[0] != ".env" || got[1] != "local.env" {
		t.Fatalf("splitList=%v", got)
	}
}
