package app

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "sync/atomic"
    "testing"

    "github.com/hyperifyio/resumeflow/internal/messages"
)

// scriptedBackend answers the two endpoints with fixed responses and counts calls.
type scriptedBackend struct {
    uploadStatus  int
    uploadBody    string
    extractStatus int
    extractBody   string
    uploads       atomic.Int32
    extracts      atomic.Int32
    lastExtract   atomic.Value
}

func (b *scriptedBackend) server(t *testing.T) *httptest.Server {
    t.Helper()
    mux := http.NewServeMux()
    mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
        b.uploads.Add(1)
        if _, _, err := r.FormFile("file"); err != nil {
            t.Errorf("upload without file field: %v", err)
        }
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(b.uploadStatus)
        _, _ = w.Write([]byte(b.uploadBody))
    })
    mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
        b.extracts.Add(1)
        var body bytes.Buffer
        _, _ = body.ReadFrom(r.Body)
        b.lastExtract.Store(body.String())
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(b.extractStatus)
        _, _ = w.Write([]byte(b.extractBody))
    })
    srv := httptest.NewServer(mux)
    t.Cleanup(srv.Close)
    return srv
}

func writeInput(t *testing.T, dir, name string) string {
    t.Helper()
    p := filepath.Join(dir, name)
    if err := os.WriteFile(p, []byte("%PDF-1.4 fake"), 0o644); err != nil {
        t.Fatalf("write input: %v", err)
    }
    return p
}

func TestRun_EndToEndSuccess(t *testing.T) {
    b := &scriptedBackend{
        uploadStatus: 200, uploadBody: `{"resume_id":"42","text":"Jane Doe"}`,
        extractStatus: 200, extractBody: `{"name":"Jane Doe"}`,
    }
    srv := b.server(t)
    dir := t.TempDir()
    outDir := filepath.Join(dir, "out")

    a, err := New(context.Background(), Config{
        BaseURL:       srv.URL,
        Inputs:        []string{writeInput(t, dir, "resume.pdf")},
        OutputDir:     outDir,
        OutputPDFPath: filepath.Join(dir, "result.pdf"),
    })
    if err != nil {
        t.Fatalf("new app: %v", err)
    }
    defer a.Close()
    var stdout bytes.Buffer
    a.Stdout = &stdout

    if err := a.Run(context.Background()); err != nil {
        t.Fatalf("run: %v", err)
    }
    if got := b.lastExtract.Load(); got != `{"resume_id":"42","text":"Jane Doe"}` {
        t.Fatalf("extract body=%v", got)
    }
    snap := a.console.Snapshot()
    if snap.Status.Text != messages.English.Completed || snap.Status.IsError {
        t.Fatalf("status=%+v", snap.Status)
    }
    if snap.Raw != "Jane Doe" || snap.Structured != "{\n  \"name\": \"Jane Doe\"\n}" {
        t.Fatalf("unexpected regions: %+v", snap)
    }
    if !strings.Contains(stdout.String(), "Jane Doe") {
        t.Fatalf("stdout missing result: %q", stdout.String())
    }

    raw, err := os.ReadFile(filepath.Join(outDir, "raw.txt"))
    if err != nil || string(raw) != "Jane Doe" {
        t.Fatalf("raw.txt=%q err=%v", raw, err)
    }
    var structured map[string]any
    sb, err := os.ReadFile(filepath.Join(outDir, "structured.json"))
    if err != nil || json.Unmarshal(sb, &structured) != nil || structured["name"] != "Jane Doe" {
        t.Fatalf("structured.json=%q err=%v", sb, err)
    }
    var m manifest
    mb, err := os.ReadFile(filepath.Join(outDir, "status.json"))
    if err != nil || json.Unmarshal(mb, &m) != nil {
        t.Fatalf("status.json=%q err=%v", mb, err)
    }
    if m.ResumeID != "42" || m.State != "completed" || m.File != "resume.pdf" || m.TextChars != 8 || m.TextSHA256 == "" {
        t.Fatalf("unexpected manifest: %+v", m)
    }
    if st, err := os.Stat(filepath.Join(dir, "result.pdf")); err != nil || st.Size() == 0 {
        t.Fatalf("pdf not written: %v", err)
    }
}

func TestRun_UploadRejected(t *testing.T) {
    b := &scriptedBackend{uploadStatus: 400, uploadBody: `{"detail":"not a PDF"}`}
    srv := b.server(t)
    dir := t.TempDir()

    a, err := New(context.Background(), Config{BaseURL: srv.URL, Inputs: []string{writeInput(t, dir, "resume.pdf")}})
    if err != nil {
        t.Fatalf("new app: %v", err)
    }
    var stdout bytes.Buffer
    a.Stdout = &stdout

    err = a.Run(context.Background())
    if !errors.Is(err, ErrSubmissionFailed) {
        t.Fatalf("expected ErrSubmissionFailed, got %v", err)
    }
    if b.extracts.Load() != 0 {
        t.Fatalf("extract must not be called")
    }
    snap := a.console.Snapshot()
    if snap.Status.Text != "not a PDF" || !snap.Status.IsError || snap.Raw != "" || snap.Structured != "" {
        t.Fatalf("unexpected display: %+v", snap)
    }
    if stdout.Len() != 0 {
        t.Fatalf("nothing should be rendered, got %q", stdout.String())
    }
}

func TestRun_ExtractUnreachable(t *testing.T) {
    // Upload succeeds, then the extract connection is dropped.
    mux := http.NewServeMux()
    mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"resume_id":"7","text":"Jane Doe"}`))
    })
    mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
        hj, ok := w.(http.Hijacker)
        if !ok {
            t.Errorf("hijack unsupported")
            return
        }
        conn, _, _ := hj.Hijack()
        _ = conn.Close()
    })
    srv := httptest.NewServer(mux)
    defer srv.Close()
    dir := t.TempDir()

    a, err := New(context.Background(), Config{BaseURL: srv.URL, Inputs: []string{writeInput(t, dir, "resume.pdf")}, Language: "zh-CN"})
    if err != nil {
        t.Fatalf("new app: %v", err)
    }
    a.Stdout = &bytes.Buffer{}

    if err := a.Run(context.Background()); !errors.Is(err, ErrSubmissionFailed) {
        t.Fatalf("expected ErrSubmissionFailed, got %v", err)
    }
    snap := a.console.Snapshot()
    if snap.Status.Text != messages.Chinese.NetworkFailure || !snap.Status.IsError {
        t.Fatalf("status=%+v", snap.Status)
    }
    if snap.Raw != "Jane Doe" {
        t.Fatalf("raw output should survive, got %q", snap.Raw)
    }
}

func TestRun_MissingInputIsValidationFailure(t *testing.T) {
    b := &scriptedBackend{uploadStatus: 200, uploadBody: `{}`}
    srv := b.server(t)

    a, err := New(context.Background(), Config{BaseURL: srv.URL, Inputs: []string{filepath.Join(t.TempDir(), "nope.pdf")}})
    if err != nil {
        t.Fatalf("new app: %v", err)
    }
    a.Stdout = &bytes.Buffer{}
    if err := a.Run(context.Background()); !errors.Is(err, ErrSubmissionFailed) {
        t.Fatalf("expected ErrSubmissionFailed, got %v", err)
    }
    if b.uploads.Load() != 0 {
        t.Fatalf("no upload expected")
    }
    if got := a.console.Snapshot().Status.Text; got != messages.English.SelectFile {
        t.Fatalf("status=%q", got)
    }
}

func TestRun_UploadOnly(t *testing.T) {
    b := &scriptedBackend{uploadStatus: 200, uploadBody: `{"resume_id":"5","text":""}`}
    srv := b.server(t)
    dir := t.TempDir()

    a, err := New(context.Background(), Config{BaseURL: srv.URL, Inputs: []string{writeInput(t, dir, "r.pdf")}, UploadOnly: true})
    if err != nil {
        t.Fatalf("new app: %v", err)
    }
    a.Stdout = &bytes.Buffer{}
    if err := a.Run(context.Background()); err != nil {
        t.Fatalf("run: %v", err)
    }
    if b.extracts.Load() != 0 {
        t.Fatalf("extract must not be called")
    }
    snap := a.console.Snapshot()
    if snap.Raw != messages.English.NoText || snap.Status.Text != messages.English.UploadedWithID("5") {
        t.Fatalf("unexpected display: %+v", snap)
    }
}

func TestRun_InteractiveLastLineWins(t *testing.T) {
    b := &scriptedBackend{
        uploadStatus: 200, uploadBody: `{"resume_id":"1","text":"Jane Doe"}`,
        extractStatus: 200, extractBody: `{"name":"Jane Doe"}`,
    }
    srv := b.server(t)
    p := writeInput(t, t.TempDir(), "resume.pdf")

    cases := []struct {
        name    string
        stdin   string
        status  string
        wantErr error
    }{
        {"file then blank line", p + "\n\n", messages.English.SelectFile, ErrSubmissionFailed},
        {"blank line then file", "\n" + p + "\n", messages.English.Completed, nil},
    }
    for _, tc := range cases {
        // Repeat so a scheduling dependent order would show up.
        for i := 0; i < 20; i++ {
            a, err := New(context.Background(), Config{BaseURL: srv.URL, Interactive: true})
            if err != nil {
                t.Fatalf("new app: %v", err)
            }
            a.Stdin = strings.NewReader(tc.stdin)
            a.Stdout = &bytes.Buffer{}
            if err := a.Run(context.Background()); !errors.Is(err, tc.wantErr) {
                t.Fatalf("%s: run err=%v, want %v", tc.name, err, tc.wantErr)
            }
            if got := a.console.Snapshot().Status.Text; got != tc.status {
                t.Fatalf("%s (run %d): status=%q, want %q", tc.name, i, got, tc.status)
            }
            a.Close()
        }
    }
}
