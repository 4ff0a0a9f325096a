package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpload_SendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID header")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(500)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "resume.pdf" || string(b) != "%PDF-fake" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, string(b))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resume_id":"42","text":"Jane Doe","txt_path":"storage/txts/42.txt"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	res, err := c.Upload(context.Background(), "resume.pdf", strings.NewReader("%PDF-fake"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResumeID != "42" || res.Text != "Jane Doe" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

// The resume id is a string in the upload contract; other JSON types are
// a malformed success body.
func TestUpload_NonStringResumeIDIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resume_id":42,"text":"Jane Doe"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.Upload(context.Background(), "resume.pdf", strings.NewReader("%PDF"))
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "upload" {
		t.Fatalf("expected upload TransportError, got %v", err)
	}
}

func TestUpload_StatusErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"not a PDF"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.Upload(context.Background(), "a.txt", strings.NewReader("x"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != 400 || se.Detail != "not a PDF" || se.Op != "upload" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestDetailFrom(t *testing.T) {
	cases := map[string]string{
		`{"detail":"X"}`:                       "X",
		`{"detail":""}`:                        "",
		`{}`:                                   "",
		`not json`:                             "",
		`{"detail":[{"msg":"field required"}]}`: "",
	}
	for body, want := range cases {
		if got := detailFrom([]byte(body)); got != want {
			t.Fatalf("detailFrom(%s)=%q, want %q", body, got, want)
		}
	}
}

func TestExtract_PostsJSONAndReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req["resume_id"] != "R" || req["text"] != "T" || len(req) != 2 {
			t.Errorf("unexpected body: %v", req)
		}
		_, _ = w.Write([]byte(`{"name":"Jane Doe","skills":["go"]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/"}
	raw, err := c.Extract(context.Background(), ExtractRequest{ResumeID: "R", Text: "T"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"name":"Jane Doe","skills":["go"]}` {
		t.Fatalf("unexpected raw body: %s", raw)
	}
}

func TestExtract_InvalidJSONIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.Extract(context.Background(), ExtractRequest{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestPost_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := &Client{BaseURL: url, PerRequestTimeout: 2 * time.Second}
	_, err := c.Upload(context.Background(), "resume.pdf", strings.NewReader("x"))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Op != "upload" {
		t.Fatalf("op=%q, want upload", te.Op)
	}
}

func TestEndpoint_JoinsBasePath(t *testing.T) {
	c := &Client{BaseURL: "http://localhost:8000/prefix/"}
	got, err := c.endpoint("/api/upload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "http://localhost:8000/prefix/api/upload" {
		t.Fatalf("endpoint=%q", got)
	}
	if _, err := (&Client{BaseURL: "ftp://x"}).endpoint("/a"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := (&Client{}).endpoint("/a"); err == nil {
		t.Fatalf("expected missing base url error")
	}
}
