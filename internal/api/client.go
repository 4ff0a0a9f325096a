package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultUploadPath  = "/api/upload"
	DefaultExtractPath = "/api/extract"
	DefaultUserAgent   = "resumeflow/1.0 (+https://github.com/hyperifyio/resumeflow)"
)

// UploadResult is the success body of the upload endpoint.
type UploadResult struct {
	ResumeID string `json:"resume_id"`
	Text     string `json:"text"`
	TxtPath  string `json:"txt_path,omitempty"`
}

// ExtractRequest is the JSON body sent to the extract endpoint.
type ExtractRequest struct {
	ResumeID string `json:"resume_id"`
	Text     string `json:"text"`
}

// Client talks to the upload/extract backend over HTTP.
type Client struct {
	BaseURL     string
	UploadPath  string
	ExtractPath string
	HTTPClient  *http.Client
	UserAgent   string
	// PerRequestTimeout bounds each request. Zero means no client-side bound.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	Logger          zerolog.Logger
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// Upload sends content as the multipart field "file" to the upload endpoint.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var res UploadResult
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return res, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return res, fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return res, fmt.Errorf("close multipart: %w", err)
	}

	b, err := c.post(ctx, "upload", c.pathOr(c.UploadPath, DefaultUploadPath), mw.FormDataContentType(), &body)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return res, &TransportError{Op: "upload", Err: fmt.Errorf("decode response: %w", err)}
	}
	return res, nil
}

// Extract posts req as JSON and returns the response body untouched.
// The body is only checked to be valid JSON.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode extract request: %w", err)
	}
	b, err := c.post(ctx, "extract", c.pathOr(c.ExtractPath, DefaultExtractPath), "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, &TransportError{Op: "extract", Err: errors.New("decode response: invalid JSON")}
	}
	return json.RawMessage(b), nil
}

func (c *Client) post(ctx context.Context, op, path, contentType string, body io.Reader) ([]byte, error) {
	endpoint, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		c.Logger.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("request failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.Logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: detailFrom(b)}
	}
	return b, nil
}

func (c *Client) endpoint(path string) (string, error) {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return "", errors.New("missing backend base url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if !isHTTPScheme(u) {
		return "", fmt.Errorf("unsupported URL scheme: %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

func (c *Client) pathOr(p, def string) string {
	if strings.TrimSpace(p) == "" {
		return def
	}
	return p
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
