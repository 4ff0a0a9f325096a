package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/resumeflow/internal/api"
	"github.com/hyperifyio/resumeflow/internal/display"
	"github.com/hyperifyio/resumeflow/internal/flow"
	"github.com/hyperifyio/resumeflow/internal/messages"
)

// ErrSubmissionFailed is returned by Run when the submission left on display
// did not complete. Per the exit code policy this maps to exit status 2.
var ErrSubmissionFailed = errors.New("submission did not complete")

type App struct {
	cfg     Config
	client  *api.Client
	console *display.Console
	ctrl    *flow.Controller

	// Stdin feeds interactive mode; Stdout receives the rendered result.
	Stdin  io.Reader
	Stdout io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = api.DefaultUserAgent
	}
	client := &api.Client{
		BaseURL:           cfg.BaseURL,
		UploadPath:        cfg.UploadPath,
		ExtractPath:       cfg.ExtractPath,
		HTTPClient:        newBackendHTTPClient(),
		UserAgent:         ua,
		PerRequestTimeout: cfg.RequestTimeout,
		Logger:            log.Logger.With().Str("component", "api").Logger(),
	}
	console := display.NewConsole(log.Logger.With().Str("component", "status").Logger())
	catalog := messages.For(cfg.Language)
	ctrl := flow.New(client, console, catalog)
	ctrl.UploadOnly = cfg.UploadOnly
	ctrl.Logger = log.Logger.With().Str("component", "flow").Logger()

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("lang", catalog.Tag.String()).
		Bool("upload_only", cfg.UploadOnly).
		Str("version", BuildVersion).
		Msg("app initialized")
	return &App{cfg: cfg, client: client, console: console, ctrl: ctrl, Stdin: os.Stdin, Stdout: os.Stdout}, nil
}

func (a *App) Close() {
	if t, ok := a.client.HTTPClient.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// Run submits every configured input in order (or, in interactive mode,
// one submission per stdin line, concurrently), then renders the display
// and writes the requested artifacts.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Interactive {
		if err := a.runInteractive(ctx); err != nil {
			return err
		}
	} else {
		for _, in := range a.cfg.Inputs {
			a.submit(ctx, in)
		}
	}

	snap := a.console.Snapshot()
	if err := display.RenderSnapshot(a.Stdout, snap); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	sub := a.ctrl.Submission()
	state := a.ctrl.State()
	m := manifest{
		File:        sub.FileName,
		ResumeID:    sub.ResumeID,
		State:       state.String(),
		BaseURL:     a.cfg.BaseURL,
		UploadOnly:  a.cfg.UploadOnly,
		GeneratedAt: time.Now().UTC(),
	}
	if err := exportArtifacts(a.cfg.OutputDir, snap, m, sub.ExtractedText); err != nil {
		return fmt.Errorf("export artifacts: %w", err)
	}
	if a.cfg.OutputDir != "" {
		log.Info().Str("dir", a.cfg.OutputDir).Msg("wrote artifacts")
	}
	if strings.TrimSpace(a.cfg.OutputPDFPath) != "" {
		if err := writeResultPDF(snap, m, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPDFPath).Msg("wrote pdf")
	}

	if state != flow.Completed {
		return ErrSubmissionFailed
	}
	return nil
}

// submit runs one submission for path.
func (a *App) submit(ctx context.Context, path string) flow.Outcome {
	p, out, closeFn := a.begin(path)
	if p == nil {
		return out
	}
	defer closeFn()
	return a.ctrl.Finish(ctx, p)
}

// begin opens path and starts its submission. An empty path, or one that
// cannot be opened, is a submission without a selected file; the returned
// Pending is nil then and the Outcome is final.
func (a *App) begin(path string) (*flow.Pending, flow.Outcome, func()) {
	path = strings.TrimSpace(path)
	if path == "" {
		p, out := a.ctrl.Begin(nil)
		return p, out, func() {}
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot open input")
		p, out := a.ctrl.Begin(nil)
		return p, out, func() {}
	}
	p, out := a.ctrl.Begin(&flow.File{Name: baseName(path), Content: f})
	if p == nil {
		_ = f.Close()
		return nil, out, func() {}
	}
	return p, out, func() { _ = f.Close() }
}

// runInteractive treats each stdin line as a new submission. Tokens are
// taken in line order before the network phases start in the background,
// so the last line wins the display.
func (a *App) runInteractive(ctx context.Context) error {
	var wg sync.WaitGroup
	scanner := bufio.NewScanner(a.Stdin)
	for scanner.Scan() {
		path := scanner.Text()
		p, _, closeFn := a.begin(path)
		if p == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer closeFn()
			out := a.ctrl.Finish(ctx, p)
			if out.Stale {
				log.Debug().Uint64("token", out.Token).Str("path", path).Msg("superseded submission finished")
			}
		}()
	}
	wg.Wait()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
