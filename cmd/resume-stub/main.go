package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/resumeflow/internal/llm"
	"github.com/hyperifyio/resumeflow/internal/stub"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env")
	}

	srv, addr, err := newServer(os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("init stub backend")
	}
	hs := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("resume-stub listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
}

// newServer builds the backend from environment values. With LLM_MODEL set
// extraction goes to the model at LLM_BASE_URL; otherwise the heuristic
// extractor answers. Parsed texts go to TXT_DIR (default storage/txts;
// "-" disables).
func newServer(getenv func(string) string) (*stub.Server, string, error) {
	addr := strings.TrimSpace(getenv("ADDR"))
	if addr == "" {
		addr = ":8000"
	}
	store, err := stub.NewStore()
	if err != nil {
		return nil, "", err
	}
	srv := &stub.Server{
		Store:     store,
		Extractor: stub.HeuristicExtractor{},
		Logger:    log.Logger.With().Str("component", "stub").Logger(),
	}
	if model := strings.TrimSpace(getenv("LLM_MODEL")); model != "" {
		srv.Extractor = &stub.LLMExtractor{
			Client: llm.NewOpenAIProvider(getenv("LLM_BASE_URL"), getenv("LLM_API_KEY"), nil),
			Model:  model,
		}
	}
	if s := strings.TrimSpace(getenv("MAX_UPLOAD_BYTES")); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return nil, "", errors.New("MAX_UPLOAD_BYTES must be a positive integer")
		}
		srv.MaxUploadBytes = n
	}
	switch dir := strings.TrimSpace(getenv("TXT_DIR")); dir {
	case "":
		srv.TextDir = "storage/txts"
	case "-":
	default:
		srv.TextDir = dir
	}
	for _, o := range strings.Split(getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			srv.AllowedOrigins = append(srv.AllowedOrigins, o)
		}
	}
	return srv, addr, nil
}
