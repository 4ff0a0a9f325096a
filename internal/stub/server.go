package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxUploadBytes = 20 << 20
	maxExtractBodyBytes   = 4 << 20
)

// Server implements the upload and extract endpoints the client talks to.
type Server struct {
	Store     *Store
	Extractor Extractor
	// MaxUploadBytes caps accepted files. Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// AllowedOrigins configures CORS; empty allows any origin.
	AllowedOrigins []string
	// TextDir, when set, receives a <resume_id>.txt copy of every parsed
	// text; its path is returned as txt_path.
	TextDir string
	Logger  zerolog.Logger
}

// Handler returns the routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/extract", s.handleExtract)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
	}).Handler(mux)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	// Leave room for the multipart envelope so oversize files reach the
	// explicit size check below.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()
	if strings.TrimSpace(hdr.Filename) == "" {
		writeDetail(w, http.StatusBadRequest, "no file selected")
		return
	}
	if strings.ToLower(filepath.Ext(hdr.Filename)) != ".pdf" {
		writeDetail(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if len(content) == 0 {
		writeDetail(w, http.StatusBadRequest, "file content is empty")
		return
	}
	if int64(len(content)) > limit {
		writeDetail(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	text, err := pdfToText(content)
	if err != nil {
		s.Logger.Warn().Err(err).Str("resume_id", id).Msg("pdf parse failed")
		writeDetail(w, http.StatusInternalServerError, "PDF parsing failed")
		return
	}
	if err := s.Store.Put(&Resume{ID: id, Filename: hdr.Filename, Text: text, CreatedAt: time.Now().UTC()}); err != nil {
		s.Logger.Error().Err(err).Str("resume_id", id).Msg("store resume")
		writeDetail(w, http.StatusInternalServerError, "could not store resume")
		return
	}
	out := map[string]string{"resume_id": id, "text": text}
	if s.TextDir != "" {
		p, err := s.saveText(id, text)
		if err != nil {
			s.Logger.Error().Err(err).Str("resume_id", id).Msg("save text")
			writeDetail(w, http.StatusInternalServerError, "could not store resume")
			return
		}
		out["txt_path"] = p
	}
	s.Logger.Info().Str("resume_id", id).Str("file", hdr.Filename).Int("chars", len(text)).Msg("parsed resume")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveText(id, text string) (string, error) {
	if err := os.MkdirAll(s.TextDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir text dir: %w", err)
	}
	p := filepath.Join(s.TextDir, id+".txt")
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		ResumeID any `json:"resume_id"`
		Text     any `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxExtractBodyBytes)).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text, ok := payload.Text.(string)
	if !ok || strings.TrimSpace(text) == "" {
		writeDetail(w, http.StatusBadRequest, "text must not be empty")
		return
	}
	ex := s.Extractor
	if ex == nil {
		ex = HeuristicExtractor{}
	}
	structured, err := ex.Extract(r.Context(), text)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("structured extraction failed")
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}
	if id, ok := payload.ResumeID.(string); ok && id != "" {
		if err := s.Store.SaveStructured(id, structured); err != nil {
			s.Logger.Error().Err(err).Str("resume_id", id).Msg("store structured resume")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(structured)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
