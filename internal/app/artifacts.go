package app

import (
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/hyperifyio/resumeflow/internal/display"
)

// manifest is a compact record of the submission whose result is on display.
type manifest struct {
    File        string         `json:"file"`
    ResumeID    string         `json:"resume_id,omitempty"`
    State       string         `json:"state"`
    Status      display.Status `json:"status"`
    TextSHA256  string         `json:"text_sha256,omitempty"`
    TextChars   int            `json:"text_chars"`
    BaseURL     string         `json:"base_url"`
    UploadOnly  bool           `json:"upload_only"`
    GeneratedAt time.Time      `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
    h := sha256.Sum256([]byte(text))
    return hex.EncodeToString(h[:])
}

// exportArtifacts writes raw.txt, structured.json and status.json for the
// final display under dir. Empty regions are not written.
func exportArtifacts(dir string, s display.Snapshot, m manifest, extractedText string) error {
    dir = strings.TrimSpace(dir)
    if dir == "" {
        return nil
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir output dir: %w", err)
    }
    if s.Raw != "" {
        if err := os.WriteFile(filepath.Join(dir, "raw.txt"), []byte(s.Raw), 0o644); err != nil {
            return fmt.Errorf("write raw.txt: %w", err)
        }
    }
    if s.Structured != "" {
        if err := os.WriteFile(filepath.Join(dir, "structured.json"), []byte(s.Structured+"\n"), 0o644); err != nil {
            return fmt.Errorf("write structured.json: %w", err)
        }
    }
    if extractedText != "" {
        m.TextSHA256 = computeSHA256Hex(extractedText)
        m.TextChars = len([]rune(extractedText))
    }
    m.Status = s.Status
    return writeJSON(filepath.Join(dir, "status.json"), m)
}

func writeJSON(path string, v any) error {
    b, err := json.MarshalIndent(v, "", "  ")
    if err != nil { return err }
    return os.WriteFile(path, append(b, '\n'), 0o644)
}
