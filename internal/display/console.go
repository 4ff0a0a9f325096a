package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Console mirrors every status change to a logger and keeps the regions in
// a Recorder so the final content can be printed once the flow settles.
type Console struct {
	Recorder
	Logger zerolog.Logger
}

// NewConsole returns a Console logging through logger.
func NewConsole(logger zerolog.Logger) *Console {
	return &Console{Logger: logger}
}

func (c *Console) SetStatus(text string, isError bool) {
	c.Recorder.SetStatus(text, isError)
	if isError {
		c.Logger.Error().Msg(text)
		return
	}
	c.Logger.Info().Msg(text)
}


// RenderSnapshot writes the raw and structured regions of s to w as plain
// sections. Empty regions are skipped.
func RenderSnapshot(w io.Writer, s Snapshot) error {
	var b strings.Builder
	if s.Raw != "" {
		b.WriteString("== Extracted text ==\n")
		b.WriteString(strings.TrimRight(s.Raw, "\n"))
		b.WriteString("\n")
	}
	if s.Structured != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("== Structured JSON ==\n")
		b.WriteString(s.Structured)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return nil
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}
