package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/resumeflow/internal/api"
	"github.com/hyperifyio/resumeflow/internal/messages"
)

// Backend is the pair of endpoints the controller drives.
type Backend interface {
	Upload(ctx context.Context, filename string, content io.Reader) (api.UploadResult, error)
	Extract(ctx context.Context, req api.ExtractRequest) (json.RawMessage, error)
}

// Display is the visible surface: a status line with an error flag, the
// raw text region and the structured output region.
type Display interface {
	SetStatus(text string, isError bool)
	SetRawOutput(text string)
	SetStructuredOutput(text string)
}

// File is a selected document. A nil *File means nothing was selected.
type File struct {
	Name    string
	Content io.Reader
}

// Controller turns submissions into the upload then extract sequence and
// keeps the display in sync with the latest submission only.
//
// HandleSubmit is safe for concurrent use. Every call takes a new token;
// results of a call whose token is no longer current are dropped.
type Controller struct {
	Backend  Backend
	Display  Display
	Messages messages.Catalog
	// UploadOnly stops the sequence after a successful upload.
	UploadOnly bool
	// Observer, if set, receives every pipeline event of the current
	// submission. It is called with the controller lock held and must not
	// call back into the controller.
	Observer func(Event)
	Logger   zerolog.Logger

	mu      sync.Mutex
	current uint64
	state   State
	sub     SubmissionState
}

// New returns a controller using catalog for user-visible texts.
func New(backend Backend, display Display, catalog messages.Catalog) *Controller {
	return &Controller{Backend: backend, Display: display, Messages: catalog, Logger: zerolog.Nop()}
}

// State returns the state of the latest submission.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submission returns a copy of the latest submission's state.
func (c *Controller) Submission() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// Pending is a submission that holds its token and shows the Uploading
// status. Finish runs its network phases.
type Pending struct {
	token uint64
	file  *File
}

// Token returns the token taken by Begin.
func (p *Pending) Token() uint64 { return p.token }

// HandleSubmit runs one submission to a terminal state. Errors are shown
// on the display and reported in the Outcome; nothing is returned as a
// Go error and nothing panics on backend failure.
func (c *Controller) HandleSubmit(ctx context.Context, f *File) Outcome {
	p, out := c.Begin(f)
	if p == nil {
		return out
	}
	return c.Finish(ctx, p)
}

// Begin takes the next token and performs the local part of a submission:
// validation, clearing the output regions and the Uploading status. When
// validation fails it returns nil and the final Outcome. Callers that start
// submissions concurrently call Begin in submission order and Finish in
// the background.
func (c *Controller) Begin(f *File) (*Pending, Outcome) {
	msgs := c.catalog()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	token := c.current
	c.state = Validating
	if f == nil || f.Content == nil {
		c.state = Idle
		c.Display.SetStatus(msgs.SelectFile, true)
		c.Logger.Debug().Uint64("token", token).Msg("submission rejected: no file")
		return nil, Outcome{Token: token, State: Idle, Err: ErrNoFile}
	}
	c.Display.SetRawOutput("")
	c.Display.SetStructuredOutput("")
	c.sub = SubmissionState{FileName: f.Name}
	c.state = Uploading
	c.Display.SetStatus(msgs.Uploading, false)
	c.emit(Event{Kind: UploadPending, Token: token})
	return &Pending{token: token, file: f}, Outcome{Token: token, State: Uploading}
}

// Finish uploads and extracts p, applying results only while p's token is
// still current.
func (c *Controller) Finish(ctx context.Context, p *Pending) Outcome {
	msgs := c.catalog()
	token, f := p.token, p.file

	c.Logger.Debug().Uint64("token", token).Str("file", f.Name).Msg("uploading")
	res, err := c.Backend.Upload(ctx, f.Name, f.Content)
	if err != nil {
		return c.fail(token, PhaseUpload, err)
	}

	applied := c.apply(token, func() {
		c.sub.ResumeID = res.ResumeID
		c.sub.ExtractedText = res.Text
		raw := res.Text
		if raw == "" {
			raw = msgs.NoText
		}
		c.Display.SetRawOutput(raw)
		c.Display.SetStatus(msgs.UploadedWithID(res.ResumeID), false)
		c.state = UploadedOK
		c.emit(Event{Kind: UploadOK, Token: token, ResumeID: res.ResumeID, Text: res.Text})
		if c.UploadOnly {
			c.state = Completed
			return
		}
		c.state = Extracting
		c.Display.SetStatus(msgs.Extracting, false)
		c.emit(Event{Kind: ExtractPending, Token: token})
	})
	if !applied {
		return c.stale(token, UploadedOK, nil)
	}
	if c.UploadOnly {
		return Outcome{Token: token, State: Completed}
	}

	// The extract request carries exactly what the upload returned.
	req := api.ExtractRequest{ResumeID: res.ResumeID, Text: res.Text}
	c.Logger.Debug().Uint64("token", token).Str("resume_id", req.ResumeID).Msg("extracting")
	raw, err := c.Backend.Extract(ctx, req)
	if err != nil {
		return c.fail(token, PhaseExtract, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return c.fail(token, PhaseExtract, &api.TransportError{Op: "extract", Err: err})
	}

	applied = c.apply(token, func() {
		c.Display.SetStructuredOutput(pretty.String())
		c.Display.SetStatus(msgs.Completed, false)
		c.state = Completed
		c.emit(Event{Kind: ExtractOK, Token: token, Structured: raw})
	})
	if !applied {
		return c.stale(token, Completed, nil)
	}
	c.Logger.Info().Uint64("token", token).Str("resume_id", req.ResumeID).Msg("submission completed")
	return Outcome{Token: token, State: Completed}
}

// apply runs fn under the lock if token is still current.
func (c *Controller) apply(token uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.current {
		return false
	}
	fn()
	return true
}

func (c *Controller) fail(token uint64, phase Phase, err error) Outcome {
	perr := &PhaseError{Phase: phase, Err: err}
	msg := c.messageFor(err)
	kind := UploadFailed
	if phase == PhaseExtract {
		kind = ExtractFailed
	}
	applied := c.apply(token, func() {
		c.Display.SetStatus(msg, true)
		c.state = Failed
		c.emit(Event{Kind: kind, Token: token, Message: msg})
	})
	if !applied {
		return c.stale(token, Failed, perr)
	}
	c.Logger.Warn().Err(err).Uint64("token", token).Str("phase", string(phase)).Msg("submission failed")
	return Outcome{Token: token, State: Failed, Err: perr}
}

func (c *Controller) stale(token uint64, st State, err error) Outcome {
	c.Logger.Debug().Uint64("token", token).Str("state", st.String()).Msg("discarding result of superseded submission")
	return Outcome{Token: token, State: st, Err: err, Stale: true}
}

// messageFor maps a backend error to the status text: the server's detail
// for HTTP errors, the generic failure text when there is none, and the
// network text for everything else.
func (c *Controller) messageFor(err error) string {
	msgs := c.catalog()
	var se *api.StatusError
	if errors.As(err, &se) {
		if se.Detail != "" {
			return se.Detail
		}
		return msgs.UploadFailed
	}
	return msgs.NetworkFailure
}

func (c *Controller) emit(ev Event) {
	if c.Observer != nil {
		c.Observer(ev)
	}
}

func (c *Controller) catalog() messages.Catalog {
	if c.Messages.SelectFile == "" {
		return messages.English
	}
	return c.Messages
}
