package flow

import (
	"encoding/json"
	"errors"
	"fmt"
)

// State is the position of a submission in its lifecycle.
type State int

const (
	Idle State = iota
	Validating
	Uploading
	UploadedOK
	Extracting
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Uploading:
		return "uploading"
	case UploadedOK:
		return "uploaded"
	case Extracting:
		return "extracting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Kind tags a pipeline Event.
type Kind int

const (
	UploadPending Kind = iota
	UploadFailed
	UploadOK
	ExtractPending
	ExtractFailed
	ExtractOK
)

func (k Kind) String() string {
	switch k {
	case UploadPending:
		return "upload_pending"
	case UploadFailed:
		return "upload_failed"
	case UploadOK:
		return "upload_ok"
	case ExtractPending:
		return "extract_pending"
	case ExtractFailed:
		return "extract_failed"
	case ExtractOK:
		return "extract_ok"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one step of the upload/extract pipeline. Only the fields
// relevant to Kind are set: Message for the *Failed kinds, ResumeID and
// Text for UploadOK, Structured for ExtractOK.
type Event struct {
	Kind       Kind
	Token      uint64
	Message    string
	ResumeID   string
	Text       string
	Structured json.RawMessage
}

// Phase names the network call an error belongs to.
type Phase string

const (
	PhaseUpload  Phase = "upload"
	PhaseExtract Phase = "extract"
)

// ErrNoFile is the validation failure for a submission without a file.
var ErrNoFile = errors.New("no file selected")

// PhaseError attributes a backend error to the phase that produced it.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }

func (e *PhaseError) Unwrap() error { return e.Err }

// SubmissionState is the in-memory state of the latest submission.
type SubmissionState struct {
	FileName      string
	ResumeID      string
	ExtractedText string
}

// Outcome describes how one HandleSubmit call ended.
type Outcome struct {
	Token uint64
	State State
	// Err is nil for Completed outcomes.
	Err error
	// Stale is set when a newer submission superseded this one; its
	// results were not applied to the display.
	Stale bool
}
