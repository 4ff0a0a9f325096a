package display

import "sync"

// Status is the status line and its style flag.
type Status struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// Snapshot is the visible content of all three regions.
type Snapshot struct {
	Status     Status `json:"status"`
	Raw        string `json:"raw"`
	Structured string `json:"structured"`
}

// Recorder keeps the regions in memory and remembers every status shown.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	current Snapshot
	history []Status
}

func (r *Recorder) SetStatus(text string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{Text: text, IsError: isError}
	r.current.Status = s
	r.history = append(r.history, s)
}

func (r *Recorder) SetRawOutput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Raw = text
}

func (r *Recorder) SetStructuredOutput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Structured = text
}

// Snapshot returns the current content.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every status shown so far, oldest first.
func (r *Recorder) History() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.history...)
}
