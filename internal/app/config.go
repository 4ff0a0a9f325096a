package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are submitted in order. An empty entry is a submission
	// without a selected file.
	Inputs []string

	// Backend
	BaseURL        string
	UploadPath     string
	ExtractPath    string
	UserAgent      string
	RequestTimeout time.Duration

	// Behavior
	Language    string
	UploadOnly  bool
	Interactive bool
	Verbose     bool

	// Artifacts
	OutputDir     string
	OutputPDFPath string
}
