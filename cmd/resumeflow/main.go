package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/resumeflow/internal/api"
	"github.com/hyperifyio/resumeflow/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		input       string
		baseURL     string
		uploadPath  string
		extractPath string
		userAgent   string
		timeout     time.Duration
		language    string
		uploadOnly  bool
		interactive bool
		verbose     bool
		outputDir   string
		outputPDF   string
		configPath  string
		envFiles    string
		showVersion bool
	)

	flag.StringVar(&input, "input", "", "Path to the PDF resume to submit (positional arguments are submitted after it)")
	flag.StringVar(&baseURL, "base-url", "", "Backend base URL, e.g. http://localhost:8000")
	flag.StringVar(&uploadPath, "upload.path", api.DefaultUploadPath, "Upload endpoint path")
	flag.StringVar(&extractPath, "extract.path", api.DefaultExtractPath, "Extract endpoint path")
	flag.StringVar(&userAgent, "ua", api.DefaultUserAgent, "User-Agent for backend requests")
	flag.DurationVar(&timeout, "timeout", 0, "Per-request timeout (0 waits indefinitely)")
	flag.StringVar(&language, "lang", "", "Message language, e.g. 'en' or 'zh-CN' (defaults to the locale)")
	flag.BoolVar(&uploadOnly, "upload-only", false, "Stop after a successful upload")
	flag.BoolVar(&interactive, "interactive", false, "Read one file path per stdin line; the last submission wins")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&outputDir, "output.dir", "", "Directory for raw.txt, structured.json and status.json")
	flag.StringVar(&outputPDF, "output.pdf", "", "Optional path for a PDF rendering of the result")
	flag.StringVar(&configPath, "config", os.Getenv("RESUMEFLOW_CONFIG"), "Optional YAML or JSON config file")
	flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		log.Error().Err(err).Msg("load env files")
		os.Exit(1)
	}

	// Precedence: flags > env > config file > defaults.
	var cfg app.Config
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	inputs := make([]string, 0, 1+flag.NArg())
	if input != "" {
		inputs = append(inputs, input)
	}
	inputs = append(inputs, flag.Args()...)
	if len(inputs) > 0 {
		cfg.Inputs = inputs
	}
	if set["base-url"] {
		cfg.BaseURL = baseURL
	}
	if set["upload.path"] || cfg.UploadPath == "" {
		cfg.UploadPath = uploadPath
	}
	if set["extract.path"] || cfg.ExtractPath == "" {
		cfg.ExtractPath = extractPath
	}
	if set["ua"] || cfg.UserAgent == "" {
		cfg.UserAgent = userAgent
	}
	if set["timeout"] {
		cfg.RequestTimeout = timeout
	}
	if set["lang"] {
		cfg.Language = language
	}
	if set["upload-only"] {
		cfg.UploadOnly = uploadOnly
	}
	if set["interactive"] {
		cfg.Interactive = interactive
	}
	if set["v"] {
		cfg.Verbose = verbose
	}
	if set["output.dir"] {
		cfg.OutputDir = outputDir
	}
	if set["output.pdf"] {
		cfg.OutputPDFPath = outputPDF
	}
	// Remaining gaps fall back to the locale.
	app.ApplyEnvToConfig(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	err := run(cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps run errors to the process exit status: 0 when the final
// submission completed, 2 when it did not, 1 for setup failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrSubmissionFailed):
		return 2
	default:
		return 1
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
