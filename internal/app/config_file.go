package app

import (
    "encoding/json"
    "fmt"
    "net/url"
    "os"
    "path/filepath"
    "strings"
    "time"

    validation "github.com/go-ozzo/ozzo-validation/v4"
    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/resumeflow/internal/api"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Inputs []string `yaml:"inputs" json:"inputs"`

    Backend struct {
        BaseURL     string        `yaml:"baseURL" json:"baseURL"`
        UploadPath  string        `yaml:"uploadPath" json:"uploadPath"`
        ExtractPath string        `yaml:"extractPath" json:"extractPath"`
        UserAgent   string        `yaml:"userAgent" json:"userAgent"`
        Timeout     time.Duration `yaml:"timeout" json:"timeout"`
    } `yaml:"backend" json:"backend"`

    Language   string `yaml:"language" json:"language"`
    UploadOnly bool   `yaml:"uploadOnly" json:"uploadOnly"`
    Verbose    bool   `yaml:"verbose" json:"verbose"`

    Output struct {
        Dir string `yaml:"dir" json:"dir"`
        PDF string `yaml:"pdf" json:"pdf"`
    } `yaml:"output" json:"output"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if len(cfg.Inputs) == 0 && len(fc.Inputs) > 0 { cfg.Inputs = append([]string{}, fc.Inputs...) }

    if cfg.BaseURL == "" && fc.Backend.BaseURL != "" { cfg.BaseURL = fc.Backend.BaseURL }
    if (cfg.UploadPath == "" || cfg.UploadPath == api.DefaultUploadPath) && fc.Backend.UploadPath != "" { cfg.UploadPath = fc.Backend.UploadPath }
    if (cfg.ExtractPath == "" || cfg.ExtractPath == api.DefaultExtractPath) && fc.Backend.ExtractPath != "" { cfg.ExtractPath = fc.Backend.ExtractPath }
    if (cfg.UserAgent == "" || cfg.UserAgent == api.DefaultUserAgent) && fc.Backend.UserAgent != "" { cfg.UserAgent = fc.Backend.UserAgent }
    if cfg.RequestTimeout == 0 && fc.Backend.Timeout > 0 { cfg.RequestTimeout = fc.Backend.Timeout }

    if cfg.Language == "" && fc.Language != "" { cfg.Language = fc.Language }
    if !cfg.UploadOnly && fc.UploadOnly { cfg.UploadOnly = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if cfg.OutputDir == "" && fc.Output.Dir != "" { cfg.OutputDir = fc.Output.Dir }
    if cfg.OutputPDFPath == "" && fc.Output.PDF != "" { cfg.OutputPDFPath = fc.Output.PDF }
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
    err := validation.ValidateStruct(&cfg,
        validation.Field(&cfg.BaseURL, validation.Required, validation.By(httpURL)),
        validation.Field(&cfg.RequestTimeout, validation.Min(time.Duration(0))),
        validation.Field(&cfg.Inputs, validation.When(!cfg.Interactive, validation.Required.Error("at least one input file is required (or use -interactive)"))),
    )
    if err != nil {
        return fmt.Errorf("config: %w", err)
    }
    return nil
}

func httpURL(value interface{}) error {
    s, _ := value.(string)
    u, err := url.Parse(strings.TrimSpace(s))
    if err != nil {
        return fmt.Errorf("invalid url: %v", err)
    }
    if u.Scheme != "http" && u.Scheme != "https" {
        return fmt.Errorf("must be an http or https url")
    }
    if u.Host == "" {
        return fmt.Errorf("must include a host")
    }
    return nil
}
