package app

import (
    "os"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    if cfg.BaseURL == "" {
        cfg.BaseURL = os.Getenv("RESUMEFLOW_BASE_URL")
    }
    if cfg.Language == "" {
        // Fall back to the POSIX locale, e.g. zh_CN.UTF-8
        v := os.Getenv("RESUMEFLOW_LANG")
        if v == "" { v = localeFromEnv() }
        cfg.Language = v
    }
    if cfg.OutputDir == "" {
        cfg.OutputDir = os.Getenv("RESUMEFLOW_OUTPUT_DIR")
    }
    if cfg.RequestTimeout == 0 {
        if s := os.Getenv("RESUMEFLOW_TIMEOUT"); s != "" {
            if d, err := time.ParseDuration(s); err == nil {
                cfg.RequestTimeout = d
            }
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.UploadOnly, "RESUMEFLOW_UPLOAD_ONLY")
    setBool(&cfg.Verbose, "RESUMEFLOW_VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("RESUMEFLOW_BASE_URL"); v != "" { cfg.BaseURL = v }
    if v := os.Getenv("RESUMEFLOW_LANG"); v != "" { cfg.Language = v }
    if v := os.Getenv("RESUMEFLOW_OUTPUT_DIR"); v != "" { cfg.OutputDir = v }
    if s := os.Getenv("RESUMEFLOW_TIMEOUT"); s != "" {
        if d, err := time.ParseDuration(s); err == nil {
            cfg.RequestTimeout = d
        }
    }

    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.UploadOnly, "RESUMEFLOW_UPLOAD_ONLY")
    setBool(&cfg.Verbose, "RESUMEFLOW_VERBOSE")
}

// localeFromEnv turns LC_ALL/LANG values like "zh_CN.UTF-8" into "zh-CN".
func localeFromEnv() string {
    for _, k := range []string{"LC_ALL", "LANG"} {
        v := strings.TrimSpace(os.Getenv(k))
        if v == "" || v == "C" || v == "POSIX" { continue }
        if i := strings.IndexAny(v, ".@"); i >= 0 { v = v[:i] }
        return strings.ReplaceAll(v, "_", "-")
    }
    return ""
}
