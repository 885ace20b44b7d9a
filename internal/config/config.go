// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and RECRUIT_* environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. "0.0.0.0:8000".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the multipart body of POST /api/upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxDescriptionLength caps the upload description, in characters.
	MaxDescriptionLength int `koanf:"max_description_length"`

	// MaxHistoryRecords is the number of uploads kept in history and the archive.
	MaxHistoryRecords int `koanf:"max_history_records"`

	// DataDir holds the local archive (uploads/, reports/) and the history database.
	DataDir string `koanf:"data_dir"`

	// HistoryDB is the sqlite file path; relative paths resolve under DataDir.
	HistoryDB string `koanf:"history_db"`

	// RenderQueueSize bounds pending PDF render jobs.
	RenderQueueSize int `koanf:"render_queue_size"`

	// RenderWorkers sets the number of concurrent PDF renderers.
	RenderWorkers int `koanf:"render_workers"`

	// RenderTimeout bounds a single PDF render.
	RenderTimeout time.Duration `koanf:"render_timeout"`

	Report  ReportConfig  `koanf:"report"`
	Auth    AuthConfig    `koanf:"auth"`
	Storage StorageConfig `koanf:"storage"`
	Chrome  ChromeConfig  `koanf:"chrome"`
}

// ReportConfig controls report wording.
type ReportConfig struct {
	// ClassYear is the graduating class named in the title, e.g. 2025.
	ClassYear int `koanf:"class_year"`
	// Organization is named in the HTML footer.
	Organization string `koanf:"organization"`
	// TargetInstitutions is the count of domestic target schools in the intro.
	TargetInstitutions int `koanf:"target_institutions"`
}

// AuthConfig controls shared-password access.
type AuthConfig struct {
	Enabled bool `koanf:"enabled"`
	// Password takes precedence over PasswordFile.
	Password     string        `koanf:"password"`
	PasswordFile string        `koanf:"password_file"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
}

// StorageConfig selects the archive backend.
type StorageConfig struct {
	// Backend is "local" or "azure".
	Backend          string `koanf:"backend"`
	Container        string `koanf:"container"`
	ConnectionString string `koanf:"connection_string"`
}

// ChromeConfig locates the browser used for PDF rendering.
type ChromeConfig struct {
	// Bin is an explicit browser binary; empty lets the launcher find or download one.
	Bin string `koanf:"bin"`
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string `koanf:"control_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 "0.0.0.0:8000",
		MaxUploadBytes:       50 << 20,
		MaxDescriptionLength: 500,
		MaxHistoryRecords:    10,
		DataDir:              "data",
		HistoryDB:            "history.db",
		RenderQueueSize:      16,
		RenderWorkers:        max(1, runtime.NumCPU()/2),
		RenderTimeout:        60 * time.Second,
		Report: ReportConfig{
			ClassYear:          2025,
			Organization:       "人力资源部",
			TargetInstitutions: 98,
		},
		Auth: AuthConfig{
			Enabled:      false,
			PasswordFile: "config/password.txt",
			TokenTTL:     12 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:   "local",
			Container: "recruitstat",
		},
	}
}
