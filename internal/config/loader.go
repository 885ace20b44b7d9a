package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "RECRUIT_"
	envConfigFile = "RECRUIT_CONFIG"

	maxUploadCeiling  = 1 << 30
	maxHistoryCeiling = 1000
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RECRUIT_CONFIG is set
//  3. env (prefix RECRUIT_; a double underscore nests, e.g. RECRUIT_AUTH__PASSWORD)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RECRUIT_RENDER_WORKERS -> render_workers, RECRUIT_AUTH__JWT_SECRET -> auth.jwt_secret
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks bounds that would otherwise surface as runtime failures.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("%w: addr %q: %w", ErrInvalidConfig, c.Addr, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: port %q out of range 1-65535", ErrInvalidConfig, port)
	}
	if c.MaxUploadBytes <= 0 || c.MaxUploadBytes > maxUploadCeiling {
		return fmt.Errorf("%w: max_upload_bytes must be in (0, %d]", ErrInvalidConfig, maxUploadCeiling)
	}
	if c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("%w: max_description_length must be positive", ErrInvalidConfig)
	}
	if c.MaxHistoryRecords <= 0 || c.MaxHistoryRecords > maxHistoryCeiling {
		return fmt.Errorf("%w: max_history_records must be in (0, %d]", ErrInvalidConfig, maxHistoryCeiling)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.RenderQueueSize <= 0 || c.RenderWorkers <= 0 {
		return fmt.Errorf("%w: render_queue_size and render_workers must be positive", ErrInvalidConfig)
	}
	if c.Report.ClassYear < 2000 || c.Report.ClassYear > 2100 {
		return fmt.Errorf("%w: report.class_year %d out of range", ErrInvalidConfig, c.Report.ClassYear)
	}
	if c.Report.TargetInstitutions <= 0 {
		return fmt.Errorf("%w: report.target_institutions must be positive", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case "local":
	case "azure":
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("%w: storage.connection_string required for azure backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Auth.Enabled && c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// ResolvePassword returns the shared login password: the inline value, else
// the trimmed first line of PasswordFile.
func (a AuthConfig) ResolvePassword() (string, error) {
	if a.Password != "" {
		return a.Password, nil
	}
	if a.PasswordFile == "" {
		return "", fmt.Errorf("%w: set auth.password or auth.password_file", ErrNoPassword)
	}
	raw, err := os.ReadFile(a.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("%w: read password file: %w", ErrLoadConfig, err)
	}
	line, _, _ := strings.Cut(string(raw), "\n")
	pw := strings.TrimSpace(line)
	if pw == "" {
		return "", fmt.Errorf("%w: password file %s is empty", ErrNoPassword, a.PasswordFile)
	}
	return pw, nil
}
