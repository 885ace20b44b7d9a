package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a value that fails Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file, env or unmarshal failure while loading.
	ErrLoadConfig = errors.New("load config failed")
	// ErrNoPassword means auth is enabled but no shared password resolves.
	ErrNoPassword = fmt.Errorf("%w: no shared password", ErrInvalidConfig)
)
