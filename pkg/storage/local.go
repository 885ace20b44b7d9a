package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/recruitstat/pkg/logger"
)

const (
	dirPermission  = 0o750
	filePermission = 0o640
)

type local struct {
	root   string
	logger logger.Logger
}

// NewLocal stores objects as files under root; keys map to relative paths.
func NewLocal(root string, log logger.Logger) (System, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage: root directory required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &local{root: abs, logger: log.Named("storage")}, nil
}

func (l *local) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *local) Init(ctx context.Context) error {
	if err := os.MkdirAll(l.root, dirPermission); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	l.logger.Info(ctx, "storage directory ready", logger.String("root", l.root))
	return nil
}

// Upload writes to a temp file and renames it into place so readers never
// observe a partial object.
func (l *local) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPermission); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Chmod(filePermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (l *local) Download(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p) //nolint:gosec // path is validated and rooted
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (l *local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (l *local) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}
