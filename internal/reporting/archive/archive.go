package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dstech-dashboard/internal/observability/metrics"
)

// Backend names reported in metrics.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// Archive persists rendered reports.
type Archive interface {
	// Put stores body under key and returns its location.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Backend() string
}

// Key builds the archive key of a daily report, grouped by year and month.
func Key(day time.Time, name string) string {
	return path.Join(day.Format("2006"), day.Format("01"), name)
}

// FileArchive stores reports below a root directory.
type FileArchive struct {
	root string
}

// NewFileArchive constructs a filesystem archive, creating root.
func NewFileArchive(root string) (*FileArchive, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("archive: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create root: %w", err)
	}
	return &FileArchive{root: root}, nil
}

func (a *FileArchive) Backend() string { return BackendFilesystem }

// Put writes body atomically through a temporary file.
func (a *FileArchive) Put(_ context.Context, key, _ string, body []byte) (location string, err error) {
	defer func() { observe(BackendFilesystem, err) }()
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("archive: invalid key %q", key)
	}
	target := filepath.Join(a.root, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return target, nil
}

func observe(backend string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncReportArchive(backend, result)
}
