package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PathResolver turns relative target paths into absolute ones.
type PathResolver struct {
	baseDir string
}

// NewPathResolver creates a resolver rooted at baseDir, or at the current
// working directory when baseDir is empty.
func NewPathResolver(baseDir string) (*PathResolver, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		return &PathResolver{baseDir: wd}, nil
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid directory '%s': %w", baseDir, err)
	}
	return &PathResolver{baseDir: abs}, nil
}

// BaseDir returns the absolute directory paths are resolved against.
func (r *PathResolver) BaseDir() string {
	return r.baseDir
}

// Resolve returns path unchanged if it is absolute, otherwise joined to the base dir.
func (r *PathResolver) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.baseDir, path)
}

// Rel returns path relative to the base dir for display, falling back to path itself.
func (r *PathResolver) Rel(path string) string {
	rel, err := filepath.Rel(r.baseDir, path)
	if err != nil {
		return path
	}
	return rel
}

// WriteFileAtomic replaces path with data. The new contents are written to a
// temporary file in the same directory and renamed over path, so readers see
// either the old or the new file. The existing file mode is kept.
func WriteFileAtomic(path string, data []byte) error {
	perm := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	// No-op once the rename has succeeded.
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// GetFileSHA256 returns the hex SHA-256 digest of a file's contents.
func GetFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
