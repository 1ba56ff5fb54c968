package patcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sokinpui/cwlpatch/internal/fs"
	"github.com/sokinpui/cwlpatch/model"
)

// ErrConcurrentModification is returned when the target changed on disk
// between reading it and writing the patched contents.
var ErrConcurrentModification = errors.New("file was modified while patching")

var readFile = os.ReadFile

// Recorder keeps a copy of the original contents around a write. Backup runs
// before the target is touched; Commit runs once the patched contents are on
// disk; Discard drops a backup whose write failed.
type Recorder interface {
	Backup(path string, original []byte) (string, error)
	Commit(ctx context.Context, path, backup string, patched []byte) error
	Discard(backup string)
}

// Options control how ApplyFile touches the filesystem.
type Options struct {
	// DryRun computes the result and a diff without writing.
	DryRun bool
	// LockTimeout bounds the wait for the per-file lock. Zero tries once.
	LockTimeout time.Duration
	// Recorder, if set, backs up the original before the write.
	Recorder Recorder
	// DisplayPath names the file in diff headers. Defaults to the target path.
	DisplayPath string
}

// Transform applies p to content in memory. The marker check comes first:
// if the marker occurs anywhere, content is returned untouched.
func Transform(content string, p model.Patch) (string, model.Result) {
	if strings.Contains(content, p.MarkerText) {
		return content, model.Result{Outcome: model.AlreadyPatched}
	}

	n := strings.Count(content, p.SearchText)
	if n == 0 {
		return content, model.Result{Outcome: model.SnippetNotFound}
	}

	return strings.ReplaceAll(content, p.SearchText, p.ReplacementText), model.Result{
		Outcome:     model.Patched,
		Occurrences: n,
	}
}

// ApplyFile applies p to the file at path. The file is only rewritten when
// the outcome is Patched, and the rewrite is atomic.
func ApplyFile(ctx context.Context, path string, p model.Patch, opts Options) (model.Result, error) {
	var result model.Result
	err := fs.WithLock(ctx, path, opts.LockTimeout, func() error {
		var err error
		result, err = applyLocked(ctx, path, p, opts)
		return err
	})
	result.Path = path
	return result, err
}

func applyLocked(ctx context.Context, path string, p model.Patch, opts Options) (model.Result, error) {
	original, err := readFile(path)
	if err != nil {
		return model.Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	patched, result := Transform(string(original), p)
	result.DryRun = opts.DryRun
	if result.Outcome != model.Patched {
		return result, nil
	}

	if opts.DryRun {
		name := opts.DisplayPath
		if name == "" {
			name = path
		}
		diff, err := UnifiedDiff(name, string(original), patched)
		if err != nil {
			return result, err
		}
		result.Diff = diff
		return result, nil
	}

	// The lock only excludes other runs of this tool; editors and other
	// tooling can still write, so compare against what was read.
	current, err := readFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to re-read %s: %w", path, err)
	}
	if !bytes.Equal(current, original) {
		return result, fmt.Errorf("%w: %s", ErrConcurrentModification, path)
	}

	if opts.Recorder == nil {
		if err := fs.WriteFileAtomic(path, []byte(patched)); err != nil {
			return result, err
		}
		return result, nil
	}

	backup, err := opts.Recorder.Backup(path, original)
	if err != nil {
		return result, fmt.Errorf("failed to back up %s, file left unchanged: %w", path, err)
	}
	if err := fs.WriteFileAtomic(path, []byte(patched)); err != nil {
		opts.Recorder.Discard(backup)
		return result, err
	}
	result.Backup = backup
	if err := opts.Recorder.Commit(ctx, path, backup, []byte(patched)); err != nil {
		return result, fmt.Errorf("patched %s but failed to journal backup %s: %w", path, backup, err)
	}
	return result, nil
}
