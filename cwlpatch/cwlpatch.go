package cwlpatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sokinpui/cwlpatch/cli"
	"github.com/sokinpui/cwlpatch/internal/app"
	"github.com/sokinpui/cwlpatch/internal/fs"
	"github.com/sokinpui/cwlpatch/model"
)

// Config for using cwlpatch as a library. Empty fields fall back to the
// built-in ATAC workflow patch.
type Config struct {
	// File to patch, relative to Dir unless absolute.
	TargetPath      string
	SearchText      string
	ReplacementText string
	MarkerText      string
	// Dir relative paths are resolved against. Defaults to the working directory.
	Dir string
	// Compute the outcome and diff without writing.
	DryRun bool
	// Keep a copy of the original under Dir/.cwlpatch for Revert.
	Backup bool
	// How long to wait for another run on the same file. Zero waits the
	// default 10s; a negative value tries once without waiting.
	LockTimeout time.Duration
	// Print status lines to stderr the way the command does. Off by default.
	Verbose bool
}

func lockTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return fs.DefaultLockTimeout
	case d < 0:
		return 0
	}
	return d
}

// Apply applies the configured patch once and returns its outcome.
func Apply(ctx context.Context, config Config) (model.Result, error) {
	a, err := app.New(&cli.Config{
		File:        config.TargetPath,
		Search:      config.SearchText,
		Replace:     config.ReplacementText,
		Marker:      config.MarkerText,
		Dir:         config.Dir,
		DryRun:      config.DryRun,
		Backup:      config.Backup,
		Quiet:       !config.Verbose,
		LockTimeout: lockTimeout(config.LockTimeout),
	})
	if err != nil {
		return model.Result{}, fmt.Errorf("failed to initialize cwlpatch: %w", err)
	}
	return a.Run(ctx)
}

// Revert restores the file changed by the most recent Apply with Backup set.
// It returns the restored path.
func Revert(ctx context.Context, dir string) (string, error) {
	a, err := app.New(&cli.Config{Dir: dir, Revert: true, Quiet: true, LockTimeout: fs.DefaultLockTimeout})
	if err != nil {
		return "", fmt.Errorf("failed to initialize cwlpatch: %w", err)
	}
	entry, err := a.Revert(ctx)
	if err != nil {
		return "", err
	}
	return entry.Path, nil
}
