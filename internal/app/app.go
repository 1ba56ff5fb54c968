package app

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sokinpui/cwlpatch/cli"
	"github.com/sokinpui/cwlpatch/internal/config"
	"github.com/sokinpui/cwlpatch/internal/fs"
	"github.com/sokinpui/cwlpatch/internal/patcher"
	"github.com/sokinpui/cwlpatch/internal/state"
	"github.com/sokinpui/cwlpatch/internal/ui"
	"github.com/sokinpui/cwlpatch/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg          *cli.Config
	patch        model.Patch
	pathResolver *fs.PathResolver
	stateManager *state.Manager
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New resolves the patch definition from defaults, config file and flags.
func New(cfg *cli.Config) (*App, error) {
	patch := config.Default()
	if cfg.ConfigPath != "" {
		loaded, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		patch = loaded
	}
	patch = config.Merge(patch, model.Patch{
		TargetPath:      cfg.File,
		SearchText:      cfg.Search,
		ReplacementText: cfg.Replace,
		MarkerText:      cfg.Marker,
	})
	if err := config.Validate(patch); err != nil {
		return nil, err
	}

	pathResolver, err := fs.NewPathResolver(cfg.Dir)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:          cfg,
		patch:        patch,
		pathResolver: pathResolver,
	}
	if cfg.Backup || cfg.Revert {
		stateManager, err := state.New(pathResolver.BaseDir())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize state manager: %w", err)
		}
		stateManager.LockTimeout = cfg.LockTimeout
		a.stateManager = stateManager
	}
	return a, nil
}

// Patch returns the effective patch definition.
func (a *App) Patch() model.Patch {
	return a.patch
}

// Run applies the patch once and reports the outcome.
func (a *App) Run(ctx context.Context) (result model.Result, err error) {
	defer recoverPanic(&err)

	target := a.pathResolver.Resolve(a.patch.TargetPath)
	display := a.pathResolver.Rel(target)

	opts := patcher.Options{
		DryRun:      a.cfg.DryRun,
		LockTimeout: a.cfg.LockTimeout,
		DisplayPath: display,
	}
	if a.stateManager != nil && !a.cfg.DryRun {
		opts.Recorder = a.stateManager
	}

	result, err = patcher.ApplyFile(ctx, target, a.patch, opts)
	if err != nil {
		return result, err
	}
	if result.Backup != "" {
		result.Backup = a.pathResolver.Rel(result.Backup)
	}

	if a.cfg.Quiet {
		return result, nil
	}
	ui.PrintResult(result, a.patch, display)
	if result.DryRun {
		fmt.Fprint(ui.Out, ui.RenderSummary(result, display))
	}
	return result, nil
}

// Revert restores the file changed by the most recent --backup run.
func (a *App) Revert(ctx context.Context) (entry state.Entry, err error) {
	defer recoverPanic(&err)

	if a.stateManager == nil {
		return state.Entry{}, fmt.Errorf("revert requires the state manager")
	}

	if !a.cfg.Quiet {
		ui.Header("--- Reverting last patch ---")
	}
	entry, err = a.stateManager.Revert(ctx)
	if err != nil {
		return entry, err
	}
	if a.cfg.Quiet {
		return entry, nil
	}
	ui.Success("Restored %s from %s", a.pathResolver.Rel(entry.Path), a.pathResolver.Rel(entry.BackupPath))
	return entry, nil
}

// recoverPanic converts a panic into a DetailedError carrying the stack.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}
