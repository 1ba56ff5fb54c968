package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sokinpui/cwlpatch/cli"
	"github.com/sokinpui/cwlpatch/internal/app"
	"github.com/sokinpui/cwlpatch/internal/ui"
	"github.com/sokinpui/cwlpatch/model"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		// pflag already prints its own parse errors.
		if errors.Is(err, cli.ErrInvalidFlags) {
			ui.Error("%v", err)
		}
		os.Exit(1)
	}
	if cfg.NoColor {
		ui.DisableColor()
	}

	a, err := app.New(cfg)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	if cfg.Revert {
		if _, err := a.Revert(ctx); err != nil {
			fail(err)
		}
		return
	}

	result, err := a.Run(ctx)
	if err != nil {
		fail(err)
	}
	if result.DryRun && result.Diff != "" {
		ui.PrintDiff(os.Stdout, result.Diff)
	}
	if code := exitCode(result, nil, cfg.Strict); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps a run to the process status: 1 on error, 2 when --strict and
// the search text was missing, 0 otherwise.
func exitCode(result model.Result, err error, strict bool) int {
	switch {
	case err != nil:
		return 1
	case strict && result.Outcome == model.SnippetNotFound:
		return 2
	}
	return 0
}

func fail(err error) {
	ui.Error("Error: %v", err)
	var detailed *app.DetailedError
	if errors.As(err, &detailed) {
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
	}
	os.Exit(exitCode(model.Result{}, err, false))
}
