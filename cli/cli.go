package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/sokinpui/cwlpatch/internal/fs"
)

// ErrInvalidFlags wraps flag combinations that parse but cannot be used together.
var ErrInvalidFlags = errors.New("invalid flags")

// Config holds all the command-line flag values.
type Config struct {
	File        string
	Search      string
	Replace     string
	Marker      string
	ConfigPath  string
	Dir         string
	DryRun      bool
	Strict      bool
	Backup      bool
	Revert      bool
	NoColor     bool
	Quiet       bool
	LockTimeout time.Duration
}

// ParseFlags parses the process arguments.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse defines and parses command-line flags using pflag.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("cwlpatch", pflag.ContinueOnError)

	// Patch definition; empty values fall back to the config file, then to the built-in patch.
	flags.StringVarP(&cfg.File, "file", "f", "", "Workflow file to patch (default: workflows/atac-lrt-step-1-test.cwl).")
	flags.StringVar(&cfg.Search, "search", "", "Literal text to replace.")
	flags.StringVar(&cfg.Replace, "replace", "", "Literal replacement text.")
	flags.StringVar(&cfg.Marker, "marker", "", "Text whose presence means the patch is already applied.")
	flags.StringVarP(&cfg.ConfigPath, "config", "c", "", "YAML file with target_path, search_text, replacement_text, marker_text.")
	flags.StringVarP(&cfg.Dir, "dir", "C", "", "Resolve relative paths against this directory (default: current directory).")

	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Show the diff without writing the file.")
	flags.BoolVar(&cfg.Strict, "strict", false, "Exit with status 2 when the search text is not found.")
	flags.BoolVarP(&cfg.Backup, "backup", "b", false, "Save the original file under .cwlpatch/ so it can be reverted.")
	flags.BoolVarP(&cfg.Revert, "revert", "r", false, "Restore the file changed by the last --backup run.")
	flags.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Only print errors and the --dry-run diff.")
	flags.DurationVar(&cfg.LockTimeout, "lock-timeout", fs.DefaultLockTimeout, "How long to wait for another run on the same file; 0 tries once without waiting.")

	flags.Usage = func() {
		fmt.Println("Usage: cwlpatch [flags]")
		fmt.Println("\nInsert the bam_files input connection into the ATAC workflow, once.")
		fmt.Println("\nExample: cwlpatch -n -f workflows/atac-lrt-step-1-test.cwl")
		fmt.Println("\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments: %v", ErrInvalidFlags, flags.Args())
	}

	if cfg.Revert && cfg.DryRun {
		return nil, fmt.Errorf("%w: --revert and --dry-run are mutually exclusive", ErrInvalidFlags)
	}
	if cfg.LockTimeout < 0 {
		return nil, fmt.Errorf("%w: --lock-timeout must not be negative", ErrInvalidFlags)
	}

	return cfg, nil
}
