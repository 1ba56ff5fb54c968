package model

// Patch describes a single literal text substitution guarded by a marker.
type Patch struct {
	TargetPath      string `yaml:"target_path"`
	SearchText      string `yaml:"search_text"`
	ReplacementText string `yaml:"replacement_text"`
	MarkerText      string `yaml:"marker_text"`
	Description     string `yaml:"description"`
}

// Outcome is the result category of applying a Patch.
type Outcome int

const (
	// Patched means the search text was found and replaced.
	Patched Outcome = iota
	// AlreadyPatched means the marker was present, so nothing was touched.
	AlreadyPatched
	// SnippetNotFound means neither the marker nor the search text was present.
	SnippetNotFound
)

func (o Outcome) String() string {
	switch o {
	case Patched:
		return "patched"
	case AlreadyPatched:
		return "already-patched"
	case SnippetNotFound:
		return "snippet-not-found"
	default:
		return "unknown"
	}
}

// Result holds the outcome of one run for display and assertions.
type Result struct {
	Path        string
	Outcome     Outcome
	Occurrences int
	DryRun      bool
	// Diff is a unified diff of the change, filled for dry runs.
	Diff string
	// Backup is the path the original contents were copied to, if any.
	Backup string
}

// Changed reports whether the file contents were (or, on a dry run, would be) modified.
func (r Result) Changed() bool {
	return r.Outcome == Patched
}
