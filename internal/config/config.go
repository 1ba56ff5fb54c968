package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sokinpui/cwlpatch/model"
)

// Built-in patch: connect the bam_files input of the ATAC LRT test workflow.
const (
	DefaultTargetPath = "workflows/atac-lrt-step-1-test.cwl"

	DefaultSearchText = "      peak_file_names: peak_file_names\n" +
		"      metadata_file: metadata_file"

	DefaultReplacementText = "      peak_file_names: peak_file_names\n" +
		"      bam_files: bam_files\n" +
		"      metadata_file: metadata_file"

	DefaultMarkerText = "bam_files: bam_files"

	DefaultDescription = "Added BAM files parameter connection to ATAC workflow"
)

// Default returns the built-in patch definition.
func Default() model.Patch {
	return model.Patch{
		TargetPath:      DefaultTargetPath,
		SearchText:      DefaultSearchText,
		ReplacementText: DefaultReplacementText,
		MarkerText:      DefaultMarkerText,
		Description:     DefaultDescription,
	}
}

// Load reads a YAML patch definition. Keys missing from the file keep
// their built-in defaults.
func Load(path string) (model.Patch, error) {
	patch := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Patch{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fromFile model.Patch
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return model.Patch{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return Merge(patch, fromFile), nil
}

// Merge overlays the non-empty fields of override onto base.
func Merge(base, override model.Patch) model.Patch {
	if override.TargetPath != "" {
		base.TargetPath = override.TargetPath
	}
	if override.SearchText != "" {
		base.SearchText = override.SearchText
	}
	if override.ReplacementText != "" {
		base.ReplacementText = override.ReplacementText
	}
	if override.MarkerText != "" {
		base.MarkerText = override.MarkerText
	}
	if override.Description != "" {
		base.Description = override.Description
	}
	return base
}

// Validate checks that a patch can be applied idempotently.
func Validate(p model.Patch) error {
	var errs []error
	if p.TargetPath == "" {
		errs = append(errs, errors.New("target_path must not be empty"))
	}
	if p.SearchText == "" {
		errs = append(errs, errors.New("search_text must not be empty"))
	}
	if p.MarkerText == "" {
		errs = append(errs, errors.New("marker_text must not be empty"))
	}
	if p.MarkerText != "" && !strings.Contains(p.ReplacementText, p.MarkerText) {
		errs = append(errs, errors.New("replacement_text must contain marker_text"))
	}
	if p.MarkerText != "" && strings.Contains(p.SearchText, p.MarkerText) {
		errs = append(errs, errors.New("search_text must not contain marker_text"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid patch: %w", errors.Join(errs...))
	}
	return nil
}
