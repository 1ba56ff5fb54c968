package cwlpatch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/cwlpatch/cwlpatch"
	"github.com/sokinpui/cwlpatch/internal/ui"
	"github.com/sokinpui/cwlpatch/model"
)

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	ui.DisableColor()
	buf := &bytes.Buffer{}
	old := ui.Out
	ui.Out = buf
	t.Cleanup(func() { ui.Out = old })
	return buf
}

func TestApplyCustomPatch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tool.cwl")
	require.NoError(t, os.WriteFile(target, []byte("in:\n  a: a\n  c: c\n"), 0644))

	cfg := cwlpatch.Config{
		TargetPath:      "tool.cwl",
		SearchText:      "  a: a\n  c: c",
		ReplacementText: "  a: a\n  b: b\n  c: c",
		MarkerText:      "b: b",
		Dir:             dir,
	}

	result, err := cwlpatch.Apply(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.Patched, result.Outcome)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "in:\n  a: a\n  b: b\n  c: c\n", string(data))

	result, err = cwlpatch.Apply(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.AlreadyPatched, result.Outcome)
}

func TestApplyIsQuietByDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool.cwl"), []byte("a\n"), 0644))
	out := captureUI(t)

	cfg := cwlpatch.Config{
		TargetPath:      "tool.cwl",
		SearchText:      "a",
		ReplacementText: "ab",
		MarkerText:      "ab",
		Dir:             dir,
		Backup:          true,
	}
	result, err := cwlpatch.Apply(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.Patched, result.Outcome)

	_, err = cwlpatch.Revert(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	cfg.Verbose = true
	_, err = cwlpatch.Apply(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Applied patch to tool.cwl")
}

func TestApplyAndRevert(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "workflows", "atac-lrt-step-1-test.cwl")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	original := "    in:\n      peak_file_names: peak_file_names\n      metadata_file: metadata_file\n"
	require.NoError(t, os.WriteFile(target, []byte(original), 0644))

	result, err := cwlpatch.Apply(context.Background(), cwlpatch.Config{Dir: dir, Backup: true})
	require.NoError(t, err)
	require.Equal(t, model.Patched, result.Outcome)

	restored, err := cwlpatch.Revert(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, target, restored)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestApplyInvalidConfig(t *testing.T) {
	_, err := cwlpatch.Apply(context.Background(), cwlpatch.Config{Dir: t.TempDir(), MarkerText: "zzz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize cwlpatch")
}
