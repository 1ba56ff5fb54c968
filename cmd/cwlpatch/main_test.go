package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sokinpui/cwlpatch/model"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		outcome model.Outcome
		err     error
		strict  bool
		want    int
	}{
		{name: "patched", outcome: model.Patched, want: 0},
		{name: "already patched", outcome: model.AlreadyPatched, want: 0},
		{name: "already patched strict", outcome: model.AlreadyPatched, strict: true, want: 0},
		{name: "snippet not found", outcome: model.SnippetNotFound, want: 0},
		{name: "snippet not found strict", outcome: model.SnippetNotFound, strict: true, want: 2},
		{name: "error", err: errors.New("boom"), want: 1},
		{name: "error strict", outcome: model.SnippetNotFound, err: errors.New("boom"), strict: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCode(model.Result{Outcome: tt.outcome}, tt.err, tt.strict)
			assert.Equal(t, tt.want, got)
		})
	}
}
