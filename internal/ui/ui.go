package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/sokinpui/cwlpatch/model"
)

// Out is where all status output goes. Stdout is left for diffs.
var Out io.Writer = os.Stderr

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	AddedColor   = color.New(color.FgGreen)
	RemovedColor = color.New(color.FgRed)
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// DisableColor turns off ANSI colors for every helper.
func DisableColor() {
	color.NoColor = true
}

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Out, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Out, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Out, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Out, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Out, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Out, "  "+format+"\n", a...)
}

// PrintResult reports the outcome of one run. path is the display path.
func PrintResult(r model.Result, p model.Patch, path string) {
	switch r.Outcome {
	case model.Patched:
		if r.DryRun {
			Info("🔍 Would apply patch to %s (%d occurrence(s))", path, r.Occurrences)
			return
		}
		Success("✅ Applied patch to %s (%d occurrence(s))", path, r.Occurrences)
		if p.Description != "" {
			Info("🔧 %s", p.Description)
		}
		if r.Backup != "" {
			Path("- original saved to %s", r.Backup)
		}
	case model.AlreadyPatched:
		Error("❌ Marker %q already present in %s; nothing to do", p.MarkerText, path)
	case model.SnippetNotFound:
		Warning("⚠️ Search text not found in %s; file left unchanged", path)
	}
}

// RenderSummary returns a short styled summary block for a result.
func RenderSummary(r model.Result, path string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("--- Patch Summary ---"))
	b.WriteString("\n")

	var status string
	switch r.Outcome {
	case model.Patched:
		status = successStyle.Render(r.Outcome.String())
	default:
		status = warningStyle.Render(r.Outcome.String())
	}
	b.WriteString(fmt.Sprintf("%s %s\n", faintStyle.Render("file:"), path))
	b.WriteString(fmt.Sprintf("%s %s\n", faintStyle.Render("outcome:"), status))
	if r.Outcome == model.Patched {
		b.WriteString(fmt.Sprintf("%s %d\n", faintStyle.Render("occurrences:"), r.Occurrences))
	}
	if r.DryRun {
		b.WriteString(faintStyle.Render("(dry run, nothing written)"))
		b.WriteString("\n")
	}
	return b.String()
}

// PrintDiff writes a unified diff to w, coloring added and removed lines.
func PrintDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			HeaderColor.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			AddedColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			RemovedColor.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
