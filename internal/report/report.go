// Package report aggregates per-file analysis outcomes and renders them
// as text, JSON, SARIF, or a patch.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pyfix/internal/diag"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
	FormatDiff  Format = "diff"
)

const SchemaVersion = "0.1.0"

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatSARIF):
		return FormatSARIF, nil
	case string(FormatDiff):
		return FormatDiff, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// FileReport is the outcome for one file. Original and FixedText feed the
// diff renderer only and never serialize.
type FileReport struct {
	Path        string            `json:"path"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Rewritten   bool              `json:"rewritten,omitempty"` // a safe rewrite exists
	Fixed       bool              `json:"fixed,omitempty"`     // the rewrite was written back
	Warnings    []string          `json:"warnings,omitempty"`
	Original    string            `json:"-"`
	FixedText   string            `json:"-"`
}

func (f FileReport) findings() int {
	return len(f.Diagnostics)
}

func (f FileReport) fixable() int {
	count := 0
	for _, d := range f.Diagnostics {
		if d.HasFix() {
			count++
		}
	}
	return count
}

type Summary struct {
	FileCount         int `json:"fileCount"`
	FilesWithFindings int `json:"filesWithFindings"`
	DiagnosticCount   int `json:"diagnosticCount"`
	FixableCount      int `json:"fixableCount"`
	FixedCount        int `json:"fixedCount"`
}

type Report struct {
	SchemaVersion string       `json:"schemaVersion"`
	GeneratedAt   time.Time    `json:"generatedAt"`
	RepoPath      string       `json:"repoPath"`
	Files         []FileReport `json:"files"`
	Summary       Summary      `json:"summary"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// Build assembles the report: files sorted by path, summary derived.
func Build(repoPath string, files []FileReport, warnings []string) Report {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	summary := Summary{FileCount: len(files)}
	for _, file := range files {
		if file.findings() > 0 {
			summary.FilesWithFindings++
		}
		summary.DiagnosticCount += file.findings()
		summary.FixableCount += file.fixable()
		if file.Fixed {
			summary.FixedCount++
		}
	}

	return Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		RepoPath:      repoPath,
		Files:         files,
		Summary:       summary,
		Warnings:      warnings,
	}
}
