package analysis

import (
	"pyfix/internal/config"
	"pyfix/internal/diag"
	"pyfix/internal/rewrite"
)

// Request is one revision of one file. Content is analyzed as-is; the
// file is never read here.
type Request struct {
	Path        string
	Content     []byte
	PackagePath string // dotted package containing the file, "" when unknown
	Config      *config.Config
}

// Result is the full outcome for one revision. Replacement is the
// consolidated rewrite implementing every safe fix, nil when the import
// region is already canonical. Fixed is the content after applying it.
type Result struct {
	Diagnostics []diag.Diagnostic
	Replacement *rewrite.Replacement
	Fixed       []byte
	Warnings    []string
}

// Clean reports that no rule produced a diagnostic.
func (r Result) Clean() bool {
	return len(r.Diagnostics) == 0
}

// Fixable reports that at least one diagnostic carries a fix.
func (r Result) Fixable() bool {
	for _, d := range r.Diagnostics {
		if d.HasFix() {
			return true
		}
	}
	return false
}
