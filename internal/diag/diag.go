package diag

import "sort"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Edit replaces an inclusive range of physical lines with NewText.
// Line numbers are 1-based. NewText carries its own trailing newline;
// an empty NewText deletes the range.
type Edit struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	NewText   string `json:"newText"`
}

// Fix is an ordered list of non-overlapping edits confined to the import
// region of the analyzed file.
type Fix struct {
	Description string `json:"description,omitempty"`
	Edits       []Edit `json:"edits"`
}

// Diagnostic is a read-only fact about one revision of one file. It does
// not outlive a single analysis pass.
type Diagnostic struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	EndLine  int      `json:"endLine,omitempty"`
	Fix      *Fix     `json:"fix,omitempty"`
}

func (d Diagnostic) HasFix() bool {
	return d.Fix != nil && len(d.Fix.Edits) > 0
}

// Sort orders diagnostics by line, then rule, for stable output.
func Sort(diagnostics []Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].Line != diagnostics[j].Line {
			return diagnostics[i].Line < diagnostics[j].Line
		}
		return diagnostics[i].Rule < diagnostics[j].Rule
	})
}
