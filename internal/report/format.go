package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"pyfix/internal/diag"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

func (f Formatter) Format(rep Report, format Format) (string, error) {
	switch format {
	case FormatText:
		return formatText(rep), nil
	case FormatJSON:
		payload, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload) + "\n", nil
	case FormatSARIF:
		return formatSARIF(rep)
	case FormatDiff:
		return formatDiff(rep), nil
	default:
		return "", ErrUnknownFormat
	}
}

var severityColors = map[diag.Severity]*color.Color{
	diag.SeverityError:   color.New(color.FgRed),
	diag.SeverityWarning: color.New(color.FgYellow),
	diag.SeverityNote:    color.New(color.FgCyan),
}

func formatText(rep Report) string {
	var buffer bytes.Buffer
	for _, file := range rep.Files {
		for _, d := range file.Diagnostics {
			painter, ok := severityColors[d.Severity]
			if !ok {
				painter = color.New()
			}
			_, _ = fmt.Fprintf(&buffer, "%s:%d: %s %s: %s",
				file.Path, d.Line, painter.Sprint(string(d.Severity)), d.Rule, d.Message)
			if d.HasFix() {
				buffer.WriteString(" (fixable)")
			}
			buffer.WriteByte('\n')
		}
		for _, warning := range file.Warnings {
			_, _ = fmt.Fprintf(&buffer, "%s: warning: %s\n", file.Path, warning)
		}
	}
	appendRunWarnings(&buffer, rep.Warnings)
	appendSummary(&buffer, rep.Summary)
	return buffer.String()
}

func appendRunWarnings(buffer *bytes.Buffer, warnings []string) {
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(buffer, "warning: %s\n", warning)
	}
}

func appendSummary(buffer *bytes.Buffer, summary Summary) {
	if summary.DiagnosticCount == 0 {
		_, _ = fmt.Fprintf(buffer, "checked %d files: no findings\n", summary.FileCount)
		return
	}
	_, _ = fmt.Fprintf(buffer, "checked %d files: %d findings in %d files (%d fixable)\n",
		summary.FileCount, summary.DiagnosticCount, summary.FilesWithFindings, summary.FixableCount)
	if summary.FixedCount > 0 {
		_, _ = fmt.Fprintf(buffer, "rewrote %d files\n", summary.FixedCount)
	}
}
