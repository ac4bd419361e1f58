package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"pyfix/internal/diag"
)

func sampleReport() Report {
	files := []FileReport{
		{
			Path: "b.py",
			Diagnostics: []diag.Diagnostic{
				{
					Rule:     "syntax",
					Severity: diag.SeverityError,
					Message:  "unbalanced parentheses in import statement",
					Line:     1,
				},
				{
					Rule:     "unused-import",
					Severity: diag.SeverityWarning,
					Message:  "imported but never used: sys",
					Line:     2,
					Fix: &diag.Fix{
						Description: "remove unused import",
						Edits:       []diag.Edit{{StartLine: 2, EndLine: 2}},
					},
				},
			},
			Rewritten: true,
			Original:  "import requests\nimport sys\n",
			FixedText: "import requests\n",
		},
		{Path: "a.py"},
	}
	return Build("", files, []string{"configuration fell back to defaults"})
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatText,
		"text":  FormatText,
		"JSON":  FormatJSON,
		"sarif": FormatSARIF,
		"diff":  FormatDiff,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestBuildSortsAndSummarizes(t *testing.T) {
	rep := sampleReport()
	if rep.Files[0].Path != "a.py" {
		t.Fatalf("files not sorted by path: %+v", rep.Files)
	}
	want := Summary{FileCount: 2, FilesWithFindings: 1, DiagnosticCount: 2, FixableCount: 1}
	if rep.Summary != want {
		t.Fatalf("summary = %+v, want %+v", rep.Summary, want)
	}
}

func TestFormatText(t *testing.T) {
	color.NoColor = true
	out, err := NewFormatter().Format(sampleReport(), FormatText)
	if err != nil {
		t.Fatalf("format text: %v", err)
	}
	for _, want := range []string{
		"b.py:1: error syntax: unbalanced parentheses in import statement",
		"b.py:2: warning unused-import: imported but never used: sys (fixable)",
		"warning: configuration fell back to defaults",
		"checked 2 files: 2 findings in 1 files (1 fixable)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSONOmitsDiffPayload(t *testing.T) {
	out, err := NewFormatter().Format(sampleReport(), FormatJSON)
	if err != nil {
		t.Fatalf("format json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["schemaVersion"] != SchemaVersion {
		t.Fatalf("schemaVersion = %v", decoded["schemaVersion"])
	}
	if strings.Contains(out, "import requests") {
		t.Fatalf("file content leaked into JSON output:\n%s", out)
	}
}

func TestFormatDiff(t *testing.T) {
	out, err := NewFormatter().Format(sampleReport(), FormatDiff)
	if err != nil {
		t.Fatalf("format diff: %v", err)
	}
	want := strings.Join([]string{
		"--- b.py",
		"+++ b.py",
		"@@ -1,2 +1,1 @@",
		" import requests",
		"-import sys",
		"",
	}, "\n")
	if out != want {
		t.Fatalf("diff output:\n%s\nwant:\n%s", out, want)
	}
}

func TestFormatDiffSeparatesDistantHunks(t *testing.T) {
	body := strings.Repeat("line\n", 10)
	files := []FileReport{{
		Path:      "m.py",
		Rewritten: true,
		Original:  "import sys\n" + body + "import requests\nimport json\n",
		FixedText: "import os\n" + body + "import requests\nimport json\n",
	}}
	out, err := NewFormatter().Format(Build("", files, nil), FormatDiff)
	if err != nil {
		t.Fatalf("format diff: %v", err)
	}
	for _, want := range []string{"@@ -1,4 +1,4 @@", "-import sys", "+import os"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "import requests") {
		t.Fatalf("unchanged distant lines leaked into the hunk:\n%s", out)
	}
}

func TestFormatUnknown(t *testing.T) {
	if _, err := NewFormatter().Format(sampleReport(), Format("csv")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
