package rules

import (
	"strings"
	"testing"

	"pyfix/internal/config"
	"pyfix/internal/diag"
	"pyfix/internal/imports"
	"pyfix/internal/scan"
	"pyfix/internal/usage"
)

func evaluate(t *testing.T, source string, mutate func(*Input)) []diag.Diagnostic {
	t.Helper()
	scanned := scan.File(source)
	parsed := imports.Parse(scanned.Lines)
	in := Input{
		Lines:        scanned.Lines,
		Records:      parsed.Records,
		Problems:     parsed.Problems,
		ScanWarnings: scanned.Warnings,
		Config:       config.Default(),
	}
	if mutate != nil {
		mutate(&in)
	}
	return Evaluate(in)
}

func byRule(diagnostics []diag.Diagnostic, rule string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diagnostics {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}

func TestEvaluateCleanFile(t *testing.T) {
	diagnostics := evaluate(t, "import os\n\nimport requests\n", nil)
	if len(diagnostics) != 0 {
		t.Fatalf("clean file produced diagnostics: %+v", diagnostics)
	}
}

func TestMultipleImportsSplitFix(t *testing.T) {
	diagnostics := evaluate(t, "import sys, os\n", nil)
	found := byRule(diagnostics, RuleMultipleImports)
	if len(found) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", diagnostics)
	}
	if !found[0].HasFix() {
		t.Fatalf("split fix missing")
	}
	if found[0].Fix.Edits[0].NewText != "import sys\nimport os\n" {
		t.Fatalf("unexpected split text: %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestWildcardHasNoFix(t *testing.T) {
	diagnostics := evaluate(t, "from os.path import *\n", nil)
	found := byRule(diagnostics, RuleWildcard)
	if len(found) != 1 || found[0].HasFix() {
		t.Fatalf("wildcard must be flagged without a fix: %+v", found)
	}
}

func TestRelativeImportFixWhenPackageKnown(t *testing.T) {
	source := "from .models import User\n"
	diagnostics := evaluate(t, source, func(in *Input) {
		in.PackagePath = "sample_project.services"
	})
	found := byRule(diagnostics, RuleRelative)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable relative diagnostic: %+v", found)
	}
	want := "from sample_project.services.models import User\n"
	if found[0].Fix.Edits[0].NewText != want {
		t.Fatalf("got %q, want %q", found[0].Fix.Edits[0].NewText, want)
	}

	diagnostics = evaluate(t, source, nil)
	found = byRule(diagnostics, RuleRelative)
	if len(found) != 1 || found[0].HasFix() {
		t.Fatalf("unresolvable relative import must warn without a fix: %+v", found)
	}
}

func TestSymbolImportsFlagged(t *testing.T) {
	diagnostics := evaluate(t, "from other_library.helpers import greet\n", func(in *Input) {
		in.Usage = usage.Result{"greet": {Bare: 2}}
	})
	found := byRule(diagnostics, RuleSymbolImports)
	if len(found) != 1 {
		t.Fatalf("expected symbol-import diagnostic, got %+v", diagnostics)
	}
	if found[0].HasFix() {
		t.Fatalf("symbol-import diagnostics are never mechanically fixable")
	}
	if !strings.Contains(found[0].Message, "greet") {
		t.Fatalf("message should name the symbol: %q", found[0].Message)
	}
}

func TestSymbolImportsSkipStdlibAndTypingExempt(t *testing.T) {
	diagnostics := evaluate(t, "from os import path\nfrom typing import Optional\n", func(in *Input) {
		in.Usage = usage.Result{"path": {Bare: 1}, "Optional": {Bare: 3}}
	})
	if found := byRule(diagnostics, RuleSymbolImports); len(found) != 0 {
		t.Fatalf("stdlib and typing-exempt from-imports must not be flagged: %+v", found)
	}
}

func TestUnusedImportRemovalFix(t *testing.T) {
	diagnostics := evaluate(t, "import json\n", func(in *Input) {
		in.Usage = usage.Result{"json": {}}
	})
	found := byRule(diagnostics, RuleUnusedImport)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable unused diagnostic: %+v", found)
	}
	if found[0].Fix.Edits[0].NewText != "" {
		t.Fatalf("fully unused record must be deleted, got %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestUnusedImportPartialRemoval(t *testing.T) {
	diagnostics := evaluate(t, "from os import path, sep\n", func(in *Input) {
		in.Usage = usage.Result{"path": {Qualified: 1}, "sep": {}}
	})
	found := byRule(diagnostics, RuleUnusedImport)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable unused diagnostic: %+v", found)
	}
	if found[0].Fix.Edits[0].NewText != "from os import path\n" {
		t.Fatalf("unexpected partial removal: %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestUnusedSkipsTypeCheckingBlock(t *testing.T) {
	source := "from typing import TYPE_CHECKING\n\nif TYPE_CHECKING:\n    from models import User\n"
	diagnostics := evaluate(t, source, func(in *Input) {
		in.Usage = usage.Result{"TYPE_CHECKING": {Bare: 1}, "User": {}}
	})
	if found := byRule(diagnostics, RuleUnusedImport); len(found) != 0 {
		t.Fatalf("type-checking imports must not be reported unused: %+v", found)
	}
}

func TestAliasNamingTableMismatch(t *testing.T) {
	diagnostics := evaluate(t, "import numpy as num\n", nil)
	found := byRule(diagnostics, RuleAliasNaming)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable alias diagnostic: %+v", found)
	}
	if found[0].Fix.Edits[0].NewText != "import numpy as np\n" {
		t.Fatalf("unexpected alias fix: %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestAliasNamingNonTableAliasWarnsWithoutFix(t *testing.T) {
	diagnostics := evaluate(t, "import os as operating_system\n", nil)
	found := byRule(diagnostics, RuleAliasNaming)
	if len(found) != 1 || found[0].HasFix() {
		t.Fatalf("nonstandard alias must warn without a fix: %+v", found)
	}
}

func TestAliasNamingUnnecessaryFromAlias(t *testing.T) {
	diagnostics := evaluate(t, "from json import dumps as json_dumps\n", nil)
	found := byRule(diagnostics, RuleAliasNaming)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable alias diagnostic: %+v", found)
	}
	if found[0].Fix.Edits[0].NewText != "from json import dumps\n" {
		t.Fatalf("unexpected alias drop: %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestAliasNamingKeepsCollidingAliases(t *testing.T) {
	source := "from os import path as os_path\nfrom pathlib import Path as pathlib_path\n"
	diagnostics := evaluate(t, source, nil)
	if found := byRule(diagnostics, RuleAliasNaming); len(found) != 0 {
		t.Fatalf("colliding aliases are justified: %+v", found)
	}
}

func TestImportOrderViolationCarriesRegionFix(t *testing.T) {
	diagnostics := evaluate(t, "import requests\nimport os\n", nil)
	found := byRule(diagnostics, RuleImportOrder)
	if len(found) != 1 || !found[0].HasFix() {
		t.Fatalf("expected fixable order diagnostic: %+v", found)
	}
	edit := found[0].Fix.Edits[0]
	if edit.StartLine != 1 || edit.EndLine != 2 {
		t.Fatalf("unexpected edit range %d-%d", edit.StartLine, edit.EndLine)
	}
	if edit.NewText != "import os\n\nimport requests\n" {
		t.Fatalf("unexpected region text: %q", edit.NewText)
	}
}

func TestImportOrderFlagsBlankLineInsideGroup(t *testing.T) {
	diagnostics := evaluate(t, "import os\n\nimport sys\n", nil)
	found := byRule(diagnostics, RuleImportOrder)
	if len(found) != 1 {
		t.Fatalf("blank line inside a group must be flagged: %+v", diagnostics)
	}
	if found[0].Fix.Edits[0].NewText != "import os\nimport sys\n" {
		t.Fatalf("unexpected region text: %q", found[0].Fix.Edits[0].NewText)
	}
}

func TestSyntaxProblemReportedAsError(t *testing.T) {
	diagnostics := evaluate(t, "from os import (path\n", nil)
	found := byRule(diagnostics, RuleSyntax)
	if len(found) != 1 {
		t.Fatalf("expected one syntax diagnostic, got %+v", diagnostics)
	}
	if found[0].Severity != diag.SeverityError || found[0].Line != 1 {
		t.Fatalf("unexpected syntax diagnostic: %+v", found[0])
	}
}

func TestPragmaRegionDiagnosticsHaveNoFixes(t *testing.T) {
	diagnostics := evaluate(t, "# fmt: off\nimport sys, os\n# fmt: on\n", nil)
	found := byRule(diagnostics, RuleMultipleImports)
	if len(found) != 1 {
		t.Fatalf("pragma region must still produce diagnostics: %+v", diagnostics)
	}
	if found[0].HasFix() {
		t.Fatalf("pragma region diagnostics must not carry fixes")
	}
}
