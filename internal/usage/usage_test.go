package usage

import (
	"context"
	"testing"
)

func analyze(t *testing.T, source string, bound ...string) Result {
	t.Helper()
	result, err := Analyze(context.Background(), []byte(source), bound)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return result
}

func TestAnalyzeQualifiedAccessIsModuleEvidence(t *testing.T) {
	source := "import os\n\nprint(os.name)\nos.getcwd()\n"
	result := analyze(t, source, "os")
	counts := result["os"]
	if counts.Qualified != 2 {
		t.Fatalf("expected 2 qualified references, got %+v", counts)
	}
	if !counts.ModuleEvidence() {
		t.Fatalf("qualified access on snake_case name must be module evidence")
	}
}

func TestAnalyzePascalCaseDotAccessIsNotModuleEvidence(t *testing.T) {
	source := "from other_library.core.base import ProcessorConfig\n\nprint(ProcessorConfig.name)\n"
	result := analyze(t, source, "ProcessorConfig")
	counts := result["ProcessorConfig"]
	if counts.ModuleEvidence() {
		t.Fatalf("PascalCase dot access must never count as module evidence: %+v", counts)
	}
	if counts.AttributeOnResult != 1 {
		t.Fatalf("expected class attribute access tally, got %+v", counts)
	}
}

func TestAnalyzeConstructorCall(t *testing.T) {
	source := "from models.sample_models import User\n\nuser = User(id=1, name=\"a\")\n"
	result := analyze(t, source, "User")
	counts := result["User"]
	if counts.Constructor != 1 {
		t.Fatalf("expected constructor tally, got %+v", counts)
	}
	if counts.ModuleEvidence() {
		t.Fatalf("constructor call is symbol evidence, not module evidence")
	}
}

func TestAnalyzeBareFunctionCall(t *testing.T) {
	source := "from other_library.helpers import greet\n\nresult = greet(\"world\")\n"
	counts := analyze(t, source, "greet")["greet"]
	if counts.Bare != 1 || counts.SymbolEvidence() == false {
		t.Fatalf("expected bare symbol call, got %+v", counts)
	}
}

func TestAnalyzeImportStatementsDoNotCount(t *testing.T) {
	source := "import os\nfrom os import path\n"
	counts := analyze(t, source, "os", "path")
	if counts["os"].Total() != 0 || counts["path"].Total() != 0 {
		t.Fatalf("import statements counted as references: %+v", counts)
	}
}

func TestAnalyzeStringContentIgnored(t *testing.T) {
	source := "import os\n\ndoc = \"\"\"\nos.path is great, helpers.greet too\n\"\"\"\n"
	counts := analyze(t, source, "os")
	if counts["os"].Total() != 0 {
		t.Fatalf("references inside strings must not count: %+v", counts)
	}
}

func TestAnalyzeAnnotationsCountAsReferences(t *testing.T) {
	source := "from models.sample_models import User\n\ndef show(user: User) -> str:\n    return str(user)\n"
	counts := analyze(t, source, "User")["User"]
	if counts.Total() == 0 {
		t.Fatalf("type annotation reference not counted")
	}
}

func TestAnalyzeKeywordArgumentNameIgnored(t *testing.T) {
	source := "import json\n\nprint(dumps({}, indent=2))\n"
	counts := analyze(t, source, "indent")["indent"]
	if counts.Total() != 0 {
		t.Fatalf("keyword argument name counted as reference: %+v", counts)
	}
}

func TestAnalyzeUnusedImportHasZeroReferences(t *testing.T) {
	source := "import collections\n\nprint(\"nothing\")\n"
	counts := analyze(t, source, "collections")["collections"]
	if counts.Total() != 0 {
		t.Fatalf("expected zero references, got %+v", counts)
	}
}

func TestAnalyzeAllExportEntriesCountAsReferences(t *testing.T) {
	source := "from other_library.core.base import BaseProcessor, ProcessorConfig\n\n" +
		"__all__ = [\n    \"BaseProcessor\",\n    'ProcessorConfig',\n]\n"
	result := analyze(t, source, "BaseProcessor", "ProcessorConfig")
	for _, name := range []string{"BaseProcessor", "ProcessorConfig"} {
		counts := result[name]
		if counts.Exported != 1 || counts.Total() != 1 {
			t.Fatalf("__all__ entry for %s not counted: %+v", name, counts)
		}
		if counts.SymbolEvidence() {
			t.Fatalf("an __all__ entry is not call-site evidence: %+v", counts)
		}
	}
}

func TestAnalyzeAllEntriesOutsideExportListIgnored(t *testing.T) {
	source := "import os\n\nnames = [\"os\"]\ndoc = \"os\"\n"
	counts := analyze(t, source, "os")["os"]
	if counts.Exported != 0 {
		t.Fatalf("strings outside __all__ counted as exports: %+v", counts)
	}
}

func TestAnalyzeAugmentedAllAssignment(t *testing.T) {
	source := "from other_library.helpers import greet\n\n__all__ = []\n__all__ += [\"greet\"]\n"
	counts := analyze(t, source, "greet")["greet"]
	if counts.Exported != 1 {
		t.Fatalf("augmented __all__ entry not counted: %+v", counts)
	}
}

func TestAnalyzeCodeAfterClosingTripleQuote(t *testing.T) {
	source := "from other_library import helpers\nimport textwrap\n\nX = textwrap.dedent(\"\"\"\n    body\n\"\"\") + helpers.greet(\"hi\")\n"
	result := analyze(t, source, "helpers", "textwrap")
	if result["helpers"].Qualified != 1 {
		t.Fatalf("dot access after closing delimiter missed: %+v", result["helpers"])
	}
	if result["textwrap"].Qualified != 1 {
		t.Fatalf("module use on opening line missed: %+v", result["textwrap"])
	}
}
