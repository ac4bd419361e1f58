// Package rules evaluates import policy over a parsed file and returns
// diagnostics. Rules are pure: same input, same diagnostics.
package rules

import (
	"fmt"
	"strings"

	"pyfix/internal/classify"
	"pyfix/internal/config"
	"pyfix/internal/diag"
	"pyfix/internal/imports"
	"pyfix/internal/rewrite"
	"pyfix/internal/scan"
	"pyfix/internal/usage"
)

const (
	RuleSyntax          = "syntax"
	RuleMultipleImports = "no-multiple-imports"
	RuleWildcard        = "no-wildcard-imports"
	RuleRelative        = "no-relative-imports"
	RuleSymbolImports   = "import-modules-not-symbols"
	RuleUnusedImport    = "unused-import"
	RuleAliasNaming     = "alias-naming"
	RuleImportOrder     = "import-order"
)

type Input struct {
	Lines        []scan.SourceLine
	Records      []imports.Record
	Problems     []imports.Problem
	ScanWarnings []string
	Config       *config.Config
	PackagePath  string
	Usage        usage.Result // nil disables usage-dependent rules
}

// Evaluate runs every rule and returns the diagnostics sorted by line.
// Statements inside a "fmt: off" region still produce diagnostics but
// never carry fixes.
func Evaluate(in Input) []diag.Diagnostic {
	var out []diag.Diagnostic
	out = append(out, structural(in)...)
	for _, record := range in.Records {
		out = append(out, multipleImports(record, in)...)
		out = append(out, wildcard(record)...)
		out = append(out, relative(record, in)...)
		out = append(out, symbolImports(record, in)...)
		out = append(out, unused(record, in)...)
		out = append(out, aliasNaming(record, in)...)
	}
	out = append(out, importOrder(in)...)
	diag.Sort(out)
	return out
}

func structural(in Input) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, warning := range in.ScanWarnings {
		out = append(out, diag.Diagnostic{
			Rule:     RuleSyntax,
			Severity: diag.SeverityError,
			Message:  warning,
			Line:     1,
		})
	}
	for _, problem := range in.Problems {
		out = append(out, diag.Diagnostic{
			Rule:     RuleSyntax,
			Severity: diag.SeverityError,
			Message:  problem.Message,
			Line:     problem.Line,
		})
	}
	return out
}

func multipleImports(record imports.Record, in Input) []diag.Diagnostic {
	if record.Kind != imports.KindPlain || len(record.Modules) < 2 {
		return nil
	}
	d := recordDiagnostic(record, RuleMultipleImports, diag.SeverityWarning,
		fmt.Sprintf("%d modules in one import statement; use one statement per module", len(record.Modules)))
	if !record.PragmaOff {
		lines := make([]string, 0, len(record.Modules))
		for _, module := range record.Modules {
			lines = append(lines, rewrite.RenderPlainImport(module, record.Indent))
		}
		d.Fix = recordFix(record, "split into one import per module", lines)
	}
	return []diag.Diagnostic{d}
}

func wildcard(record imports.Record) []diag.Diagnostic {
	if !record.Wildcard {
		return nil
	}
	d := recordDiagnostic(record, RuleWildcard, diag.SeverityWarning,
		fmt.Sprintf("wildcard import from %s obscures which names enter the namespace", record.Module))
	return []diag.Diagnostic{d}
}

func relative(record imports.Record, in Input) []diag.Diagnostic {
	if record.RelativeDots == 0 {
		return nil
	}
	d := recordDiagnostic(record, RuleRelative, diag.SeverityWarning,
		"relative import; use the absolute module path")
	resolved, ok := rewrite.ResolveRelative(in.PackagePath, record.RelativeDots, record.Module)
	if ok && !record.PragmaOff {
		lines := rewrite.RenderFromImport(resolved, record.Names, record.Wildcard, in.Config.MaxLineWidth, record.Indent)
		d.Fix = recordFix(record, "rewrite as absolute import", lines)
	}
	return []diag.Diagnostic{d}
}

// symbolImports flags from-imports of project and third-party code whose
// names are only ever used as direct symbols. Standard-library and
// typing-exempt modules are out of scope, as are type-checking blocks.
// There is no mechanical fix: rewriting call sites is not line-local.
func symbolImports(record imports.Record, in Input) []diag.Diagnostic {
	if in.Usage == nil || record.Kind != imports.KindFrom || record.Wildcard || record.IsFuture() {
		return nil
	}
	if record.Context == imports.ContextTypeChecking {
		return nil
	}
	module := record.Module
	if record.RelativeDots > 0 {
		resolved, ok := rewrite.ResolveRelative(in.PackagePath, record.RelativeDots, record.Module)
		if !ok {
			resolved = record.Module
		}
		module = resolved
	} else {
		switch classify.Module(module, in.Config) {
		case classify.StandardLibrary, classify.TypingExempt:
			return nil
		}
	}

	var flagged []string
	for _, name := range record.Names {
		counts, tracked := in.Usage[name.Bound()]
		if !tracked || counts.Total() == 0 {
			continue
		}
		if counts.SymbolEvidence() && !counts.ModuleEvidence() {
			flagged = append(flagged, name.Name)
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	d := recordDiagnostic(record, RuleSymbolImports, diag.SeverityWarning,
		fmt.Sprintf("symbols imported from %s; import the module and qualify uses: %s",
			module, strings.Join(flagged, ", ")))
	return []diag.Diagnostic{d}
}

// unused flags bound names with zero references. Future imports and
// wildcards are never candidates. Type-checking blocks are skipped:
// their names typically appear only in string annotations the reference
// scan cannot see.
func unused(record imports.Record, in Input) []diag.Diagnostic {
	if in.Usage == nil || record.Wildcard || record.IsFuture() {
		return nil
	}
	if record.Context == imports.ContextTypeChecking {
		return nil
	}

	bound := record.BoundNames()
	var unusedNames []imports.Name
	var kept []imports.Name
	for _, name := range bound {
		counts, tracked := in.Usage[name.Bound()]
		if tracked && counts.Total() == 0 {
			unusedNames = append(unusedNames, name)
			continue
		}
		kept = append(kept, name)
	}
	if len(unusedNames) == 0 {
		return nil
	}

	labels := make([]string, 0, len(unusedNames))
	for _, name := range unusedNames {
		labels = append(labels, name.Bound())
	}
	d := recordDiagnostic(record, RuleUnusedImport, diag.SeverityWarning,
		fmt.Sprintf("imported but never used: %s", strings.Join(labels, ", ")))
	if record.PragmaOff {
		return []diag.Diagnostic{d}
	}

	if len(kept) == 0 {
		d.Fix = recordFix(record, "remove unused import", nil)
		return []diag.Diagnostic{d}
	}
	var lines []string
	if record.Kind == imports.KindPlain {
		for _, module := range kept {
			lines = append(lines, rewrite.RenderPlainImport(module, record.Indent))
		}
	} else {
		lines = rewrite.RenderFromImport(record.Module, kept, false, in.Config.MaxLineWidth, record.Indent)
	}
	d.Fix = recordFix(record, "drop unused names", lines)
	return []diag.Diagnostic{d}
}

func aliasNaming(record imports.Record, in Input) []diag.Diagnostic {
	if record.Kind == imports.KindPlain {
		return plainAliasNaming(record, in)
	}
	return fromAliasNaming(record, in)
}

func plainAliasNaming(record imports.Record, in Input) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, module := range record.Modules {
		if module.Alias == "" {
			continue
		}
		canonical, inTable := in.Config.AliasTable[module.Name]
		if inTable && module.Alias != canonical {
			d := recordDiagnostic(record, RuleAliasNaming, diag.SeverityWarning,
				fmt.Sprintf("%s is aliased %q; the conventional alias is %q", module.Name, module.Alias, canonical))
			if !record.PragmaOff && len(record.Modules) == 1 {
				fixed := imports.Name{Name: module.Name, Alias: canonical}
				d.Fix = recordFix(record, "use the conventional alias",
					[]string{rewrite.RenderPlainImport(fixed, record.Indent)})
			}
			out = append(out, d)
			continue
		}
		if !inTable {
			out = append(out, recordDiagnostic(record, RuleAliasNaming, diag.SeverityWarning,
				fmt.Sprintf("%s carries a nonstandard alias %q", module.Name, module.Alias)))
		}
	}
	return out
}

func fromAliasNaming(record imports.Record, in Input) []diag.Diagnostic {
	if record.Wildcard || record.IsFuture() {
		return nil
	}
	var out []diag.Diagnostic
	changed := false
	renamed := make([]imports.Name, 0, len(record.Names))
	for _, name := range record.Names {
		if name.Alias != "" && !rewrite.AliasNecessary(in.Records, record, name) {
			out = append(out, recordDiagnostic(record, RuleAliasNaming, diag.SeverityWarning,
				fmt.Sprintf("alias %q on %s is unnecessary", name.Alias, name.Name)))
			renamed = append(renamed, imports.Name{Name: name.Name})
			changed = true
			continue
		}
		renamed = append(renamed, name)
	}
	if !changed || record.PragmaOff {
		return out
	}
	lines := rewrite.RenderFromImport(record.Module, renamed, false, in.Config.MaxLineWidth, record.Indent)
	fix := recordFix(record, "drop unnecessary aliases", lines)
	for i := range out {
		out[i].Fix = fix
	}
	return out
}

// importOrder checks that the rewritable top-level statements appear in
// canonical group order, sorted within groups, with a blank line between
// groups and no duplicate from-imports. Its fix is the consolidated
// region rewrite.
func importOrder(in Input) []diag.Diagnostic {
	type keyed struct {
		record imports.Record
		group  int
		module string
	}
	var ordered []keyed
	for _, record := range in.Records {
		if record.Context != imports.ContextTopLevel || record.PragmaOff {
			continue
		}
		ordered = append(ordered, keyed{record: record, group: orderGroup(record, in), module: record.PrimaryModule()})
	}
	if len(ordered) < 2 {
		return nil
	}

	violation := false
	seenFrom := make(map[string]bool)
	for i, item := range ordered {
		if item.record.Kind == imports.KindFrom && !item.record.Wildcard && !item.record.IsFuture() {
			if seenFrom[item.module] {
				violation = true
			}
			seenFrom[item.module] = true
		}
		if i == 0 {
			continue
		}
		previous := ordered[i-1]
		if item.group < previous.group {
			violation = true
		}
		if item.group == previous.group && item.module < previous.module {
			violation = true
		}
		blank := blankBetween(in.Lines, previous.record.EndLine, item.record.StartLine)
		if item.group != previous.group && !blank {
			violation = true
		}
		if item.group == previous.group && blank {
			violation = true
		}
	}
	if !violation {
		return nil
	}

	d := diag.Diagnostic{
		Rule:     RuleImportOrder,
		Severity: diag.SeverityWarning,
		Message:  "import statements are not grouped and sorted canonically",
		Line:     ordered[0].record.StartLine + 1,
		EndLine:  ordered[len(ordered)-1].record.EndLine + 1,
	}
	replacement, ok := rewrite.Region(rewrite.Input{
		Lines:       in.Lines,
		Records:     in.Records,
		Config:      in.Config,
		PackagePath: in.PackagePath,
		Usage:       in.Usage,
	})
	if ok {
		d.Fix = &diag.Fix{
			Description: "regroup and sort imports",
			Edits: []diag.Edit{{
				StartLine: replacement.StartLine + 1,
				EndLine:   replacement.EndLine + 1,
				NewText:   replacement.Text,
			}},
		}
	}
	return []diag.Diagnostic{d}
}

func orderGroup(record imports.Record, in Input) int {
	if record.IsFuture() {
		return -1
	}
	module := record.PrimaryModule()
	if record.RelativeDots > 0 {
		resolved, ok := rewrite.ResolveRelative(in.PackagePath, record.RelativeDots, record.Module)
		if !ok {
			return 3
		}
		module = resolved
	}
	return classify.OrderingGroup(module, classify.Module(module, in.Config))
}

func blankBetween(lines []scan.SourceLine, fromLine, toLine int) bool {
	for i := fromLine + 1; i < toLine && i < len(lines); i++ {
		if strings.TrimSpace(lines[i].Raw) == "" {
			return true
		}
	}
	return false
}

func recordDiagnostic(record imports.Record, rule string, severity diag.Severity, message string) diag.Diagnostic {
	return diag.Diagnostic{
		Rule:     rule,
		Severity: severity,
		Message:  message,
		Line:     record.StartLine + 1,
		EndLine:  record.EndLine + 1,
	}
}

func recordFix(record imports.Record, description string, lines []string) *diag.Fix {
	text := ""
	if len(lines) > 0 {
		text = strings.Join(lines, "\n") + "\n"
	}
	return &diag.Fix{
		Description: description,
		Edits: []diag.Edit{{
			StartLine: record.StartLine + 1,
			EndLine:   record.EndLine + 1,
			NewText:   text,
		}},
	}
}
