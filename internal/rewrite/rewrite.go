// Package rewrite produces the canonical form of a file's import region:
// statements split, regrouped, resorted, and rewrapped as a fixed
// three-stage pipeline. Interleaved non-import content, type-checking
// guards, and "fmt: off" regions are preserved as structural anchors.
package rewrite

import (
	"sort"
	"strings"

	"pyfix/internal/classify"
	"pyfix/internal/config"
	"pyfix/internal/imports"
	"pyfix/internal/scan"
	"pyfix/internal/usage"
)

// Replacement is a consolidated rewrite of an inclusive 0-based physical
// line range. Text carries its own trailing newline.
type Replacement struct {
	StartLine int
	EndLine   int
	Text      string
}

type Input struct {
	Lines       []scan.SourceLine
	Records     []imports.Record
	Config      *config.Config
	PackagePath string       // dotted package containing the file, "" when unknown
	Usage       usage.Result // nil skips unused-name removal
}

const futureGroup = -1

// Region computes the canonical replacement for the file's top-level
// import region. ok is false when there is nothing to change.
func Region(in Input) (Replacement, bool) {
	selected := selectRegionRecords(in.Records)
	if len(selected) == 0 {
		return Replacement{}, false
	}

	start, end := regionBounds(in.Lines, selected)
	segments := buildSegments(in.Lines, selected, start, end)
	entries := canonicalEntries(in, segments)

	var out []string
	emittedBlock := false
	for _, segment := range segments {
		switch segment.kind {
		case segmentRecord:
			if emittedBlock {
				continue
			}
			emittedBlock = true
			out = appendChunk(out, renderGroups(entries, in.Config))
		case segmentVerbatim:
			out = appendChunk(out, segment.raw)
		case segmentTypeChecking:
			out = appendChunk(out, renderTypeCheckingBlock(segment, in))
		}
	}

	text := strings.Join(out, "\n") + "\n"
	original := rawRange(in.Lines, start, end)
	if text == original {
		return Replacement{}, false
	}
	return Replacement{StartLine: start, EndLine: end, Text: text}, true
}

func selectRegionRecords(records []imports.Record) []imports.Record {
	selected := make([]imports.Record, 0, len(records))
	for _, record := range records {
		if record.Context == imports.ContextFunctionLocal {
			continue
		}
		selected = append(selected, record)
	}
	return selected
}

func regionBounds(lines []scan.SourceLine, selected []imports.Record) (int, int) {
	start := selected[0].StartLine
	end := selected[0].EndLine
	for _, record := range selected {
		if record.StartLine < start {
			start = record.StartLine
		}
		if record.EndLine > end {
			end = record.EndLine
		}
	}
	// A type-checking block's header and full body belong to the region
	// even when its last import is not the last line of the block.
	for _, record := range selected {
		if record.Context != imports.ContextTypeChecking {
			continue
		}
		header := typeCheckingHeader(lines, record.StartLine)
		if header >= 0 && header < start {
			start = header
		}
		bodyEnd := typeCheckingBodyEnd(lines, record.StartLine)
		if bodyEnd > end {
			end = bodyEnd
		}
	}
	return start, end
}

func typeCheckingHeader(lines []scan.SourceLine, from int) int {
	for i := from; i >= 0; i-- {
		if !lines[i].TypeChecking {
			return i
		}
	}
	return -1
}

func typeCheckingBodyEnd(lines []scan.SourceLine, from int) int {
	end := from
	for i := from; i < len(lines) && lines[i].TypeChecking; i++ {
		if strings.TrimSpace(lines[i].Raw) != "" {
			end = i
		}
	}
	return end
}

type segmentKind int

const (
	segmentRecord segmentKind = iota
	segmentVerbatim
	segmentTypeChecking
)

type segment struct {
	kind    segmentKind
	raw     []string          // verbatim lines
	header  string            // type-checking guard header line
	records []recordWithNotes // records inside a type-checking block
	body    []string          // raw body of a type-checking block
	safe    bool              // type-checking body contains only imports/comments
}

type recordWithNotes struct {
	record   imports.Record
	comments []string
}

// buildSegments walks the region classifying each line run: rewritable
// record spans, verbatim spans (pragma regions and unrecognized live
// code), and type-checking blocks. Standalone comments attach to the
// element that follows them.
func buildSegments(lines []scan.SourceLine, selected []imports.Record, start, end int) []segment {
	recordAt := make(map[int]*imports.Record)
	for i := range selected {
		recordAt[selected[i].StartLine] = &selected[i]
	}

	var segments []segment
	var pending []string
	flushPendingVerbatim := func() {
		if len(pending) == 0 {
			return
		}
		segments = append(segments, segment{kind: segmentVerbatim, raw: pending})
		pending = nil
	}

	i := start
	for i <= end {
		line := lines[i]
		switch {
		case line.PragmaOff:
			flushPendingVerbatim()
			run := []string{}
			for i <= end && lines[i].PragmaOff {
				run = append(run, lines[i].Raw)
				i++
			}
			segments = append(segments, segment{kind: segmentVerbatim, raw: run})
		case isTypeCheckingHeader(line):
			block, next := collectTypeCheckingBlock(lines, i, end, recordAt, pending)
			pending = nil
			segments = append(segments, block)
			i = next
		case recordAt[i] != nil && !lines[i].TypeChecking:
			record := recordAt[i]
			segments = append(segments, segment{
				kind:    segmentRecord,
				records: []recordWithNotes{{record: *record, comments: pending}},
			})
			pending = nil
			i = record.EndLine + 1
		case line.CommentOnly && strings.TrimSpace(line.Raw) != "":
			pending = append(pending, line.Raw)
			i++
		case strings.TrimSpace(line.Raw) == "":
			i++
		default:
			// Unrecognized live code inside the region: anchor verbatim.
			flushPendingVerbatim()
			segments = append(segments, segment{kind: segmentVerbatim, raw: []string{line.Raw}})
			i++
		}
	}
	flushPendingVerbatim()
	return segments
}

func isTypeCheckingHeader(line scan.SourceLine) bool {
	if line.TypeChecking || line.InString {
		return false
	}
	trimmed := strings.TrimSpace(line.Code)
	return strings.HasPrefix(trimmed, "if ") && strings.Contains(trimmed, "TYPE_CHECKING") && strings.HasSuffix(trimmed, ":")
}

func collectTypeCheckingBlock(lines []scan.SourceLine, headerAt, end int, recordAt map[int]*imports.Record, leading []string) (segment, int) {
	block := segment{kind: segmentTypeChecking, header: lines[headerAt].Raw, safe: true}
	if len(leading) > 0 {
		block.raw = leading
	}

	var pending []string
	i := headerAt + 1
	last := headerAt
	for i < len(lines) && lines[i].TypeChecking {
		line := lines[i]
		block.body = append(block.body, line.Raw)
		switch {
		case recordAt[i] != nil:
			record := recordAt[i]
			block.records = append(block.records, recordWithNotes{record: *record, comments: pending})
			pending = nil
			for j := i + 1; j <= record.EndLine; j++ {
				block.body = append(block.body, lines[j].Raw)
			}
			i = record.EndLine + 1
			last = record.EndLine
			continue
		case line.CommentOnly && strings.TrimSpace(line.Raw) != "":
			pending = append(pending, line.Raw)
		case strings.TrimSpace(line.Raw) == "":
		default:
			block.safe = false
		}
		if strings.TrimSpace(line.Raw) != "" {
			last = i
		}
		i++
	}
	if last > end {
		return block, last + 1
	}
	return block, i
}

// canonicalEntries applies the split/merge/alias/unused transformations to
// the rewritable record segments and returns renderable entries. Comments
// that preceded a record travel with its first transformed entry.
func canonicalEntries(in Input, segments []segment) []entry {
	var entries []entry
	bound := boundNameIndex(in.Records)
	for _, item := range segments {
		if item.kind != segmentRecord {
			continue
		}
		for _, noted := range item.records {
			transformed := transformRecord(noted.record, in, bound)
			for i := range transformed {
				if i == 0 {
					transformed[i].comments = noted.comments
				}
				entries = append(entries, transformed[i])
			}
		}
	}
	return mergeEntries(entries)
}

type entry struct {
	kind     imports.Kind
	module   string // dotted path; relative imports keep their dots here
	names    []imports.Name
	wildcard bool
	group    int
	comments []string
}

func transformRecord(record imports.Record, in Input, bound boundIndex) []entry {
	if record.Kind == imports.KindPlain {
		return transformPlain(record, in)
	}
	return transformFrom(record, in, bound)
}

func transformPlain(record imports.Record, in Input) []entry {
	var entries []entry
	for _, module := range record.Modules {
		if record.Context != imports.ContextTypeChecking && dropUnused(in.Usage, module.Bound()) {
			continue
		}
		name := module
		if canonical, ok := in.Config.AliasTable[module.Name]; ok && module.Alias != "" && module.Alias != canonical {
			name.Alias = canonical
		}
		category := classify.Module(name.Name, in.Config)
		entries = append(entries, entry{
			kind:   imports.KindPlain,
			module: name.Name,
			names:  []imports.Name{name},
			group:  classify.OrderingGroup(name.Name, category),
		})
	}
	return entries
}

func transformFrom(record imports.Record, in Input, bound boundIndex) []entry {
	module := record.Module
	relative := record.RelativeDots > 0
	if relative {
		if resolved, ok := ResolveRelative(in.PackagePath, record.RelativeDots, record.Module); ok {
			module = resolved
			relative = false
		} else {
			module = strings.Repeat(".", record.RelativeDots) + record.Module
		}
	}

	result := entry{kind: imports.KindFrom, module: module, wildcard: record.Wildcard}
	for _, name := range record.Names {
		if record.IsFuture() {
			result.names = append(result.names, name)
			continue
		}
		// Guarded imports are typically referenced only from string
		// annotations the reference scan cannot see.
		if record.Context != imports.ContextTypeChecking && dropUnused(in.Usage, name.Bound()) {
			continue
		}
		if name.Alias != "" && !bound.aliasJustified(record, name) {
			name = imports.Name{Name: name.Name}
		}
		result.names = append(result.names, name)
	}
	if len(result.names) == 0 && !result.wildcard {
		return nil
	}

	switch {
	case record.IsFuture():
		result.group = futureGroup
	case relative:
		result.group = 3
	default:
		category := classify.Module(module, in.Config)
		result.group = classify.OrderingGroup(module, category)
	}
	return []entry{result}
}

func dropUnused(result usage.Result, boundName string) bool {
	if result == nil || boundName == "" {
		return false
	}
	counts, tracked := result[boundName]
	return tracked && counts.Total() == 0
}

// mergeEntries deduplicates plain imports and merges from-imports of the
// same module, then sorts member lists case-sensitively.
func mergeEntries(entries []entry) []entry {
	var merged []entry
	index := make(map[string]int)
	for _, item := range entries {
		key := string(item.kind) + "\x00" + item.module
		if item.wildcard {
			// Wildcards stay on their own statement.
			merged = append(merged, item)
			continue
		}
		if at, ok := index[key]; ok {
			merged[at].names = appendMissingNames(merged[at].names, item.names)
			merged[at].comments = append(merged[at].comments, item.comments...)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	for i := range merged {
		if merged[i].kind == imports.KindFrom {
			sort.SliceStable(merged[i].names, func(a, b int) bool {
				return merged[i].names[a].Name < merged[i].names[b].Name
			})
		}
	}
	return merged
}

func appendMissingNames(existing, extra []imports.Name) []imports.Name {
	for _, candidate := range extra {
		present := false
		for _, name := range existing {
			if name.Name == candidate.Name && name.Alias == candidate.Alias {
				present = true
				break
			}
		}
		if !present {
			existing = append(existing, candidate)
		}
	}
	return existing
}

// renderGroups emits entries grouped {standard library, third party,
// first party, local} with a blank line between non-empty groups, sorted
// case-sensitively on the full module path within a group.
func renderGroups(entries []entry, cfg *config.Config) []string {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].group != entries[j].group {
			return entries[i].group < entries[j].group
		}
		if entries[i].module != entries[j].module {
			return entries[i].module < entries[j].module
		}
		if entries[i].kind != entries[j].kind {
			return entries[i].kind == imports.KindPlain
		}
		return firstName(entries[i]) < firstName(entries[j])
	})

	var out []string
	lastGroup := 0
	for index, item := range entries {
		if index > 0 && item.group != lastGroup {
			out = append(out, "")
		}
		lastGroup = item.group
		out = append(out, item.comments...)
		out = append(out, renderEntry(item, cfg.MaxLineWidth, "")...)
	}
	return out
}

func firstName(item entry) string {
	if len(item.names) == 0 {
		return ""
	}
	return item.names[0].Name
}

func renderEntry(item entry, width int, indent string) []string {
	if item.kind == imports.KindPlain {
		return []string{indent + "import " + renderName(item.names[0])}
	}
	if item.wildcard {
		return []string{indent + "from " + item.module + " import *"}
	}
	parts := make([]string, 0, len(item.names))
	for _, name := range item.names {
		parts = append(parts, renderName(name))
	}
	oneLine := indent + "from " + item.module + " import " + strings.Join(parts, ", ")
	if len(oneLine) <= width {
		return []string{oneLine}
	}
	wrapped := make([]string, 0, len(parts)+2)
	wrapped = append(wrapped, indent+"from "+item.module+" import (")
	for _, part := range parts {
		wrapped = append(wrapped, indent+"    "+part+",")
	}
	wrapped = append(wrapped, indent+")")
	return wrapped
}

// AliasNecessary reports whether dropping a from-import alias would
// collide with another binding in the file.
func AliasNecessary(records []imports.Record, record imports.Record, name imports.Name) bool {
	return boundNameIndex(records).aliasJustified(record, name)
}

// RenderPlainImport renders one `import module` statement.
func RenderPlainImport(name imports.Name, indent string) string {
	return indent + "import " + renderName(name)
}

// RenderFromImport renders a from-import, wrapping in parentheses with one
// name per line when the single-line form exceeds width.
func RenderFromImport(module string, names []imports.Name, wildcard bool, width int, indent string) []string {
	return renderEntry(entry{kind: imports.KindFrom, module: module, names: names, wildcard: wildcard}, width, indent)
}

func renderName(name imports.Name) string {
	if name.Alias != "" {
		return name.Name + " as " + name.Alias
	}
	return name.Name
}

func renderTypeCheckingBlock(block segment, in Input) []string {
	var out []string
	out = append(out, block.raw...)
	out = append(out, block.header)
	if !block.safe || len(block.records) == 0 {
		out = append(out, trimTrailingBlank(block.body)...)
		return out
	}

	indent := "    "
	if len(block.records) > 0 && block.records[0].record.Indent != "" {
		indent = block.records[0].record.Indent
	}

	bound := boundNameIndex(in.Records)
	var entries []entry
	for _, item := range block.records {
		transformed := transformRecord(item.record, in, bound)
		for i := range transformed {
			if i == 0 {
				transformed[i].comments = item.comments
			}
			entries = append(entries, transformed[i])
		}
	}
	entries = mergeEntries(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].group != entries[j].group {
			return entries[i].group < entries[j].group
		}
		return entries[i].module < entries[j].module
	})
	for _, item := range entries {
		for _, comment := range item.comments {
			out = append(out, indent+strings.TrimSpace(comment))
		}
		out = append(out, renderEntry(item, in.Config.MaxLineWidth, indent)...)
	}
	return out
}

func trimTrailingBlank(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}

func appendChunk(out, chunk []string) []string {
	if len(chunk) == 0 {
		return out
	}
	if len(out) > 0 {
		out = append(out, "")
	}
	return append(out, chunk...)
}

func rawRange(lines []scan.SourceLine, start, end int) string {
	raw := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		raw = append(raw, lines[i].Raw)
	}
	return strings.Join(raw, "\n") + "\n"
}

// ResolveRelative rewrites a relative import as an absolute path rooted at
// the file's dotted package path. One leading dot is the current package;
// each further dot ascends one level.
func ResolveRelative(packagePath string, dots int, module string) (string, bool) {
	if packagePath == "" || dots < 1 {
		return "", false
	}
	segments := strings.Split(packagePath, ".")
	ascend := dots - 1
	if ascend >= len(segments) {
		return "", false
	}
	base := segments[:len(segments)-ascend]
	if module == "" {
		return strings.Join(base, "."), true
	}
	return strings.Join(base, ".") + "." + module, true
}

// boundIndex supports alias-necessity checks: a from-import alias is
// justified only when dropping it would collide with another binding in
// the file. Comparison is case-insensitive, so `path` and `Path` collide.
type boundIndex struct {
	names       map[string]int // lowercased bound/symbol names -> occurrences
	moduleRoots map[string]int
	perModule   map[string]int // from-records per module
}

func boundNameIndex(records []imports.Record) boundIndex {
	index := boundIndex{
		names:       make(map[string]int),
		moduleRoots: make(map[string]int),
		perModule:   make(map[string]int),
	}
	for _, record := range records {
		if record.Kind == imports.KindPlain {
			for _, module := range record.Modules {
				index.moduleRoots[strings.ToLower(module.Bound())]++
			}
			continue
		}
		index.perModule[record.Module]++
		for _, name := range record.Names {
			index.names[strings.ToLower(name.Name)]++
		}
	}
	return index
}

func (b boundIndex) aliasJustified(record imports.Record, name imports.Name) bool {
	lowered := strings.ToLower(name.Name)
	if b.names[lowered] > 1 {
		return true
	}
	if b.moduleRoots[lowered] > 0 {
		return true
	}
	// The bare name shadowing its own defining module root reads as a
	// collision too (`from datetime import datetime`).
	if rootOf(record.Module) != "" && strings.EqualFold(rootOf(record.Module), name.Name) {
		return true
	}
	// Several separate from-imports of one module imply deliberate naming.
	if b.perModule[record.Module] > 1 {
		return true
	}
	return false
}

func rootOf(module string) string {
	if index := strings.IndexByte(module, '.'); index >= 0 {
		return module[:index]
	}
	return module
}
