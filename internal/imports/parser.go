package imports

import (
	"regexp"
	"strings"

	"pyfix/internal/scan"
)

// Problem is a structural parse failure tied to a physical line.
type Problem struct {
	Line    int // 1-based
	Message string
}

// File is the parse result for one source file. TailStart is the 0-based
// line index from which parsing was abandoned, or -1 when the whole file
// parsed.
type File struct {
	Records   []Record
	Problems  []Problem
	TailStart int
}

var (
	fromPattern   = regexp.MustCompile(`^from\s+(\.*)\s*([A-Za-z_][\w.]*)?\s+import\s+(.+)$`)
	plainPattern  = regexp.MustCompile(`^import\s+(.+)$`)
	modulePattern = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
)

// Parse consumes scanned lines top-down, joining parenthesized and
// backslash continuations into logical statements.
func Parse(lines []scan.SourceLine) File {
	result := File{TailStart: -1}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line.InString || line.CommentOnly {
			continue
		}
		trimmed := strings.TrimSpace(line.Code)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "from ") {
			continue
		}

		statement, end, ok := joinStatement(lines, i)
		if !ok {
			result.Problems = append(result.Problems, Problem{
				Line:    line.Index + 1,
				Message: "unbalanced parentheses in import statement",
			})
			result.TailStart = line.Index
			return result
		}

		record, parseOK := parseStatement(statement)
		if !parseOK {
			result.Problems = append(result.Problems, Problem{
				Line:    line.Index + 1,
				Message: "unrecognized import statement",
			})
			i = end
			continue
		}

		record.StartLine = line.Index
		record.EndLine = end
		record.Indent = scan.Indent(line.Code)
		record.PragmaOff = line.PragmaOff
		switch {
		case line.TypeChecking:
			record.Context = ContextTypeChecking
		case record.Indent != "":
			record.Context = ContextFunctionLocal
		default:
			record.Context = ContextTopLevel
		}

		result.Records = append(result.Records, record)
		i = end
	}

	return result
}

// joinStatement merges continuation lines starting at index start and
// returns the joined statement text with the index of its last line.
func joinStatement(lines []scan.SourceLine, start int) (string, int, bool) {
	var builder strings.Builder
	depth := 0
	i := start
	for i < len(lines) {
		code := lines[i].Code
		depth += strings.Count(code, "(") - strings.Count(code, ")")

		piece := strings.TrimSpace(code)
		continued := strings.HasSuffix(piece, "\\")
		piece = strings.TrimSuffix(piece, "\\")
		if builder.Len() > 0 && piece != "" {
			builder.WriteByte(' ')
		}
		builder.WriteString(piece)

		if depth < 0 {
			return "", start, false
		}
		if depth == 0 && !continued {
			return builder.String(), i, true
		}
		i++
	}
	return "", start, false
}

func parseStatement(statement string) (Record, bool) {
	statement = collapseSpaces(statement)

	if match := fromPattern.FindStringSubmatch(statement); match != nil {
		record := Record{
			Kind:         KindFrom,
			RelativeDots: len(match[1]),
			Module:       match[2],
		}
		if record.RelativeDots == 0 && record.Module == "" {
			return Record{}, false
		}
		namesText := strings.TrimSpace(match[3])
		namesText = strings.TrimPrefix(namesText, "(")
		namesText = strings.TrimSuffix(namesText, ")")
		for _, part := range splitNames(namesText) {
			if part == "*" {
				record.Wildcard = true
				continue
			}
			name, ok := parseAliased(part)
			if !ok {
				return Record{}, false
			}
			record.Names = append(record.Names, name)
		}
		if len(record.Names) == 0 && !record.Wildcard {
			return Record{}, false
		}
		return record, true
	}

	if match := plainPattern.FindStringSubmatch(statement); match != nil {
		record := Record{Kind: KindPlain}
		for _, part := range splitNames(match[1]) {
			module, ok := parseAliased(part)
			if !ok || !modulePattern.MatchString(module.Name) {
				return Record{}, false
			}
			record.Modules = append(record.Modules, module)
		}
		if len(record.Modules) == 0 {
			return Record{}, false
		}
		return record, true
	}

	return Record{}, false
}

func parseAliased(part string) (Name, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return Name{}, false
	}
	if before, after, found := strings.Cut(part, " as "); found {
		name := strings.TrimSpace(before)
		alias := strings.TrimSpace(after)
		if name == "" || alias == "" {
			return Name{}, false
		}
		return Name{Name: name, Alias: alias}, true
	}
	return Name{Name: part}, true
}

func splitNames(text string) []string {
	parts := strings.Split(text, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		names = append(names, part)
	}
	return names
}

func collapseSpaces(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	// `from x import(a)` is valid Python; normalize for the pattern match.
	return strings.ReplaceAll(text, "import(", "import (")
}
