package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const hunkContext = 3

// formatDiff renders the pending rewrite of every file as a unified diff.
// Files whose import region is already canonical produce no output.
func formatDiff(rep Report) string {
	var builder strings.Builder
	dmp := diffmatchpatch.New()
	for _, file := range rep.Files {
		if !file.Rewritten || file.FixedText == file.Original {
			continue
		}
		fromChars, toChars, lineArray := dmp.DiffLinesToChars(file.Original, file.FixedText)
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(fromChars, toChars, false), lineArray)
		builder.WriteString("--- " + file.Path + "\n")
		builder.WriteString("+++ " + file.Path + "\n")
		builder.WriteString(unifiedHunks(diffToLines(diffs)))
	}
	return builder.String()
}

type patchLine struct {
	op   byte // ' ', '-', or '+'
	text string
}

func diffToLines(diffs []diffmatchpatch.Diff) []patchLine {
	var out []patchLine
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		op := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, patchLine{op: op, text: line})
		}
	}
	return out
}

// unifiedHunks groups changed lines into @@ hunks with hunkContext lines of
// surrounding context. Changes closer than twice the context share a hunk.
func unifiedHunks(lines []patchLine) string {
	var builder strings.Builder
	oldLine, newLine := 1, 1
	i := 0
	for i < len(lines) {
		if lines[i].op == ' ' {
			oldLine++
			newLine++
			i++
			continue
		}

		start := i
		for start > 0 && i-start < hunkContext && lines[start-1].op == ' ' {
			start--
		}
		stop := hunkEnd(lines, i)

		oldStart := oldLine - (i - start)
		newStart := newLine - (i - start)
		oldCount, newCount := 0, 0
		for _, line := range lines[start:stop] {
			switch line.op {
			case '-':
				oldCount++
			case '+':
				newCount++
			default:
				oldCount++
				newCount++
			}
		}

		fmt.Fprintf(&builder, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
		for _, line := range lines[start:stop] {
			builder.WriteByte(line.op)
			builder.WriteString(line.text)
			builder.WriteByte('\n')
		}

		for _, line := range lines[i:stop] {
			switch line.op {
			case '-':
				oldLine++
			case '+':
				newLine++
			default:
				oldLine++
				newLine++
			}
		}
		i = stop
	}
	return builder.String()
}

func hunkEnd(lines []patchLine, from int) int {
	lastChange := from
	run := 0
	for j := from; j < len(lines); j++ {
		if lines[j].op == ' ' {
			run++
			if run > 2*hunkContext {
				break
			}
			continue
		}
		run = 0
		lastChange = j
	}
	stop := lastChange + 1
	for count := 0; count < hunkContext && stop < len(lines) && lines[stop].op == ' '; count++ {
		stop++
	}
	return stop
}
