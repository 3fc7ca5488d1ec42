// Package linediff computes a line-level edit script between two instruction
// listings using the Myers diff from sergi/go-diff.
package linediff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Tag classifies one line of the edit script.
type Tag int

const (
	Equal  Tag = iota // present on both sides
	Delete            // present only on the current side
	Insert            // present only on the target side
)

func (t Tag) String() string {
	switch t {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	}
	return "unknown"
}

// Op is one tagged line.
type Op struct {
	Tag  Tag
	Text string
}

// Diff returns the edit script turning left into right, one Op per line,
// in source order. Lines are trimmed before comparison.
func Diff(left, right []string) []Op {
	dmp := diffmatchpatch.New()
	// No deadline: the script must be minimal, not merely good enough.
	dmp.DiffTimeout = 0

	a, b, lineArray := dmp.DiffLinesToRunes(joinLines(left), joinLines(right))
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]Op, 0, max(len(left), len(right)))
	for _, d := range diffs {
		var tag Tag
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			tag = Equal
		case diffmatchpatch.DiffDelete:
			tag = Delete
		case diffmatchpatch.DiffInsert:
			tag = Insert
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, Op{Tag: tag, Text: line})
		}
	}
	return ops
}

// joinLines terminates every line with a newline so the last line hashes
// the same as any other occurrence of it.
func joinLines(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(strings.TrimSpace(l))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
