// Package patch applies an ordered insert/delete directive group to a
// file's line sequence. It operates on exact line content and explicit
// 1-based line numbers only - there is no context matching and no
// whitespace normalization. Any failure aborts the whole group; the
// caller must not write anything back.
package patch

import (
	"fmt"
	"strings"

	"redline/internal/directive"
)

// OutOfRangeError reports a directive whose line number falls outside
// the valid bounds for the current file state.
type OutOfRangeError struct {
	File   string
	Action directive.Action
	Line   int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %s: line %d out of range (file has %d lines)",
		e.Action, e.File, e.Line, e.Length)
}

// ContentMismatchError reports a delete directive whose expected text
// does not match the actual file content.
type ContentMismatchError struct {
	File     string
	Line     int
	Expected string
	Actual   string
}

func (e *ContentMismatchError) Error() string {
	return fmt.Sprintf("delete %s: content mismatch at line %d: expected %q, found %q",
		e.File, e.Line, e.Expected, e.Actual)
}

// Apply runs a pre-ordered modify group against lines and returns the
// mutated sequence. The group must already be sorted line-descending
// with deletes before inserts on tied lines (see package schedule);
// under that ordering each directive's 1-based line number remains
// valid against the partially-mutated slice at the moment it runs.
//
// The input slice is never mutated; on error the caller's lines are
// untouched.
func Apply(lines []string, group []directive.Directive) ([]string, error) {
	out := make([]string, len(lines))
	copy(out, lines)

	for _, d := range group {
		var err error
		switch d.Action {
		case directive.ActionDelete:
			out, err = deleteLines(out, d)
		case directive.ActionInsert:
			out, err = insertLines(out, d)
		default:
			err = fmt.Errorf("%s %s: not a line directive", d.Action, d.File)
		}
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// deleteLines removes the contiguous run of lines described by d.
// Every expected line must equal the current content byte-for-byte.
func deleteLines(lines []string, d directive.Directive) ([]string, error) {
	start := d.Line - 1
	if start < 0 || start >= len(lines) {
		return nil, &OutOfRangeError{File: d.File, Action: d.Action, Line: d.Line, Length: len(lines)}
	}

	expected := strings.Split(d.Code, "\n")
	if start+len(expected) > len(lines) {
		return nil, &OutOfRangeError{File: d.File, Action: d.Action, Line: d.Line + len(expected) - 1, Length: len(lines)}
	}
	for i, want := range expected {
		if got := lines[start+i]; got != want {
			return nil, &ContentMismatchError{File: d.File, Line: d.Line + i, Expected: want, Actual: got}
		}
	}

	return append(lines[:start], lines[start+len(expected):]...), nil
}

// insertLines splices d.Code in as a contiguous block at d.Line.
// Insertion at end-of-file (line == len+1) is legal.
func insertLines(lines []string, d directive.Directive) ([]string, error) {
	start := d.Line - 1
	if start < 0 || start > len(lines) {
		return nil, &OutOfRangeError{File: d.File, Action: d.Action, Line: d.Line, Length: len(lines)}
	}

	block := strings.Split(d.Code, "\n")
	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:start]...)
	out = append(out, block...)
	out = append(out, lines[start:]...)
	return out, nil
}
