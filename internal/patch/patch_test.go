package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/internal/directive"
	"redline/internal/schedule"
)

func ins(line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionInsert, File: "f.go", Line: line, Code: code}
}

func del(line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionDelete, File: "f.go", Line: line, Code: code}
}

// ordered runs the group through the scheduler so tests exercise the
// same ordering the aggregator uses.
func ordered(group ...directive.Directive) []directive.Directive {
	plan := schedule.Build(group)
	return plan.Modifies["f.go"]
}

func TestInsertAtEndOfFile(t *testing.T) {
	lines := []string{"one", "two", "three"}

	got, err := Apply(lines, ordered(ins(4, "four")))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestInsertPastEndOfFile(t *testing.T) {
	lines := []string{"one", "two", "three"}

	_, err := Apply(lines, ordered(ins(5, "nope")))
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 5, oor.Line)
	assert.Equal(t, 3, oor.Length)
}

func TestInsertMultiLineBlock(t *testing.T) {
	lines := []string{"a", "d"}

	got, err := Apply(lines, ordered(ins(2, "b\nc")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestDeleteExactMatch(t *testing.T) {
	lines := []string{"a", "b", "c"}

	got, err := Apply(lines, ordered(del(2, "b")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestDeleteMultiLineRun(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}

	got, err := Apply(lines, ordered(del(2, "b\nc")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, got)
}

func TestDeleteContentMismatchLeavesInputUntouched(t *testing.T) {
	lines := []string{"a", "b", "c"}

	got, err := Apply(lines, ordered(del(2, "not b")))
	var mismatch *ContentMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "not b", mismatch.Expected)
	assert.Equal(t, "b", mismatch.Actual)
	assert.Equal(t, 2, mismatch.Line)
	assert.Nil(t, got)
	// The caller's slice must be unchanged, no partial splice.
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestDeleteNoWhitespaceNormalization(t *testing.T) {
	lines := []string{"  indented"}

	_, err := Apply(lines, ordered(del(1, "indented")))
	var mismatch *ContentMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDeleteOutOfRange(t *testing.T) {
	lines := []string{"a"}

	for _, line := range []int{0, 2, -3} {
		_, err := Apply(lines, ordered(del(line, "a")))
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor, "line %d", line)
	}
}

func TestDeleteRunPastEndOfFile(t *testing.T) {
	lines := []string{"a", "b"}

	_, err := Apply(lines, ordered(del(2, "b\nc")))
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
}

func TestReplaceLineViaTiedDeleteInsert(t *testing.T) {
	lines := []string{"one", "two", "three", "four", "old", "six"}

	got, err := Apply(lines, ordered(
		del(5, "old"),
		ins(5, "new"),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four", "new", "six"}, got)
}

func TestHighToLowPreservesLowerTargets(t *testing.T) {
	// Inserts at lines 3 and 7 of a 10-line file: the line-7 insert
	// runs first, so the line-3 insert still lands where authored.
	lines := []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8", "l9", "l10"}

	got, err := Apply(lines, ordered(
		ins(3, "inserted-at-3"),
		ins(7, "inserted-at-7"),
	))
	require.NoError(t, err)

	want := []string{
		"l1", "l2", "inserted-at-3", "l3", "l4", "l5", "l6",
		"inserted-at-7", "l7", "l8", "l9", "l10",
	}
	assert.Equal(t, want, got)
	assert.Len(t, got, 12)
}

func TestGroupAbortsAtFirstFailure(t *testing.T) {
	lines := []string{"a", "b", "c"}

	// The line-3 delete mismatches; the line-1 insert must not run.
	got, err := Apply(lines, ordered(
		ins(1, "header"),
		del(3, "wrong"),
	))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestEmptyGroupIsIdentity(t *testing.T) {
	lines := []string{"a"}

	got, err := Apply(lines, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestInsertIntoEmptyFile(t *testing.T) {
	got, err := Apply([]string{}, ordered(ins(1, "first")))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, got)
}

func TestNonLineDirectiveRejected(t *testing.T) {
	_, err := Apply([]string{"a"}, []directive.Directive{
		{Action: directive.ActionCreate, File: "f.go", Content: "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a line directive")
}
