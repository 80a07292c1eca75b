package apply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"redline/internal/directive"
	"redline/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ins(file string, line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionInsert, File: file, Line: line, Code: code}
}

func del(file string, line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionDelete, File: file, Line: line, Code: code}
}

func create(file, content string) directive.Directive {
	return directive.Directive{Action: directive.ActionCreate, File: file, Content: content}
}

func deleteFile(file string) directive.Directive {
	return directive.Directive{Action: directive.ActionDeleteFile, File: file}
}

func TestBatchModifyGroup(t *testing.T) {
	st := store.NewMemory()
	st.Seed("main.go", "package main\n\nfunc main() {}\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		ins("main.go", 3, "// entry point"),
	})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.NotEmpty(t, results[0].Commit)

	content, ok := st.Content("main.go")
	require.True(t, ok)
	assert.Equal(t, "package main\n\n// entry point\nfunc main() {}\n", content)
}

func TestBatchReplaceLine(t *testing.T) {
	st := store.NewMemory()
	st.Seed("f.txt", "one\ntwo\nthree\nfour\nold\nsix\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		del("f.txt", 5, "old"),
		ins("f.txt", 5, "new"),
	})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	content, _ := st.Content("f.txt")
	assert.Equal(t, "one\ntwo\nthree\nfour\nnew\nsix\n", content)
}

func TestBatchMismatchWritesNothing(t *testing.T) {
	st := store.NewMemory()
	st.Seed("f.txt", "a\nb\nc\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		ins("f.txt", 1, "header"),
		del("f.txt", 2, "not-b"),
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "content mismatch")

	// The whole group aborted; the file is untouched.
	content, _ := st.Content("f.txt")
	assert.Equal(t, "a\nb\nc\n", content)
}

func TestBatchMacroOrderScenario(t *testing.T) {
	// delete_file b.txt runs first, then the modify group for the
	// not-yet-existing a.txt fails, then create a.txt succeeds.
	st := store.NewMemory()
	st.Seed("b.txt", "bye\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		deleteFile("b.txt"),
		create("a.txt", "x"),
		ins("a.txt", 1, "y"),
	})

	require.Len(t, results, 3)

	assert.Equal(t, directive.ActionDeleteFile, results[0].Action)
	assert.True(t, results[0].Success)

	assert.Equal(t, directive.ActionInsert, results[1].Action)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not found")

	assert.Equal(t, directive.ActionCreate, results[2].Action)
	assert.True(t, results[2].Success)
	assert.Equal(t, "created", results[2].Message)

	_, stillThere := st.Content("b.txt")
	assert.False(t, stillThere)
	content, ok := st.Content("a.txt")
	require.True(t, ok)
	assert.Equal(t, "x", content)
}

func TestBatchCreateDegradesToUpdate(t *testing.T) {
	st := store.NewMemory()
	st.Seed("exists.txt", "old content\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		create("exists.txt", "new content\n"),
	})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "updated (already existed)", results[0].Message)

	content, _ := st.Content("exists.txt")
	assert.Equal(t, "new content\n", content)
}

func TestBatchDeleteFileMissingIsFailure(t *testing.T) {
	st := store.NewMemory()

	results := New(st).Batch(context.Background(), []directive.Directive{
		deleteFile("ghost.txt"),
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "not found")
}

func TestBatchIndependentFilesIsolateFailure(t *testing.T) {
	st := store.NewMemory()
	st.Seed("good.txt", "a\nb\n")
	st.Seed("bad.txt", "x\n")

	results := New(st).Batch(context.Background(), []directive.Directive{
		ins("good.txt", 3, "c"),
		del("bad.txt", 5, "nope"),
	})

	require.Len(t, results, 2)

	byFile := map[string]directive.OperationResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	assert.True(t, byFile["good.txt"].Success)
	assert.False(t, byFile["bad.txt"].Success)

	content, _ := st.Content("good.txt")
	assert.Equal(t, "a\nb\nc\n", content)
}

func TestBatchEmpty(t *testing.T) {
	st := store.NewMemory()

	results := New(st).Batch(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBatchVersionConflictSurfaces(t *testing.T) {
	st := store.NewMemory()
	st.Seed("f.txt", "a\n")

	conflicting := &conflictStore{Memory: st}

	results := New(conflicting).Batch(context.Background(), []directive.Directive{
		ins("f.txt", 2, "b"),
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "version conflict")
}

// conflictStore simulates a concurrent writer landing between the
// snapshot fetch and the preconditioned write.
type conflictStore struct {
	*store.Memory
}

func (c *conflictStore) Put(ctx context.Context, path, content, sha string) (string, error) {
	c.Memory.Seed(path, "changed behind your back\n")
	return c.Memory.Put(ctx, path, content, sha)
}
