// Package apply executes a scheduled directive batch against the
// remote store and collects one OperationResult per surfaced batch
// item. A failure on one item never aborts unrelated items, and there
// is no batch-level transaction: a later phase's failure does not roll
// back an earlier phase's committed writes.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redline/internal/directive"
	"redline/internal/logging"
	"redline/internal/patch"
	"redline/internal/schedule"
	"redline/internal/store"
)

// Runner applies directive batches. It holds no per-batch state;
// concurrent batches operate independently and are not coordinated
// against each other (see DESIGN.md).
type Runner struct {
	store store.Store
}

// New creates a Runner over the given store.
func New(st store.Store) *Runner {
	return &Runner{store: st}
}

// Batch applies a validated directive batch in the fixed macro order:
// file deletions, per-file modify groups, creations. Within one file
// the read-patch-write sequence is strictly sequential so the version
// tag read is the one the write is preconditioned on. Results arrive
// in execution order, one per batch item; an empty batch yields an
// empty list.
func (r *Runner) Batch(ctx context.Context, batch []directive.Directive) []directive.OperationResult {
	timer := logging.StartTimer(logging.CategoryApply, "apply.Batch")
	defer timer.Stop()

	plan := schedule.Build(batch)
	results := make([]directive.OperationResult, 0, plan.Size())

	for _, d := range plan.FileDeletes {
		results = append(results, r.deleteFile(ctx, d))
	}
	for _, file := range plan.ModifyOrder {
		results = append(results, r.modifyFile(ctx, file, plan.Modifies[file]))
	}
	for _, d := range plan.Creates {
		results = append(results, r.createFile(ctx, d))
	}

	logging.Apply("batch done: %d item(s), %d failed", len(results), countFailed(results))
	return results
}

// deleteFile fetches the target to learn its current version tag,
// then issues a preconditioned delete. Fetch failure - including
// not-found - is the directive's failure, never success-by-absence.
func (r *Runner) deleteFile(ctx context.Context, d directive.Directive) directive.OperationResult {
	res := directive.OperationResult{File: d.File, Action: directive.ActionDeleteFile}

	f, err := r.store.Get(ctx, d.File)
	if err != nil {
		res.Error = fmt.Sprintf("fetch before delete failed: %v", err)
		return res
	}

	commit, err := r.store.Delete(ctx, d.File, f.SHA)
	if err != nil {
		res.Error = fmt.Sprintf("delete failed: %v", err)
		return res
	}

	res.Success = true
	res.Commit = commit
	res.Message = "deleted"
	return res
}

// modifyFile runs one file's insert/delete group: fetch a fresh
// snapshot, patch it, write back preconditioned on the snapshot's
// version tag. Any patch failure aborts the whole group with nothing
// written. A stale tag at write time surfaces as a failure and is not
// retried; the caller must re-fetch context and re-issue.
func (r *Runner) modifyFile(ctx context.Context, file string, group []directive.Directive) directive.OperationResult {
	res := directive.OperationResult{File: file, Action: groupAction(group)}

	snapshot, err := r.store.Get(ctx, file)
	if err != nil {
		res.Error = fmt.Sprintf("fetch failed: %v", err)
		return res
	}

	lines, hadTrailingNewline := splitLines(snapshot.Content)
	patched, err := patch.Apply(lines, group)
	if err != nil {
		logging.ApplyWarn("patch group for %s aborted: %v", file, err)
		res.Error = err.Error()
		return res
	}

	commit, err := r.store.Put(ctx, file, joinLines(patched, hadTrailingNewline), snapshot.SHA)
	if err != nil {
		res.Error = fmt.Sprintf("write failed: %v", err)
		return res
	}

	res.Success = true
	res.Commit = commit
	res.Message = fmt.Sprintf("applied %d line edit(s)", len(group))
	return res
}

// createFile creates the target, degrading to an overwrite update when
// the path already exists. Only the store's own not-found signal may
// be read as "does not exist"; any other fetch failure is the
// directive's failure.
func (r *Runner) createFile(ctx context.Context, d directive.Directive) directive.OperationResult {
	res := directive.OperationResult{File: d.File, Action: directive.ActionCreate}

	existing, err := r.store.Get(ctx, d.File)
	switch {
	case err == nil:
		commit, putErr := r.store.Put(ctx, d.File, d.Content, existing.SHA)
		if putErr != nil {
			res.Error = fmt.Sprintf("overwrite failed: %v", putErr)
			return res
		}
		res.Success = true
		res.Commit = commit
		res.Message = "updated (already existed)"
		return res

	case errors.Is(err, store.ErrNotFound):
		commit, putErr := r.store.Put(ctx, d.File, d.Content, "")
		if putErr != nil {
			res.Error = fmt.Sprintf("create failed: %v", putErr)
			return res
		}
		res.Success = true
		res.Commit = commit
		res.Message = "created"
		return res

	default:
		res.Error = fmt.Sprintf("fetch before create failed: %v", err)
		return res
	}
}

// groupAction labels a modify group's result with the group's single
// action kind; mixed groups are labeled insert, the action that
// determines the file's final content.
func groupAction(group []directive.Directive) directive.Action {
	action := directive.ActionInsert
	for i, d := range group {
		if i == 0 {
			action = d.Action
		} else if d.Action != action {
			return directive.ActionInsert
		}
	}
	return action
}

// splitLines maps file content to the engine's line model. A single
// trailing newline is file-final punctuation, not an empty last line;
// it is stripped here and restored by joinLines so line numbers stay
// faithful to what an editor shows.
func splitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}
	hadTrailingNewline := strings.HasSuffix(content, "\n")
	if hadTrailingNewline {
		content = strings.TrimSuffix(content, "\n")
	}
	return strings.Split(content, "\n"), hadTrailingNewline
}

func joinLines(lines []string, trailingNewline bool) string {
	out := strings.Join(lines, "\n")
	if trailingNewline && out != "" {
		out += "\n"
	}
	return out
}

func countFailed(results []directive.OperationResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
