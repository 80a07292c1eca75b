// Package schedule fixes the execution order of a validated directive
// batch. Ordering is the load-bearing part of batch application:
//
// Macro order (across action kinds):
//  1. delete_file directives run first - never patch a file that is
//     about to be removed.
//  2. insert/delete directives, grouped per target file; each group
//     is applied as an atomic unit.
//  3. create directives run last, so a create targeting a path also
//     touched by a modify group in the same batch always wins and
//     never races the patch.
//
// Micro order (within one file's modify group): line numbers are
// authored against the pre-batch file content, so directives are
// sorted by line descending - mutating from the bottom up means no
// earlier directive ever shifts a later directive's target. Ties run
// delete before insert, which is exactly "replace this line".
package schedule

import (
	"sort"

	"redline/internal/directive"
)

// Plan is a fully ordered batch ready for execution.
type Plan struct {
	FileDeletes []directive.Directive
	ModifyOrder []string // file order for Modifies, first-seen order
	Modifies    map[string][]directive.Directive
	Creates     []directive.Directive
}

// Build partitions and orders a validated batch. The input slice is
// not modified.
func Build(batch []directive.Directive) Plan {
	plan := Plan{Modifies: make(map[string][]directive.Directive)}

	for _, d := range batch {
		switch d.Action {
		case directive.ActionDeleteFile:
			plan.FileDeletes = append(plan.FileDeletes, d)
		case directive.ActionCreate:
			plan.Creates = append(plan.Creates, d)
		case directive.ActionInsert, directive.ActionDelete:
			if _, seen := plan.Modifies[d.File]; !seen {
				plan.ModifyOrder = append(plan.ModifyOrder, d.File)
			}
			plan.Modifies[d.File] = append(plan.Modifies[d.File], d)
		}
	}

	for file, group := range plan.Modifies {
		sortGroup(group)
		plan.Modifies[file] = group
	}

	return plan
}

// sortGroup orders one file's modify group: line descending, delete
// before insert on equal lines. The sort must be stable so that two
// directives of the same action on the same line keep their authored
// order.
func sortGroup(group []directive.Directive) {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Line != group[j].Line {
			return group[i].Line > group[j].Line
		}
		return group[i].Action == directive.ActionDelete &&
			group[j].Action == directive.ActionInsert
	})
}

// Size returns the number of surfaced batch items in the plan: one
// per delete_file, one per modify group file, one per create.
func (p Plan) Size() int {
	return len(p.FileDeletes) + len(p.ModifyOrder) + len(p.Creates)
}
