package schedule

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"redline/internal/directive"
)

func ins(file string, line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionInsert, File: file, Line: line, Code: code}
}

func del(file string, line int, code string) directive.Directive {
	return directive.Directive{Action: directive.ActionDelete, File: file, Line: line, Code: code}
}

func TestBuildMacroOrder(t *testing.T) {
	batch := []directive.Directive{
		{Action: directive.ActionCreate, File: "new.txt", Content: "x"},
		ins("a.go", 3, "y"),
		{Action: directive.ActionDeleteFile, File: "old.txt"},
		del("b.go", 1, "z"),
	}

	plan := Build(batch)

	if len(plan.FileDeletes) != 1 || plan.FileDeletes[0].File != "old.txt" {
		t.Errorf("FileDeletes = %+v", plan.FileDeletes)
	}
	if diff := cmp.Diff([]string{"a.go", "b.go"}, plan.ModifyOrder); diff != "" {
		t.Errorf("ModifyOrder mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Creates) != 1 || plan.Creates[0].File != "new.txt" {
		t.Errorf("Creates = %+v", plan.Creates)
	}
	if plan.Size() != 4 {
		t.Errorf("Size = %d, want 4", plan.Size())
	}
}

func TestBuildMicroOrderDescending(t *testing.T) {
	batch := []directive.Directive{
		ins("f.go", 3, "low"),
		ins("f.go", 7, "high"),
		ins("f.go", 5, "mid"),
	}

	plan := Build(batch)
	group := plan.Modifies["f.go"]

	want := []int{7, 5, 3}
	for i, w := range want {
		if group[i].Line != w {
			t.Fatalf("group order = %v, want lines %v", lines(group), want)
		}
	}
}

func TestBuildTiedLineDeleteBeforeInsert(t *testing.T) {
	batch := []directive.Directive{
		ins("f.go", 5, "new"),
		del("f.go", 5, "old"),
	}

	plan := Build(batch)
	group := plan.Modifies["f.go"]

	if group[0].Action != directive.ActionDelete || group[1].Action != directive.ActionInsert {
		t.Errorf("tied line order = %v, want delete then insert", actions(group))
	}
}

func TestBuildStableWithinSameLineAndAction(t *testing.T) {
	batch := []directive.Directive{
		ins("f.go", 2, "first"),
		ins("f.go", 2, "second"),
	}

	plan := Build(batch)
	group := plan.Modifies["f.go"]

	if group[0].Code != "first" || group[1].Code != "second" {
		t.Errorf("authored order not preserved: %v", codes(group))
	}
}

func TestBuildEmptyBatch(t *testing.T) {
	plan := Build(nil)
	if plan.Size() != 0 {
		t.Errorf("Size = %d, want 0", plan.Size())
	}
}

func lines(group []directive.Directive) []int {
	out := make([]int, len(group))
	for i, d := range group {
		out[i] = d.Line
	}
	return out
}

func actions(group []directive.Directive) []directive.Action {
	out := make([]directive.Action, len(group))
	for i, d := range group {
		out[i] = d.Action
	}
	return out
}

func codes(group []directive.Directive) []string {
	out := make([]string, len(group))
	for i, d := range group {
		out[i] = d.Code
	}
	return out
}
