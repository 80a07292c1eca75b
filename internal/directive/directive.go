// Package directive defines the edit-directive model and the
// validator that turns raw candidate objects recovered from model
// output into fully-typed directives.
package directive

// Action identifies what a directive does to its target file.
type Action string

const (
	ActionInsert     Action = "insert"
	ActionDelete     Action = "delete"
	ActionCreate     Action = "create"
	ActionDeleteFile Action = "delete_file"
)

// Directive is one structured edit instruction. Exactly one variant of
// the union is meaningful per Action:
//
//	insert:      File, Line, Code (Code may span multiple lines)
//	delete:      File, Line, Code (Code is the exact current content)
//	create:      File, Content
//	delete_file: File
//
// Line is a 1-based offset into the pre-batch content of File, scoped
// per file. Directives are created by extraction, validated once,
// consumed exactly once and never persisted.
type Directive struct {
	Action  Action
	File    string
	Line    int
	Code    string
	Content string
}

// RawCandidate is a parsed-but-unvalidated candidate object as it came
// out of the extractor.
type RawCandidate map[string]interface{}

// OperationResult reports the outcome of one surfaced batch item.
// Results are never merged or deduplicated, even when several items
// target the same file.
type OperationResult struct {
	File    string `json:"file"`
	Action  Action `json:"action"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Commit  string `json:"commit,omitempty"`
	Message string `json:"message,omitempty"`
}
