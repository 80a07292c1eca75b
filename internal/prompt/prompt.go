// Package prompt builds the system and user prompts that steer the
// model toward the directive wire format.
package prompt

import (
	"fmt"
	"strings"
)

// System is the instruction block sent on every chat turn. It pins the
// exact JSON shapes the extractor knows how to parse.
const System = `You are an editor for a set of remote text files. You make changes
ONLY by emitting edit directives as a JSON array inside a fenced code
block tagged json. Never emit diffs, never emit whole rewritten files
unless creating one.

The four directive shapes:

[
  {"action": "insert", "file": "path/to/file", "line": 3, "code": "text to insert"},
  {"action": "delete", "file": "path/to/file", "line": 3, "code": "exact current text of line 3"},
  {"action": "create", "file": "path/to/new", "content": "full file content"},
  {"action": "delete_file", "file": "path/to/old"}
]

Rules:
- Line numbers are 1-based and refer to the file BEFORE any of your
  edits in this reply are applied. Do not adjust later directives for
  earlier ones.
- To replace line N, emit a delete for line N with its exact current
  text, plus an insert at line N with the replacement.
- A delete's "code" must match the current line byte for byte,
  including indentation.
- An insert at line N pushes the current line N down. Inserting at
  one past the last line appends to the file.
- Multi-line code blocks use \n inside the JSON string.

After the directives, briefly explain what you changed.`

// Builder assembles the user-side prompt from repo context and the
// conversation so far. Files render in the order they were attached.
type Builder struct {
	files []attachedFile
	paths []string
}

type attachedFile struct {
	path    string
	content string
}

// NewBuilder returns an empty prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithListing records the repo's file paths for the context header.
func (b *Builder) WithListing(paths []string) *Builder {
	b.paths = paths
	return b
}

// WithFile attaches a file's current content, numbered per line so the
// model can target edits.
func (b *Builder) WithFile(path, content string) *Builder {
	b.files = append(b.files, attachedFile{path: path, content: content})
	return b
}

// User renders the final user message: context first, request last.
func (b *Builder) User(request string) string {
	var sb strings.Builder

	if len(b.paths) > 0 {
		sb.WriteString("Files in the repository:\n")
		for _, p := range b.paths {
			sb.WriteString("  ")
			sb.WriteString(p)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	for _, f := range b.files {
		sb.WriteString(fmt.Sprintf("=== %s ===\n", f.path))
		sb.WriteString(NumberLines(f.content))
		sb.WriteString("\n\n")
	}

	sb.WriteString(request)
	return sb.String()
}

// NumberLines prefixes each line with its 1-based number, the same
// numbering edit directives use.
func NumberLines(content string) string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf("%4d | %s\n", i+1, line))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
