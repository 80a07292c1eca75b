package extract

import (
	"encoding/json"
	"testing"
)

func TestRepairSpan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "well_formed_untouched",
			input: `{"a": "b"}`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "trailing_comma_object",
			input: `{"a": "b",}`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "trailing_comma_array",
			input: `["a", "b", ]`,
			want:  `["a", "b" ]`,
		},
		{
			name:  "unquoted_keys",
			input: `{action: "create", file: "a.txt"}`,
			want:  `{"action": "create", "file": "a.txt"}`,
		},
		{
			name:  "single_quoted_values",
			input: `{"a": 'hi'}`,
			want:  `{"a": "hi"}`,
		},
		{
			name:  "single_quoted_with_escape",
			input: `{"a": 'it\'s'}`,
			want:  `{"a": "it's"}`,
		},
		{
			name:  "single_quoted_with_double_quote",
			input: `{"a": 'say "hi"'}`,
			want:  `{"a": "say \"hi\""}`,
		},
		{
			name:  "literal_newline_between_fields",
			input: "{\"a\": \"b\",\\n\"c\": \"d\"}",
			want:  "{\"a\": \"b\",\n\"c\": \"d\"}",
		},
		{
			name:  "escapes_inside_strings_kept",
			input: `{"code": "line1\nline2"}`,
			want:  `{"code": "line1\nline2"}`,
		},
		{
			name:  "trailing_prose_trimmed",
			input: `{"a": "b"} Hope this helps!`,
			want:  `{"a": "b"}`,
		},
		{
			name:  "comma_inside_string_kept",
			input: `{"a": "b,}"}`,
			want:  `{"a": "b,}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairSpan(tt.input)
			if got != tt.want {
				t.Errorf("repairSpan(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairSpanProducesValidJSON(t *testing.T) {
	inputs := []string{
		`[{action:'create', file:"a.txt", content:'hi',}]`,
		`{action: 'insert', file: 'x.go', line: 2, code: 'y := 1',}`,
		"[\\n{\"action\": \"delete_file\", \"file\": \"a\"}\\n]",
	}
	for _, in := range inputs {
		repaired := repairSpan(in)
		var v interface{}
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			t.Errorf("repairSpan(%q) = %q, still invalid: %v", in, repaired, err)
		}
	}
}

func TestFindSpans(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  byte
		close byte
		want  []string
	}{
		{
			name: "simple_object", input: `x {"k": "v"} y`, open: '{', close: '}',
			want: []string{`{"k": "v"}`},
		},
		{
			name: "nested_object", input: `{"a": {"b": 1}}`, open: '{', close: '}',
			want: []string{`{"a": {"b": 1}}`},
		},
		{
			name: "brace_in_string", input: `{"k": "} inside"}`, open: '{', close: '}',
			want: []string{`{"k": "} inside"}`},
		},
		{
			name: "array_of_objects", input: `see [{"a": 1}, {"b": 2}] there`, open: '[', close: ']',
			want: []string{`[{"a": 1}, {"b": 2}]`},
		},
		{
			name: "unclosed", input: `{"a": 1`, open: '{', close: '}',
			want: nil,
		},
		{
			name: "stray_close_first", input: `} {"a": 1}`, open: '{', close: '}',
			want: []string{`{"a": 1}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findSpans(tt.input, tt.open, tt.close)
			if len(got) != len(tt.want) {
				t.Fatalf("findSpans = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
