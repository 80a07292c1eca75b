// Package extract recovers edit-directive batches from free-form
// model output. The text may contain prose, fenced code blocks and
// JSON in varying states of disrepair; extraction applies an ordered
// list of (matcher, repairer) strategies and short-circuits on the
// first strategy that yields a shape-valid batch, so overlapping
// patterns never double-count directives.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"redline/internal/directive"
	"redline/internal/logging"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json|JSON)[ \t]*\r?\n(.*?)```")
	fencedAnyPattern  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n(.*?)```")
	bareArrayPattern  = regexp.MustCompile(`(?s)^\s*\[\s*\{`)
)

// strategy locates candidate spans in the text. Strategies run in
// fixed priority order (most explicit first).
type strategy struct {
	name  string
	spans func(text string) []string
}

var strategies = []strategy{
	{name: "fenced_json", spans: func(text string) []string {
		return captureAll(fencedJSONPattern, text)
	}},
	{name: "fenced_any", spans: func(text string) []string {
		return captureAll(fencedAnyPattern, text)
	}},
	{name: "bare_array", spans: func(text string) []string {
		var out []string
		for _, span := range findSpans(text, '[', ']') {
			if bareArrayPattern.MatchString(span) {
				out = append(out, span)
			}
		}
		return out
	}},
	{name: "bare_any", spans: findBareSpans},
}

// Directives extracts every raw directive candidate from text, in
// order of appearance. Spans that fail to parse even after repair are
// skipped; extraction itself never fails.
func Directives(text string) []directive.RawCandidate {
	for _, strat := range strategies {
		var found []directive.RawCandidate
		for _, span := range strat.spans(text) {
			found = append(found, parseSpan(span)...)
		}
		if len(found) > 0 {
			logging.Extract("strategy %s recovered %d candidate(s)", strat.name, len(found))
			return found
		}
	}
	return nil
}

// parseSpan repairs and parses one matched span, returning the
// directive-shaped candidates it contains. Within a parsed array,
// elements that do not look like directives are commentary the model
// interleaved and are silently dropped.
func parseSpan(span string) []directive.RawCandidate {
	repaired := repairSpan(span)

	var arr []map[string]interface{}
	if err := json.Unmarshal([]byte(repaired), &arr); err == nil {
		if len(arr) == 0 || !looksLikeDirective(arr[0]) {
			return nil
		}
		var out []directive.RawCandidate
		for _, el := range arr {
			if looksLikeDirective(el) {
				out = append(out, directive.RawCandidate(el))
			}
		}
		return out
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(repaired), &obj); err == nil {
		if looksLikeDirective(obj) {
			return []directive.RawCandidate{directive.RawCandidate(obj)}
		}
		return nil
	}

	logging.ExtractDebug("span failed to parse after repair: %.80s", strings.TrimSpace(span))
	return nil
}

// looksLikeDirective is the cheap shape check: a candidate must carry
// both an action-like and a file-like field to count as a directive.
func looksLikeDirective(m map[string]interface{}) bool {
	if m == nil {
		return false
	}
	_, hasAction := m["action"]
	_, hasFile := m["file"]
	return hasAction && hasFile
}

func captureAll(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}
