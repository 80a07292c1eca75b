package extract

import "strings"

// findSpans scans text for balanced top-level spans opened by open and
// closed by close ('{'/'}' or '['/']'). It tracks double-quoted
// strings and backslash escapes so that brackets inside string values
// do not terminate a span.
//
// Iterating bytes is safe for the ASCII delimiters involved: UTF-8
// guarantees ASCII bytes never occur inside a multi-byte sequence.
func findSpans(s string, open, close byte) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			continue
		}

		if b == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == close {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return spans
}

// findBareSpans returns every balanced array or object span in order
// of appearance, arrays and objects interleaved by start offset.
func findBareSpans(s string) []string {
	type span struct {
		at   int
		text string
	}
	var all []span

	offset := 0
	for _, t := range findSpans(s, '[', ']') {
		at := indexFrom(s, t, offset)
		all = append(all, span{at: at, text: t})
		offset = at + 1
	}
	offset = 0
	for _, t := range findSpans(s, '{', '}') {
		at := indexFrom(s, t, offset)
		all = append(all, span{at: at, text: t})
		offset = at + 1
	}

	// Insertion sort by offset; span counts are tiny.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].at < all[j-1].at; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	// Objects nested inside an already-captured array add nothing:
	// the array parse will surface them. Drop contained spans.
	var out []string
	lastEnd := -1
	for _, sp := range all {
		if sp.at < lastEnd {
			continue
		}
		out = append(out, sp.text)
		lastEnd = sp.at + len(sp.text)
	}
	return out
}

func indexFrom(s, sub string, from int) int {
	if from < 0 || from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i == -1 {
		return -1
	}
	return from + i
}
