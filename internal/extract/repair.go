package extract

import "strings"

// repairSpan normalizes the quoting and comma sloppiness language
// models produce before a span is handed to encoding/json. Each pass
// is string-aware so content inside proper double-quoted strings is
// never touched. A span the pipeline cannot salvage simply fails to
// parse and is skipped by the caller.
func repairSpan(s string) string {
	s = strings.TrimSpace(s)
	s = normalizeQuotes(s)
	s = quoteBareKeys(s)
	s = stripTrailingCommas(s)
	s = unescapeStructural(s)
	s = trimTrailingJunk(s)
	return s
}

// normalizeQuotes rewrites single-quoted strings ('hi' or 'it\'s') as
// double-quoted JSON strings, escaping any embedded double quotes.
func normalizeQuotes(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inDouble := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inDouble {
			out.WriteByte(b)
			if escape {
				escape = false
			} else if b == '\\' {
				escape = true
			} else if b == '"' {
				inDouble = false
			}
			continue
		}

		if b == '"' {
			inDouble = true
			out.WriteByte(b)
			continue
		}

		if b != '\'' {
			out.WriteByte(b)
			continue
		}

		// Single-quoted string: find its end, honoring \' escapes.
		end := -1
		for j := i + 1; j < len(s); j++ {
			if s[j] == '\\' {
				j++
				continue
			}
			if s[j] == '\'' {
				end = j
				break
			}
		}
		if end == -1 {
			out.WriteByte(b)
			continue
		}

		body := s[i+1 : end]
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `"`, `\"`)
		out.WriteByte('"')
		out.WriteString(body)
		out.WriteByte('"')
		i = end
	}

	return out.String()
}

// quoteBareKeys wraps unquoted object keys ({action: ...}) in double
// quotes. Keys are identifiers immediately following '{' or ',' and
// followed by ':'.
func quoteBareKeys(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)

	inString := false
	escape := false
	expectKey := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inString {
			out.WriteByte(b)
			if escape {
				escape = false
			} else if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch {
		case b == '"':
			inString = true
			expectKey = false
			out.WriteByte(b)

		case b == '{' || b == ',':
			expectKey = true
			out.WriteByte(b)

		case expectKey && isIdentByte(b):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			k := j
			for k < len(s) && (s[k] == ' ' || s[k] == '\t' || s[k] == '\n' || s[k] == '\r') {
				k++
			}
			if k < len(s) && s[k] == ':' {
				out.WriteByte('"')
				out.WriteString(s[i:j])
				out.WriteByte('"')
			} else {
				out.WriteString(s[i:j])
			}
			i = j - 1
			expectKey = false

		default:
			if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
				expectKey = false
			}
			out.WriteByte(b)
		}
	}

	return out.String()
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket or brace, a construct encoding/json rejects.
func stripTrailingCommas(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inString {
			out.WriteByte(b)
			if escape {
				escape = false
			} else if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			out.WriteByte(b)
			continue
		}

		if b == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}

		out.WriteByte(b)
	}

	return out.String()
}

// unescapeStructural converts literal \n and \t sequences the model
// emitted outside of any real JSON string into actual whitespace.
// Inside strings they are legitimate escapes and stay untouched.
func unescapeStructural(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if inString {
			out.WriteByte(b)
			if escape {
				escape = false
			} else if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			out.WriteByte(b)
			continue
		}

		if b == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				out.WriteByte('\n')
				i++
				continue
			case 't':
				out.WriteByte('\t')
				i++
				continue
			}
		}

		out.WriteByte(b)
	}

	return out.String()
}

// trimTrailingJunk drops stray text after the last structural
// character, e.g. a model signing off after the closing bracket.
func trimTrailingJunk(s string) string {
	end := strings.LastIndexAny(s, "]}")
	if end == -1 {
		return s
	}
	return s[:end+1]
}
