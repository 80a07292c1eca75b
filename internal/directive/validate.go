package directive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validate checks one raw candidate against the directive schema and
// coerces its fields. It returns a rejection error with a
// human-readable reason instead of panicking; callers are expected to
// log rejections and continue with the rest of the batch.
func Validate(raw RawCandidate) (Directive, error) {
	file, ok := asString(raw["file"])
	if !ok || file == "" {
		return Directive{}, fmt.Errorf("missing or non-string 'file' field")
	}

	actionRaw, _ := asString(raw["action"])
	action := Action(strings.ToLower(strings.TrimSpace(actionRaw)))

	switch action {
	case ActionCreate:
		content, present := raw["content"]
		if !present {
			return Directive{}, fmt.Errorf("create %s: missing 'content' field", file)
		}
		return Directive{Action: ActionCreate, File: file, Content: coerceString(content)}, nil

	case ActionDeleteFile:
		return Directive{Action: ActionDeleteFile, File: file}, nil

	case ActionInsert, ActionDelete:
		line, err := coerceLine(raw["line"])
		if err != nil {
			return Directive{}, fmt.Errorf("%s %s: %w", action, file, err)
		}
		code, present := raw["code"]
		if !present {
			return Directive{}, fmt.Errorf("%s %s: missing 'code' field", action, file)
		}
		return Directive{Action: action, File: file, Line: line, Code: coerceString(code)}, nil

	default:
		return Directive{}, fmt.Errorf("unknown action %q", actionRaw)
	}
}

// ValidateAll validates a whole candidate batch, returning the typed
// directives and one rejection reason per dropped candidate.
func ValidateAll(raws []RawCandidate) ([]Directive, []string) {
	directives := make([]Directive, 0, len(raws))
	var rejections []string
	for _, raw := range raws {
		d, err := Validate(raw)
		if err != nil {
			rejections = append(rejections, err.Error())
			continue
		}
		directives = append(directives, d)
	}
	return directives, rejections
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// coerceString renders any JSON value as the string the author most
// plausibly meant. Numbers lose no precision for integral values.
func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// coerceLine accepts the numeric shapes a JSON parser can produce for
// the 'line' field, plus numeric strings the model sometimes emits.
func coerceLine(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("non-numeric 'line' value %q", t)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("missing 'line' field")
	default:
		return 0, fmt.Errorf("non-numeric 'line' value %v", t)
	}
}
