package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// errFormat marks a template that cannot be parsed.
var errFormat = errors.New("malformed template")

// MissingKeyError reports a template field with no value in the context.
// Token is the exact placeholder text, braces included.
type MissingKeyError struct {
	Key   string
	Token string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("template key %q is not defined", e.Key)
}

var specPattern = regexp.MustCompile(`^(0?)(\d*)([ds]?)$`)

// Format substitutes {key} and {key:spec} fields of tmpl from values.
// "{{" and "}}" produce literal braces. Specs follow [0][width][d|s].
func Format(tmpl string, values map[string]any) (string, error) {
	var b strings.Builder

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]

		switch c {
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", errFormat, i)
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", errFormat, i)
			}

			token := tmpl[i : i+end+1]
			s, err := field(token, values)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += end
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

func field(token string, values map[string]any) (string, error) {
	body := token[1 : len(token)-1]
	key, spec, _ := strings.Cut(body, ":")

	if key == "" || strings.ContainsRune(key, '{') {
		return "", fmt.Errorf("%w: bad field %s", errFormat, token)
	}

	v, ok := values[key]
	if !ok {
		return "", &MissingKeyError{Key: key, Token: token}
	}

	return formatValue(v, spec, token)
}

func formatValue(v any, spec, token string) (string, error) {
	if spec == "" {
		return fmt.Sprint(v), nil
	}

	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return "", fmt.Errorf("%w: unsupported format spec in %s", errFormat, token)
	}
	pad, width, verb := m[1], m[2], m[3]

	switch val := v.(type) {
	case int:
		if verb == "s" {
			return "", fmt.Errorf("%w: %s formats an integer as a string", errFormat, token)
		}
		return fmt.Sprintf("%"+pad+width+"d", val), nil
	case string:
		if verb == "d" || pad != "" {
			return "", fmt.Errorf("%w: %s formats a string as a number", errFormat, token)
		}
		return fmt.Sprintf("%-"+width+"s", val), nil
	default:
		return fmt.Sprint(v), nil
	}
}
