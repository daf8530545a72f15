package eventlog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTemplate is returned when a message template cannot be parsed.
var ErrInvalidTemplate = errors.New("eventlog: invalid template")

type segment struct {
	literal string
	param   int // index into Template.names, -1 for literal segments
}

// Template is a parsed message template. It is immutable after parsing.
type Template struct {
	text     string
	segments []segment
	names    []string
}

// ParseTemplate parses text with {Name} placeholders. "{{" and "}}" escape braces.
// A placeholder name may repeat; repeated names bind to the same argument.
func ParseTemplate(text string) (*Template, error) {
	t := &Template{text: text}
	index := make(map[string]int)
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String(), param: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end <= 0 {
				return nil, fmt.Errorf("%w: unterminated placeholder in %q", ErrInvalidTemplate, text)
			}
			name := text[i+1 : i+1+end]
			if strings.ContainsAny(name, "{ ") {
				return nil, fmt.Errorf("%w: bad placeholder %q", ErrInvalidTemplate, name)
			}
			flush()
			pos, ok := index[name]
			if !ok {
				pos = len(t.names)
				index[name] = pos
				t.names = append(t.names, name)
			}
			t.segments = append(t.segments, segment{param: pos})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("%w: unbalanced '}' in %q", ErrInvalidTemplate, text)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

// MustParseTemplate parses text or panics.
func MustParseTemplate(text string) *Template {
	t, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}

	return t
}

// Text returns the original template text.
func (t *Template) Text() string {
	return t.text
}

// Names returns the placeholder names in first-appearance order.
func (t *Template) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)

	return out
}

// Format renders the template. Missing arguments render as "(null)".
func (t *Template) Format(args ...any) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.param < 0 {
			b.WriteString(seg.literal)

			continue
		}
		if seg.param >= len(args) || args[seg.param] == nil {
			b.WriteString("(null)")

			continue
		}
		fmt.Fprint(&b, args[seg.param])
	}

	return b.String()
}
