// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package placeholder renders templates that carry {{NAME}} substitution
// points.
//
// A placeholder is "{{" NAME "}}" with no inner whitespace, where NAME is an
// identifier ([A-Za-z_][A-Za-z0-9_]*). Everything else is copied through
// unchanged, so framework interpolation such as Vue's "{{ msg }}" or Go's
// "{{.Name}}" survives rendering. The sequences {{ '{{' }} and {{ '}}' }}
// render as literal "{{" and "}}" for templates that need a bare
// {{name}} in their output.
//
// Rendering is strict: a placeholder without a value is an error, and the
// batch form checks every template before producing any output.
package placeholder

import (
	"fmt"
	"sort"
	"strings"
)

const (
	openDelim   = "{{"
	closeDelim  = "}}"
	escapeOpen  = "{{ '{{' }}"
	escapeClose = "{{ '}}' }}"
)

// Vars maps placeholder names to their values.
type Vars map[string]string

// Template is a named template body.
type Template struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// Rendered is a template body after substitution.
type Rendered struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// MissingError reports placeholders that have no value. Keys is sorted;
// Templates maps each key to the templates that reference it, in the order
// the templates were supplied.
type MissingError struct {
	Keys      []string
	Templates map[string][]string
}

func (e *MissingError) Error() string {
	parts := make([]string, 0, len(e.Keys))
	for _, k := range e.Keys {
		where := e.Templates[k]
		if len(where) == 0 {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (in %s)", k, strings.Join(where, ", ")))
	}
	return "unresolved placeholder(s): " + strings.Join(parts, "; ")
}

// segment is either literal text or a placeholder reference.
type segment struct {
	text string
	key  string
}

// parse splits content into literal and placeholder segments.
func parse(content string) []segment {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(content); {
		rest := content[i:]
		switch {
		case strings.HasPrefix(rest, escapeOpen):
			lit.WriteString(openDelim)
			i += len(escapeOpen)
		case strings.HasPrefix(rest, escapeClose):
			lit.WriteString(closeDelim)
			i += len(escapeClose)
		case strings.HasPrefix(rest, openDelim):
			n := identLen(rest[len(openDelim):])
			if n > 0 && strings.HasPrefix(rest[len(openDelim)+n:], closeDelim) {
				flush()
				segs = append(segs, segment{key: rest[len(openDelim) : len(openDelim)+n]})
				i += len(openDelim) + n + len(closeDelim)
				continue
			}
			lit.WriteString(openDelim)
			i += len(openDelim)
		default:
			lit.WriteByte(content[i])
			i++
		}
	}
	flush()
	return segs
}

// identLen returns the length of the identifier at the start of s.
func identLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return i
		}
	}
	return len(s)
}

// ValidName reports whether name can appear inside a placeholder.
func ValidName(name string) bool {
	return name != "" && identLen(name) == len(name)
}

// Tokens returns the sorted, de-duplicated placeholder names in content.
func Tokens(content string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range parse(content) {
		if s.key != "" && !seen[s.key] {
			seen[s.key] = true
			keys = append(keys, s.key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Render substitutes every placeholder in content in a single pass. Values
// are inserted verbatim and never re-scanned. If any placeholder lacks a
// value, Render returns a *MissingError and an empty string.
func Render(name, content string, vars Vars) (string, error) {
	out, err := RenderAll([]Template{{Name: name, Content: content}}, vars)
	if err != nil {
		return "", err
	}
	return out[0].Content, nil
}

// Check verifies that vars supplies every placeholder referenced by
// templates. The returned error, if any, is a *MissingError covering all
// templates.
func Check(templates []Template, vars Vars) error {
	_, err := check(templates, vars)
	return err
}

func check(templates []Template, vars Vars) ([][]segment, error) {
	parsed := make([][]segment, len(templates))
	missing := make(map[string][]string)

	for i, t := range templates {
		parsed[i] = parse(t.Content)
		noted := make(map[string]bool)
		for _, s := range parsed[i] {
			if s.key == "" || noted[s.key] {
				continue
			}
			if _, ok := vars[s.key]; !ok {
				noted[s.key] = true
				missing[s.key] = append(missing[s.key], t.Name)
			}
		}
	}

	if len(missing) == 0 {
		return parsed, nil
	}
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, &MissingError{Keys: keys, Templates: missing}
}

// RenderAll renders a set of templates with one variable map. Every template
// is checked before any is rendered: either all succeed or none is returned.
// Output order matches input order.
func RenderAll(templates []Template, vars Vars) ([]Rendered, error) {
	parsed, err := check(templates, vars)
	if err != nil {
		return nil, err
	}

	out := make([]Rendered, len(templates))
	for i, t := range templates {
		var b strings.Builder
		b.Grow(len(t.Content))
		for _, s := range parsed[i] {
			if s.key != "" {
				b.WriteString(vars[s.key])
			} else {
				b.WriteString(s.text)
			}
		}
		out[i] = Rendered{Name: t.Name, Content: b.String()}
	}
	return out, nil
}
