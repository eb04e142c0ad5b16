package pipe

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
)

// dictTemplate builds a per-element mapping: every template value is
// evaluated against the element and inserted under the same key into a
// freshly built map. Values may be placeholder expressions, functions, or
// plain literals.
func dictTemplate(tmpl map[string]any) expr.Fn {
	compiled := make(map[string]expr.Fn, len(tmpl))
	literals := make(map[string]any)
	for k, v := range tmpl {
		f, _, err := callable(v)
		if err != nil {
			// Not a recognized callable shape: treat as a literal value.
			literals[k] = v
			continue
		}
		if _, isString := v.(string); isString {
			// Strings inside a dictionary template stay literal; nested
			// string templates would be ambiguous with plain text.
			literals[k] = v
			continue
		}
		compiled[k] = f
	}
	return func(x any) (any, error) {
		out := make(map[string]any, len(compiled)+len(literals))
		for k, v := range literals {
			out[k] = v
		}
		for k, f := range compiled {
			v, err := f(x)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
}

// templateField is one {name:spec} reference inside a string template.
type templateField struct {
	name string
	spec string
}

// templatePart is a literal run or a field reference.
type templatePart struct {
	literal string
	field   *templateField
}

// stringTemplate substitutes {field} references with values looked up on
// the element, applying the optional format specifier. Doubled braces
// escape literal braces. Applying a field-bearing template to a plain
// string fails with a template error, since an already-interpolated string
// carries no per-element structure.
func stringTemplate(tmpl string) expr.Fn {
	parts, err := parseTemplate(tmpl)
	if err != nil {
		return func(any) (any, error) { return nil, err }
	}
	hasFields := false
	for _, p := range parts {
		if p.field != nil {
			hasFields = true
			break
		}
	}
	return func(x any) (any, error) {
		if hasFields {
			if _, isString := x.(string); isString {
				return nil, errors.Template("cannot interpolate fields into a plain string element")
			}
		}
		var b strings.Builder
		for _, p := range parts {
			if p.field == nil {
				b.WriteString(p.literal)
				continue
			}
			v, err := fieldValue(x, p.field.name)
			if err != nil {
				return nil, err
			}
			s, err := formatValue(v, p.field.spec)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	}
}

func parseTemplate(tmpl string) ([]templatePart, error) {
	var parts []templatePart
	var lit strings.Builder
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, errors.Template("unbalanced '{' in template")
			}
			ref := tmpl[i+1 : i+end]
			name, spec := ref, ""
			if colon := strings.IndexByte(ref, ':'); colon >= 0 {
				name, spec = ref[:colon], ref[colon+1:]
			}
			if name == "" {
				return nil, errors.Template("empty field name in template")
			}
			if lit.Len() > 0 {
				parts = append(parts, templatePart{literal: lit.String()})
				lit.Reset()
			}
			parts = append(parts, templatePart{field: &templateField{name: name, spec: spec}})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, errors.Template("unbalanced '}' in template")
		default:
			lit.WriteByte(c)
			i++
		}
	}
	if lit.Len() > 0 {
		parts = append(parts, templatePart{literal: lit.String()})
	}
	return parts, nil
}

// fieldValue resolves a template field name against the element: map keys
// first, then exported struct fields.
func fieldValue(x any, name string) (any, error) {
	switch m := x.(type) {
	case map[string]any:
		v, ok := m[name]
		if !ok {
			return nil, errors.MissingKey(name)
		}
		return v, nil
	case map[any]any:
		v, ok := m[name]
		if !ok {
			return nil, errors.MissingKey(name)
		}
		return v, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Map {
		mv := rv.MapIndex(reflect.ValueOf(name))
		if mv.IsValid() {
			return mv.Interface(), nil
		}
		return nil, errors.MissingKey(name)
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.MissingAttr(name, x)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		fv := rv.FieldByName(name)
		if fv.IsValid() && fv.CanInterface() {
			return fv.Interface(), nil
		}
		return nil, errors.MissingAttr(name, x)
	}
	return nil, errors.Template(fmt.Sprintf("cannot resolve template fields on %T", x))
}

// formatValue applies a format specifier: "" for default rendering, ".Nf"
// for fixed decimals, "d" for integers, "s" for strings.
func formatValue(v any, spec string) (string, error) {
	switch {
	case spec == "":
		return fmt.Sprintf("%v", v), nil
	case spec == "d":
		n, ok := expr.AsInt64(v)
		if !ok {
			return "", errors.Template(fmt.Sprintf("format 'd' requires an integer, got %T", v))
		}
		return strconv.FormatInt(n, 10), nil
	case spec == "s":
		return fmt.Sprintf("%v", v), nil
	case strings.HasPrefix(spec, ".") && strings.HasSuffix(spec, "f"):
		digits, err := strconv.Atoi(spec[1 : len(spec)-1])
		if err != nil || digits < 0 {
			return "", errors.Template(fmt.Sprintf("invalid format specifier %q", spec))
		}
		f, ok := expr.AsFloat64(v)
		if !ok {
			return "", errors.Template(fmt.Sprintf("format %q requires a number, got %T", spec, v))
		}
		return strconv.FormatFloat(f, 'f', digits, 64), nil
	}
	return "", errors.Template(fmt.Sprintf("unsupported format specifier %q", spec))
}
