package record

import (
	"strconv"
	"strings"
)

// Record is an immutable snapshot of one upstream row. Fields are
// schema-on-read: looked up by name and possibly absent.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

type Fields map[string]any

// String returns the named field as a string and whether it was present
// as one.
func (f Fields) String(name string) (string, bool) {
	v, ok := f[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns the named field as a float64. JSON numbers always decode
// to float64, but a numeric string is accepted too since upstream bases
// are hand-maintained.
func (f Fields) Number(name string) (float64, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func (f Fields) Int(name string) (int, bool) {
	n, ok := f.Number(name)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func (f Fields) List(name string) ([]any, bool) {
	v, ok := f[name]
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

// StringList returns the named list field with every element coerced to a
// string. Numeric elements are formatted; anything else is dropped.
func (f Fields) StringList(name string) ([]string, bool) {
	list, ok := f.List(name)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch e := v.(type) {
		case string:
			out = append(out, e)
		case float64:
			out = append(out, strconv.FormatFloat(e, 'f', -1, 64))
		}
	}
	return out, true
}

// IntList returns the named list field with every element coerced to an
// int, dropping anything non-numeric.
func (f Fields) IntList(name string) ([]int, bool) {
	list, ok := f.List(name)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		switch e := v.(type) {
		case float64:
			out = append(out, int(e))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(e)); err == nil {
				out = append(out, n)
			}
		}
	}
	return out, true
}
