package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoStructuredData indicates the formatted data holds nothing to chart.
var ErrNoStructuredData = errors.New("chart: no structured data")

// colNamesKey lists the column order when present.
const colNamesKey = "col_names"

// Table is column-oriented data reconstructed into rows.
type Table struct {
	Columns []string
	Rows    [][]gjson.Result
}

// StripCodeFence removes a surrounding Markdown code fence, with or without
// a language tag, and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseTable decodes formatted data. Columns come from selected when it
// names at least two, otherwise from the col_names entry, otherwise from
// the object's keys in document order. The first column's length sets the
// row count.
func ParseTable(formatted string, selected []string) (*Table, error) {
	raw := StripCodeFence(formatted)
	if raw == "" || !gjson.Valid(raw) {
		return nil, ErrNoStructuredData
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("chart: formatted data is a JSON %s, not an object", typeName(doc))
	}

	columns := make(map[string]gjson.Result)
	var keys []string
	doc.ForEach(func(k, v gjson.Result) bool {
		name := strings.TrimSpace(k.String())
		if _, dup := columns[name]; !dup {
			keys = append(keys, name)
		}
		columns[name] = v
		return true
	})

	var names []string
	switch {
	case len(selected) >= 2:
		names = selected
	case columns[colNamesKey].Exists():
		for _, n := range columns[colNamesKey].Array() {
			names = append(names, n.String())
		}
	default:
		names = keys
	}
	if len(names) < 2 {
		return nil, ErrNoStructuredData
	}

	cells := make([][]gjson.Result, len(names))
	for i, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, ErrNoStructuredData
		}
		if !col.IsObject() {
			return nil, fmt.Errorf("chart: column %q is a JSON %s, expected an object with values", name, typeName(col))
		}
		values := col.Get("values")
		if !values.Exists() {
			return nil, ErrNoStructuredData
		}
		if !values.IsArray() {
			return nil, fmt.Errorf("chart: values of column %q is a JSON %s, expected an array", name, typeName(values))
		}
		cells[i] = values.Array()
	}

	n := len(cells[0])
	if n == 0 {
		return nil, ErrNoStructuredData
	}
	t := &Table{Columns: names, Rows: make([][]gjson.Result, n)}
	for r := range n {
		row := make([]gjson.Result, len(names))
		for c := range names {
			if r >= len(cells[c]) {
				return nil, ErrNoStructuredData
			}
			row[c] = cells[c][r]
		}
		t.Rows[r] = row
	}
	return t, nil
}

// labels returns column c of every row as category labels.
func (t *Table) labels(c int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if c < len(row) {
			out[i] = label(row[c])
		}
	}
	return out
}

// numbers returns column c of every row coerced with ToFloat.
func (t *Table) numbers(c int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if c < len(row) {
			out[i] = ToFloat(row[c])
		}
	}
	return out
}

func typeName(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	}
	return "value"
}
