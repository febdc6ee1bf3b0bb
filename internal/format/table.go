package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// WriteTable renders the "data" of an envelope (or v itself) as a text table.
// Lists of objects get one row per element, objects get key/value rows and
// anything else is printed as is.
func WriteTable(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	if m, ok := x.(map[string]any); ok {
		if d, ok := m["data"]; ok && len(m) == 1 {
			x = d
		}
	}

	var out string
	switch t := x.(type) {
	case []any:
		if len(t) == 0 {
			out = "(none)"
			break
		}
		out = listTable(t)
	case map[string]any:
		out = kvTable(t)
	default:
		out = cell(t)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func listTable(xs []any) string {
	cols := columns(xs)
	if len(cols) == 0 {
		t := newTable().Headers("value")
		for _, x := range xs {
			t.Row(cell(x))
		}
		return t.String()
	}
	t := newTable().Headers(cols...)
	for _, x := range xs {
		m, _ := x.(map[string]any)
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = cell(m[c])
		}
		t.Row(row...)
	}
	return t.String()
}

func kvTable(m map[string]any) string {
	t := newTable().Headers("key", "value")
	for _, k := range orderKeys(keysOf(m)) {
		t.Row(k, cell(m[k]))
	}
	return t.String()
}

// columns is the union of object keys across xs, "id" and "name" first.
func columns(xs []any) []string {
	set := map[string]struct{}{}
	for _, x := range xs {
		m, ok := x.(map[string]any)
		if !ok {
			return nil
		}
		for k := range m {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return orderKeys(keys)
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func orderKeys(keys []string) []string {
	rank := func(k string) int {
		switch k {
		case "id":
			return 0
		case "name":
			return 1
		default:
			return 2
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if float64(int64(t)) == t {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		if n, ok := t["name"].(string); ok {
			return n
		}
		parts := make([]string, 0, len(t))
		for _, k := range orderKeys(keysOf(t)) {
			parts = append(parts, k+"="+cell(t[k]))
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, x := range t {
			parts = append(parts, cell(x))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
