package format

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes the EDN subset our payloads need: maps, vectors, strings, numbers,
// booleans and nil. Map keys become keywords with '_' turned into '-'.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	e := ednWriter{pretty: pretty}
	e.value(x, 0)
	e.buf.WriteByte('\n')
	_, err = w.Write(e.buf.Bytes())
	return err
}

type ednWriter struct {
	buf    bytes.Buffer
	pretty bool
}

func (e *ednWriter) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case string:
		e.buf.WriteString(strconv.Quote(t))
	case float64:
		if float64(int64(t)) == t {
			e.buf.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		e.buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		e.open('[')
		for i, it := range t {
			e.sep(i, level+1)
			e.value(it, level+1)
		}
		e.close(']', len(t), level)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.open('{')
		for i, k := range keys {
			e.sep(i, level+1)
			e.buf.WriteString(keyword(k))
			e.buf.WriteByte(' ')
			e.value(t[k], level+1)
		}
		e.close('}', len(keys), level)
	default:
		e.buf.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func (e *ednWriter) open(c byte) { e.buf.WriteByte(c) }

func (e *ednWriter) sep(i, level int) {
	switch {
	case e.pretty:
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", level))
	case i > 0:
		e.buf.WriteByte(' ')
	}
}

func (e *ednWriter) close(c byte, n, level int) {
	if e.pretty && n > 0 {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", level))
	}
	e.buf.WriteByte(c)
}

func keyword(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	return ":" + s
}
