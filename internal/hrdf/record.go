package hrdf

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// Record structs describe their column layout with tags of the form
//
//	`hrdf:"name,start,end[,optional][,lenient]"`
//
// Columns count grapheme clusters, start inclusive and end exclusive.
// optional: an empty slice leaves the zero value instead of failing.
// lenient: a value that fails to parse leaves the zero value.
type field struct {
	name     string
	index    int
	start    int
	end      int
	optional bool
	lenient  bool
}

var schemas sync.Map // reflect.Type -> []field

func schemaOf(typ reflect.Type) []field {
	if s, ok := schemas.Load(typ); ok {
		return s.([]field)
	}
	var fields []field
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("hrdf")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		if len(parts) < 3 {
			panic(fmt.Sprintf("hrdf: malformed tag %q on %s.%s", tag, typ.Name(), typ.Field(i).Name))
		}
		start, err1 := strconv.Atoi(parts[1])
		end, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || start > end {
			panic(fmt.Sprintf("hrdf: bad column range in tag %q", tag))
		}
		f := field{name: parts[0], index: i, start: start, end: end}
		for _, opt := range parts[3:] {
			switch opt {
			case "optional":
				f.optional = true
			case "lenient":
				f.lenient = true
			}
		}
		fields = append(fields, f)
	}
	schemas.Store(typ, fields)
	return fields
}

// Decode parses one line into a record of type T.
func Decode[T any](line string) (T, error) {
	var rec T
	err := DecodeInto(line, &rec)
	return rec, err
}

// DecodeInto fills the struct pointed to by out from line. Any field that
// fails to parse rejects the whole record with a *DecodeError.
func DecodeInto(line string, out any) error {
	v := reflect.ValueOf(out).Elem()
	cols := columnsOf(line)
	for _, f := range schemaOf(v.Type()) {
		text := strings.TrimSpace(cols.slice(f.start, f.end))
		if text == "" && f.optional {
			continue
		}
		if err := setField(v.Field(f.index), text); err != nil {
			if f.lenient {
				v.Field(f.index).SetZero()
				continue
			}
			return &DecodeError{Field: f.name, Text: text, Err: err}
		}
	}
	return nil
}

func setField(fv reflect.Value, text string) error {
	if u, ok := fv.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(text))
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(text)
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64, reflect.Float32:
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(x)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// columns is a line split into grapheme clusters. For pure ASCII lines the
// clusters are the bytes themselves and no split is stored.
type columns struct {
	line     string
	clusters []string
}

func columnsOf(line string) columns {
	ascii := true
	for i := 0; i < len(line); i++ {
		if line[i] >= 0x80 || line[i] == '\r' {
			ascii = false
			break
		}
	}
	if ascii {
		return columns{line: line}
	}
	var cl []string
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		cl = append(cl, g.Str())
	}
	return columns{line: line, clusters: cl}
}

func (c columns) len() int {
	if c.clusters == nil {
		return len(c.line)
	}
	return len(c.clusters)
}

// slice returns the clusters in [start, min(end, len)).
func (c columns) slice(start, end int) string {
	end = min(end, c.len())
	if start >= end {
		return ""
	}
	if c.clusters == nil {
		return c.line[start:end]
	}
	return strings.Join(c.clusters[start:end], "")
}

// At returns the grapheme cluster at column i, or "" past the end of line.
func At(line string, i int) string {
	return columnsOf(line).slice(i, i+1)
}

// Render writes the fields of rec back into their column layout, left
// aligned and space padded. Values wider than their column are cut.
func Render(rec any) string {
	v := reflect.Indirect(reflect.ValueOf(rec))
	fields := schemaOf(v.Type())
	width := 0
	for _, f := range fields {
		width = max(width, f.end)
	}
	out := make([]string, width)
	for i := range out {
		out[i] = " "
	}
	for _, f := range fields {
		text := formatField(v.Field(f.index))
		var cl []string
		g := uniseg.NewGraphemes(text)
		for g.Next() {
			cl = append(cl, g.Str())
		}
		for i := 0; i < len(cl) && f.start+i < f.end; i++ {
			out[f.start+i] = cl[i]
		}
	}
	return strings.TrimRight(strings.Join(out, ""), " ")
}

func formatField(fv reflect.Value) string {
	if m, ok := fv.Interface().(encoding.TextMarshaler); ok {
		b, err := m.MarshalText()
		if err != nil {
			return ""
		}
		return string(b)
	}
	switch fv.Kind() {
	case reflect.String:
		return fv.String()
	case reflect.Int, reflect.Int64, reflect.Int32:
		return strconv.FormatInt(fv.Int(), 10)
	case reflect.Float64, reflect.Float32:
		return strconv.FormatFloat(fv.Float(), 'f', -1, 64)
	}
	return ""
}
