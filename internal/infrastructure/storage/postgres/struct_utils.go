package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the "db" tag names of T in field order, descending
// into embedded structs. Fields tagged "-" or untagged are skipped.
//
//	cols := ExtractDBColumns[rbac.Role]()
//	// ["id", "created_at", ..., "name", "description", "is_system_role", "is_active"]
func ExtractDBColumns[T any]() []string {
	var zero T
	return metadataFor(reflect.TypeOf(zero)).columns()
}

// Columns qualifies cols with a table alias.
func Columns(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// Without returns cols minus the excluded names.
func Without(cols []string, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := skip[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

type fieldInfo struct {
	index int
	dbTag string
}

type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
	nested   map[int]*typeMetadata
}

func (m *typeMetadata) columns() []string {
	var cols []string
	fi, ei := 0, 0
	// Preserve declaration order between plain and embedded fields.
	for fi < len(m.fields) || ei < len(m.embedded) {
		if ei < len(m.embedded) && (fi >= len(m.fields) || m.embedded[ei] < m.fields[fi].index) {
			cols = append(cols, m.nested[m.embedded[ei]].columns()...)
			ei++
			continue
		}
		cols = append(cols, m.fields[fi].dbTag)
		fi++
	}
	return cols
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{nested: map[int]*typeMetadata{}}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				meta.nested[i] = metadataFor(field.Type)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// StructToMap maps the "db" tags of v to their values, including embedded
// structs. Non-struct values yield nil.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	collect(rv, metadataFor(rv.Type()), res)
	return res
}

func collect(rv reflect.Value, meta *typeMetadata, out map[string]any) {
	for _, fi := range meta.fields {
		out[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, idx := range meta.embedded {
		f := rv.Field(idx)
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		collect(f, meta.nested[idx], out)
	}
}

// SetMap returns the subset of v's tagged values named by cols.
func SetMap(v any, cols []string) map[string]any {
	m := StructToMap(v)
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if val, ok := m[c]; ok {
			out[c] = val
		}
	}
	return out
}
