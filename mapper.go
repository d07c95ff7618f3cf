package sqlbind

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var scannerIface = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// fieldIndexCache maps a struct type to its column → field index paths.
var fieldIndexCache sync.Map // map[reflect.Type]map[string][]int

// scanOne scans the current row into dest. It supports:
//   - pointer to Scanner types (with exactly one column)
//   - primitives (with exactly one column)
//   - structs (flattened mapping via `db` tags or field names)
func scanOne(rows *sql.Rows, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("sqlbind: dest must be a non-nil pointer")
	}
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	return scanInto(rows, cols, rv.Elem())
}

// scanAll scans all rows into a slice of structs, *structs or single-column
// values. The slice is truncated first.
func scanAll(rows *sql.Rows, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("sqlbind: dest must be a non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Slice {
		return fmt.Errorf("sqlbind: ScanAll requires a pointer to slice")
	}
	rv.Set(rv.Slice(0, 0))

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	elemT := rv.Type().Elem()
	isPtr := elemT.Kind() == reflect.Pointer
	baseT := elemT
	if isPtr {
		baseT = elemT.Elem()
	}

	for rows.Next() {
		el := reflect.New(baseT)
		if err := scanInto(rows, cols, el.Elem()); err != nil {
			return err
		}
		if isPtr {
			rv.Set(reflect.Append(rv, el))
		} else {
			rv.Set(reflect.Append(rv, el.Elem()))
		}
	}
	return rows.Err()
}

// scanInto scans the current row into dst, an addressable value.
func scanInto(rows *sql.Rows, cols []string, dst reflect.Value) error {
	if reflect.PointerTo(dst.Type()).Implements(scannerIface) || dst.Kind() != reflect.Struct || isTimeType(dst.Type()) {
		if len(cols) != 1 {
			return fmt.Errorf("sqlbind: Scan on type %s requires 1 column, got %d", dst.Type(), len(cols))
		}
		return rows.Scan(dst.Addr().Interface())
	}

	index := fieldIndexMap(dst.Type())
	targets := make([]any, len(cols))
	for i, col := range cols {
		path, ok := index[col]
		if !ok {
			var sink any
			targets[i] = &sink
			continue
		}
		targets[i] = fieldByIndexAlloc(dst, path).Addr().Interface()
	}
	return rows.Scan(targets...)
}

// fieldIndexMap returns a mapping from column name to field index path for
// the struct type t. Nested structs (except time.Time and Scanners) are
// flattened, `db:"name"` tags rename and `db:"-"` skips a field. The first
// field found for a name wins.
func fieldIndexMap(t reflect.Type) map[string][]int {
	if m, ok := fieldIndexCache.Load(t); ok {
		return m.(map[string][]int)
	}

	m := make(map[string][]int, t.NumField())
	var walk func(rt reflect.Type, path []int)
	walk = func(rt reflect.Type, path []int) {
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.PkgPath != "" {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "-" {
				continue
			}
			idx := append(append(make([]int, 0, len(path)+1), path...), i)

			if shouldFlatten(f.Type) {
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				walk(ft, idx)
				continue
			}

			name := f.Name
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
			if _, exists := m[name]; !exists {
				m[name] = idx
			}
		}
	}
	walk(t, nil)

	fieldIndexCache.Store(t, m)
	return m
}

// shouldFlatten decides whether to descend into ft (struct or *struct).
func shouldFlatten(ft reflect.Type) bool {
	if reflect.PointerTo(ft).Implements(scannerIface) || ft.Implements(scannerIface) {
		return false
	}
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	return ft.Kind() == reflect.Struct && !isTimeType(ft)
}

func isTimeType(t reflect.Type) bool {
	return t.PkgPath() == "time" && t.Name() == "Time"
}

// fieldByIndexAlloc walks path from v, allocating nil embedded pointers.
func fieldByIndexAlloc(v reflect.Value, path []int) reflect.Value {
	for i, idx := range path {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}
	return v
}
