package sqlbind

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Upper string

func (u *Upper) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		*u = Upper(strings.ToUpper(string(v)))
	case string:
		*u = Upper(strings.ToUpper(v))
	default:
		return fmt.Errorf("unsupported: %T", src)
	}
	return nil
}

// scanOneMock runs ScanOne against rows returned for "SELECT 1".
func scanOneMock(t *testing.T, rows *sqlmock.Rows, dest any) error {
	t.Helper()
	c, mock := newMockConn(t, Postgres)
	mock.ExpectQuery("SELECT 1").WillReturnRows(rows)
	return c.ScanOne(context.Background(), dest, "SELECT 1", nil)
}

// TestMapper_Scan_Primitive_OneRow ensures ScanOne can read a single primitive
// value (one row, one column) into a basic Go type.
func TestMapper_Scan_Primitive_OneRow(t *testing.T) {
	c, mock := newMockConn(t, Postgres)
	mock.ExpectQuery("SELECT $1").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(42))

	var v int
	require.NoError(t, c.ScanOne(context.Background(), &v, "SELECT :id", P{"id": 7}))
	assert.Equal(t, 42, v)
}

// TestMapper_Scan_Primitive_NoRows_Error verifies that ScanOne returns
// sql.ErrNoRows when the query produces zero rows.
func TestMapper_Scan_Primitive_NoRows_Error(t *testing.T) {
	var v int
	err := scanOneMock(t, sqlmock.NewRows([]string{"v"}), &v)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// TestMapper_Scan_Primitive_MultiRows_Error verifies that ScanOne fails when
// more than one row is returned.
func TestMapper_Scan_Primitive_MultiRows_Error(t *testing.T) {
	var v int
	err := scanOneMock(t, sqlmock.NewRows([]string{"v"}).AddRow(1).AddRow(2), &v)
	assert.ErrorIs(t, err, ErrMoreThanOneRow)
}

// TestMapper_Scan_Primitive_MultiColumns_Error ensures ScanOne complains when
// scanning into a primitive but the row has more than one column.
func TestMapper_Scan_Primitive_MultiColumns_Error(t *testing.T) {
	var v int
	err := scanOneMock(t, sqlmock.NewRows([]string{"a", "b"}).AddRow(1, 2), &v)
	assert.ErrorContains(t, err, "requires 1 column")
}

// TestMapper_Scan_DestMustBePointer_Error checks that ScanOne validates
// the destination is a non-nil pointer.
func TestMapper_Scan_DestMustBePointer_Error(t *testing.T) {
	var notPtr int
	err := scanOneMock(t, sqlmock.NewRows([]string{"v"}).AddRow(1), notPtr)
	assert.ErrorContains(t, err, "non-nil pointer")
}

// TestMapper_Scan_Struct_Tags_ExtraColsIgnored verifies that ScanOne maps only
// known struct fields and silently discards unknown columns.
func TestMapper_Scan_Struct_Tags_ExtraColsIgnored(t *testing.T) {
	type Row struct {
		A int    `db:"a"`
		B string `db:"b"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"a", "b", "ignored"}).AddRow(7, "x", "dropme"), &r)
	require.NoError(t, err)
	assert.Equal(t, Row{A: 7, B: "x"}, r)
}

func TestMapper_Scan_Struct_DashTagAndFieldName(t *testing.T) {
	type Row struct {
		Name   string
		Secret string `db:"-"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"Name", "Secret"}).AddRow("zim", "gir"), &r)
	require.NoError(t, err)
	assert.Equal(t, Row{Name: "zim"}, r)
}

// TestMapper_Scan_Struct_PointerField_NULL_OK ensures that a NULL database
// value maps to a nil pointer field.
func TestMapper_Scan_Struct_PointerField_NULL_OK(t *testing.T) {
	type Row struct {
		A *int   `db:"a"`
		B string `db:"b"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"a", "b"}).AddRow(nil, "x"), &r)
	require.NoError(t, err)
	assert.Nil(t, r.A)
	assert.Equal(t, "x", r.B)
}

// TestMapper_Scan_Struct_NonPointerField_NULL_Error verifies that NULL cannot
// populate a non-pointer field.
func TestMapper_Scan_Struct_NonPointerField_NULL_Error(t *testing.T) {
	type Row struct {
		A int `db:"a"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"a"}).AddRow(nil), &r)
	assert.Error(t, err)
}

// TestMapper_Scan_Struct_FieldImplementsScanner checks that a struct field
// implementing sql.Scanner is filled through its Scan method.
func TestMapper_Scan_Struct_FieldImplementsScanner(t *testing.T) {
	type Row struct {
		Up Upper `db:"up"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"up"}).AddRow("ciao"), &r)
	require.NoError(t, err)
	assert.Equal(t, Upper("CIAO"), r.Up)
}

func TestMapper_Scan_Primitive_ScannerType(t *testing.T) {
	var u Upper
	err := scanOneMock(t, sqlmock.NewRows([]string{"u"}).AddRow([]byte("ciao")), &u)
	require.NoError(t, err)
	assert.Equal(t, Upper("CIAO"), u)
}

func TestMapper_Scan_Primitive_NullString(t *testing.T) {
	var ns sql.NullString
	err := scanOneMock(t, sqlmock.NewRows([]string{"s"}).AddRow(nil), &ns)
	require.NoError(t, err)
	assert.False(t, ns.Valid)
}

func TestMapper_Scan_Flatten_AnonymousEmbedded(t *testing.T) {
	type Base struct {
		ID int `db:"id"`
	}
	type Row struct {
		Base
		Name string `db:"name"`
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "n"), &r)
	require.NoError(t, err)
	assert.Equal(t, 3, r.ID)
	assert.Equal(t, "n", r.Name)
}

func TestMapper_Scan_Flatten_NamedPtr_AutoAlloc(t *testing.T) {
	type Meta struct {
		Tag string `db:"tag"`
	}
	type Row struct {
		ID   int `db:"id"`
		Meta *Meta
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"id", "tag"}).AddRow(1, "t"), &r)
	require.NoError(t, err)
	require.NotNil(t, r.Meta)
	assert.Equal(t, "t", r.Meta.Tag)
}

func TestMapper_Scan_Flatten_TimeLeafInNested(t *testing.T) {
	type Audit struct {
		Created time.Time `db:"created"`
	}
	type Row struct {
		Audit
	}
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"created"}).AddRow(now), &r)
	require.NoError(t, err)
	assert.True(t, now.Equal(r.Created))
}

// TestMapper_Scan_FirstFieldWins checks that a duplicated column name maps to
// the first field that declares it.
func TestMapper_Scan_FirstFieldWins(t *testing.T) {
	type Inner struct {
		Name string `db:"name"`
	}
	type Row struct {
		Name string `db:"name"`
		Inner
	}
	var r Row
	err := scanOneMock(t, sqlmock.NewRows([]string{"name"}).AddRow("outer"), &r)
	require.NoError(t, err)
	assert.Equal(t, "outer", r.Name)
	assert.Empty(t, r.Inner.Name)
}

func scanAllMock(t *testing.T, rows *sqlmock.Rows, dest any) error {
	t.Helper()
	c, mock := newMockConn(t, SQLite)
	mock.ExpectQuery("SELECT 1").WillReturnRows(rows)
	return c.ScanAll(context.Background(), dest, "SELECT 1", nil)
}

func TestMapper_ScanAll_SliceOfStruct(t *testing.T) {
	type Row struct {
		A int `db:"a"`
	}
	out := []Row{{A: 99}}
	err := scanAllMock(t, sqlmock.NewRows([]string{"a"}).AddRow(1).AddRow(2), &out)
	require.NoError(t, err)
	assert.Equal(t, []Row{{1}, {2}}, out)
}

func TestMapper_ScanAll_SliceOfPtrStruct(t *testing.T) {
	type Row struct {
		A int `db:"a"`
	}
	var out []*Row
	err := scanAllMock(t, sqlmock.NewRows([]string{"a"}).AddRow(1).AddRow(2), &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[1].A)
}

func TestMapper_ScanAll_SliceOfPrimitives_OneColumn(t *testing.T) {
	var out []string
	err := scanAllMock(t, sqlmock.NewRows([]string{"s"}).AddRow("a").AddRow("b"), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestMapper_ScanAll_DestMustBePointerToSlice_Error(t *testing.T) {
	var notSlice int
	err := scanAllMock(t, sqlmock.NewRows([]string{"a"}).AddRow(1), &notSlice)
	assert.ErrorContains(t, err, "pointer to slice")
}

func TestMapper_ScanAll_PrimitiveSlice_MultiColumns_Error(t *testing.T) {
	var out []int
	err := scanAllMock(t, sqlmock.NewRows([]string{"a", "b"}).AddRow(1, 2), &out)
	assert.ErrorContains(t, err, "requires 1 column")
}
