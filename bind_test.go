package sqlbind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	q := SQLite.Quoter()
	tests := []struct {
		name        string
		text        string
		bind        map[string]any
		wantText    string
		wantScalars map[string]any
	}{
		{
			name:        "literal untouched",
			text:        "SELECT 'a:foo' FROM t WHERE id=:foo",
			bind:        P{"foo": 5},
			wantText:    "SELECT 'a:foo' FROM t WHERE id=:foo",
			wantScalars: P{"foo": 5},
		},
		{
			name:        "list inlined",
			text:        "id IN (:list)",
			bind:        P{"list": []int{1, 2, 3}},
			wantText:    "id IN (1, 2, 3)",
			wantScalars: P{},
		},
		{
			name:        "scalar deferred",
			text:        "id = :id",
			bind:        P{"id": 5},
			wantText:    "id = :id",
			wantScalars: P{"id": 5},
		},
		{
			name:        "unreferenced dropped",
			text:        "id = :id",
			bind:        P{"id": 5, "unused": 9},
			wantText:    "id = :id",
			wantScalars: P{"id": 5},
		},
		{
			name:        "missing name left alone",
			text:        "a = :a AND b = :b",
			bind:        P{"a": 1},
			wantText:    "a = :a AND b = :b",
			wantScalars: P{"a": 1},
		},
		{
			name:        "string list quoted",
			text:        "name IN (:names)",
			bind:        P{"names": []string{"zim", "o'gir"}},
			wantText:    "name IN ('zim', 'o''gir')",
			wantScalars: P{},
		},
		{
			name:        "repeated list",
			text:        "a IN (:v) OR b IN (:v)",
			bind:        P{"v": []int{1, 2}},
			wantText:    "a IN (1, 2) OR b IN (1, 2)",
			wantScalars: P{},
		},
		{
			name:        "cast is not a placeholder",
			text:        "SELECT a::text FROM t WHERE id = :id",
			bind:        P{"text": []int{1}, "id": 1},
			wantText:    "SELECT a::text FROM t WHERE id = :id",
			wantScalars: P{"id": 1},
		},
		{
			name:        "word prefix is not a placeholder",
			text:        "SELECT foo:bar",
			bind:        P{"bar": []int{1}},
			wantText:    "SELECT foo:bar",
			wantScalars: P{},
		},
		{
			name:        "longer name does not match prefix",
			text:        "x = :id_x",
			bind:        P{"id": []int{1}},
			wantText:    "x = :id_x",
			wantScalars: P{},
		},
		{
			name:        "placeholder right after literal",
			text:        "'a':ids",
			bind:        P{"ids": []int{1, 2}},
			wantText:    "'a'1, 2",
			wantScalars: P{},
		},
		{
			name:        "double quoted literal untouched",
			text:        `SELECT ":ids" , :ids`,
			bind:        P{"ids": []int{4}},
			wantText:    `SELECT ":ids" , 4`,
			wantScalars: P{},
		},
		{
			name:        "empty list",
			text:        "id IN (:ids)",
			bind:        P{"ids": []int{}},
			wantText:    "id IN ()",
			wantScalars: P{},
		},
		{
			name:        "bytes are scalar",
			text:        "data = :data",
			bind:        P{"data": []byte("x")},
			wantText:    "data = :data",
			wantScalars: P{"data": []byte("x")},
		},
		{
			name:        "mixed",
			text:        "SELECT * FROM t WHERE a IN (:a) AND b = :b AND c = ':a'",
			bind:        P{"a": []string{"x", "y"}, "b": "z"},
			wantText:    "SELECT * FROM t WHERE a IN ('x', 'y') AND b = :b AND c = ':a'",
			wantScalars: P{"b": "z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, scalars, err := q.Bind(tt.text, tt.bind)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantScalars, scalars)
		})
	}
}

func TestBind_EmptyBind(t *testing.T) {
	text, scalars, err := Postgres.Quoter().Bind("SELECT :a", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT :a", text)
	assert.NotNil(t, scalars)
	assert.Empty(t, scalars)
}

// TestBind_ScalarWrapper_Deferred ensures Scalar() keeps a slice out of the
// text and in the scalar map.
func TestBind_ScalarWrapper_Deferred(t *testing.T) {
	ids := Scalar([]int{1, 2})
	text, scalars, err := Postgres.Quoter().Bind("id = ANY(:ids)", P{"ids": ids})
	require.NoError(t, err)
	assert.Equal(t, "id = ANY(:ids)", text)
	assert.Equal(t, P{"ids": ids}, scalars)
}

func TestBind_DialectEscaping(t *testing.T) {
	bind := P{"names": []string{"it's"}}
	want := map[Dialect]string{
		Postgres:  "n IN ('it''s')",
		MySQL:     `n IN ('it\'s')`,
		SQLite:    "n IN ('it''s')",
		SQLServer: "n IN ('it''s')",
	}
	for _, tc := range allDialects() {
		t.Run(tc.name, func(t *testing.T) {
			text, _, err := tc.d.Quoter().Bind("n IN (:names)", bind)
			require.NoError(t, err)
			assert.Equal(t, want[tc.d], text)
		})
	}
}

// TestBind_QuotedBackslashValue feeds quoted values ending in a backslash back
// through the binder; placeholders after them must still be rewritten.
func TestBind_QuotedBackslashValue(t *testing.T) {
	for _, tc := range allDialects() {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.d.Quoter()
			path, err := q.QuoteValue(`C:\`)
			require.NoError(t, err)

			in := "SELECT * FROM t WHERE path = " + path + " AND id IN (:ids) AND x = :x"
			st, err := prepare(tc.d, q, in, P{"ids": []int{1, 2}, "x": 3}, defaultLimits(tc.d))
			require.NoError(t, err)
			assert.Equal(t, "SELECT * FROM t WHERE path = "+path+" AND id IN (1, 2) AND x = :x", st.Text)
			assert.Equal(t, P{"x": 3}, st.Scalars)
			assert.Equal(t, []any{3}, st.Args)
			assert.Equal(t, 1, countPlaceholders(st.Query, tc.d))
		})
	}
}

func TestBind_UnsupportedElement(t *testing.T) {
	_, _, err := SQLite.Quoter().Bind("x IN (:v)", P{"v": []any{1, map[string]int{"a": 1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBindValue))
}

func TestBind_NestedList_Error(t *testing.T) {
	_, _, err := SQLite.Quoter().Bind("x IN (:v)", P{"v": [][]int{{1}, {2}}})
	assert.ErrorIs(t, err, ErrUnsupportedBindValue)
}
