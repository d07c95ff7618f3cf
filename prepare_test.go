package sqlbind

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrepare(t *testing.T, d Dialect, text string, bind P) *Statement {
	t.Helper()
	st, err := prepare(d, d.Quoter(), text, bind, defaultLimits(d))
	require.NoError(t, err)
	return st
}

func TestPrepare_Placeholders_AllDialects(t *testing.T) {
	want := map[Dialect]string{
		Postgres:  "SELECT * FROM t WHERE a = $1 AND b IN (1, 2) AND c = $2",
		MySQL:     "SELECT * FROM t WHERE a = ? AND b IN (1, 2) AND c = ?",
		SQLite:    "SELECT * FROM t WHERE a = ? AND b IN (1, 2) AND c = ?",
		SQLServer: "SELECT * FROM t WHERE a = @p1 AND b IN (1, 2) AND c = @p2",
	}
	for _, tc := range allDialects() {
		t.Run(tc.name, func(t *testing.T) {
			st := mustPrepare(t, tc.d, "SELECT * FROM t WHERE a = :a AND b IN (:b) AND c = :a", P{
				"a": "x",
				"b": []int{1, 2},
			})
			assert.Equal(t, "SELECT * FROM t WHERE a = :a AND b IN (1, 2) AND c = :a", st.Text)
			assert.Equal(t, P{"a": "x"}, st.Scalars)
			assert.Equal(t, want[tc.d], st.Query)
			assert.Equal(t, []any{"x", "x"}, st.Args)
			assert.Equal(t, 2, countPlaceholders(st.Query, tc.d))
		})
	}
}

func TestPrepare_NoPlaceholders(t *testing.T) {
	for _, tc := range allDialects() {
		st := mustPrepare(t, tc.d, "SELECT 1", nil)
		assert.Equal(t, "SELECT 1", st.Query, tc.name)
		assert.Empty(t, st.Args, tc.name)
	}
}

func TestPrepare_MissingParam(t *testing.T) {
	for _, tc := range allDialects() {
		_, err := prepare(tc.d, tc.d.Quoter(), "SELECT :nope", nil, defaultLimits(tc.d))
		assert.ErrorIs(t, err, ErrParamMissing, tc.name)
	}
}

// TestCompile_SkipsQuotedAndComments verifies that :name inside strings,
// quoted identifiers and comments is left alone.
func TestCompile_SkipsQuotedAndComments(t *testing.T) {
	tests := []struct {
		name string
		d    Dialect
		in   string
		want string
	}{
		{"single quote", Postgres, "SELECT ':a', :a", "SELECT ':a', $1"},
		{"doubled quote", Postgres, "SELECT 'it''s :a', :a", "SELECT 'it''s :a', $1"},
		{"backslash in single quote", MySQL, `SELECT 'x\':a', :a`, `SELECT 'x\':a', ?`},
		{"trailing backslash closes literal", SQLite, `SELECT 'C:\', :a`, `SELECT 'C:\', ?`},
		{"trailing backslash closes double quote", SQLServer, `SELECT "C:\", :a`, `SELECT "C:\", @p1`},
		{"double quote", Postgres, `SELECT ":a", :a`, `SELECT ":a", $1`},
		{"line comment", Postgres, "SELECT :a -- :a\n", "SELECT $1 -- :a\n"},
		{"hash comment mysql", MySQL, "SELECT :a # :a\n", "SELECT ? # :a\n"},
		{"block comment", SQLite, "SELECT /* :a */ :a", "SELECT /* :a */ ?"},
		{"backtick", MySQL, "SELECT `:a`, :a", "SELECT `:a`, ?"},
		{"bracket", SQLServer, "SELECT [:a], :a", "SELECT [:a], @p1"},
		{"dollar quoted", Postgres, "SELECT $$ :a $$, :a", "SELECT $$ :a $$, $1"},
		{"tagged dollar quoted", Postgres, "SELECT $fn$ :a $fn$, :a", "SELECT $fn$ :a $fn$, $1"},
		{"cast", Postgres, "SELECT :a::text", "SELECT $1::text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := compile(tt.d, tt.in, P{"a": 1}, defaultLimits(tt.d))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []any{1}, args)
		})
	}
}

func TestCompile_UnwrapsScalar(t *testing.T) {
	ids := []int64{1, 2}
	got, args, err := compile(Postgres, "id = ANY(:ids)", P{"ids": Scalar(ids)}, defaultLimits(Postgres))
	require.NoError(t, err)
	assert.Equal(t, "id = ANY($1)", got)
	assert.Equal(t, []any{ids}, args)
}

func TestLimits_Defaults_ByDialect(t *testing.T) {
	assert.Equal(t, 65535, defaultLimits(Postgres).MaxParams)
	assert.Equal(t, 65535, defaultLimits(MySQL).MaxParams)
	assert.Equal(t, 999, defaultLimits(SQLite).MaxParams)
	assert.Equal(t, 2100, defaultLimits(SQLServer).MaxParams)
	for _, tc := range allDialects() {
		assert.Equal(t, 64, defaultLimits(tc.d).MaxNameLen, tc.name)
	}
}

func TestLimits_MaxParams_Custom(t *testing.T) {
	limits := defaultLimits(Postgres, Limits{MaxParams: 2})
	_, _, err := compile(Postgres, ":a :b :c", P{"a": 1, "b": 2, "c": 3}, limits)
	assert.ErrorIs(t, err, ErrTooManyParams)

	_, args, err := compile(Postgres, ":a :b", P{"a": 1, "b": 2}, limits)
	require.NoError(t, err)
	assert.Len(t, args, 2)
}

func TestLimits_Unlimited(t *testing.T) {
	limits := defaultLimits(SQLite, Limits{MaxParams: -1})
	var b strings.Builder
	bind := P{}
	for i := 0; i < 1200; i++ {
		fmt.Fprintf(&b, ":p%d,", i)
		bind[fmt.Sprintf("p%d", i)] = i
	}
	_, args, err := compile(SQLite, b.String(), bind, limits)
	require.NoError(t, err)
	assert.Len(t, args, 1200)
}

func TestLimits_ParamNameTooLong_AllDialects(t *testing.T) {
	name := strings.Repeat("x", 65)
	for _, tc := range allDialects() {
		_, _, err := compile(tc.d, "SELECT :"+name, P{name: 1}, defaultLimits(tc.d))
		assert.ErrorIs(t, err, ErrParamNameTooLong, tc.name)
	}
}

func TestReadDollarTag(t *testing.T) {
	tag, ok := readDollarTag("$$ body")
	assert.True(t, ok)
	assert.Equal(t, "$$", tag)

	tag, ok = readDollarTag("$body$ x")
	assert.True(t, ok)
	assert.Equal(t, "$body$", tag)

	_, ok = readDollarTag("$1")
	assert.False(t, ok)
}
