package sqlbind

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Column describes one table column as reported by the database.
type Column struct {
	Name    string
	Type    string
	Size    *int
	Scale   *int
	NotNull bool
	// Default is the literal default value; nil when there is none or it is
	// not a literal (NULL, CURRENT_TIMESTAMP, sequences).
	Default *string
	AutoInc bool
	Primary bool
}

// Schema reads table and column metadata through a connection.
type Schema struct {
	conn *Connection
}

// NewSchema returns a schema reader for conn's dialect.
func NewSchema(conn *Connection) *Schema {
	return &Schema{conn: conn}
}

var nonWordRe = regexp.MustCompile(`\W`)

// FetchTables lists the tables in schema; an empty schema means the
// connection's current one.
func (s *Schema) FetchTables(ctx context.Context, schema string) ([]string, error) {
	var (
		text string
		bind map[string]any
	)
	switch s.conn.Dialect() {
	case SQLite:
		text = "SELECT name FROM " + s.sqliteMaster(schema) +
			" WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case MySQL:
		text = "SHOW TABLES"
		if schema != "" {
			text += " IN " + s.conn.QuoteName(schema)
		}
	default:
		text = "SELECT table_name FROM information_schema.tables" +
			" WHERE table_schema = " + s.schemaExpr(schema) +
			" AND table_type = 'BASE TABLE' ORDER BY table_name"
		bind = map[string]any{"schema": schema}
	}

	vals, err := s.conn.FetchColumn(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}

// FetchColumns describes the columns of spec ("table" or "schema.table") in
// declaration order.
func (s *Schema) FetchColumns(ctx context.Context, spec string) ([]Column, error) {
	schema, table := splitName(spec)
	switch s.conn.Dialect() {
	case SQLite:
		return s.sqliteColumns(ctx, schema, table)
	case MySQL:
		return s.mysqlColumns(ctx, schema, table)
	default:
		return s.informationSchemaColumns(ctx, schema, table)
	}
}

func (s *Schema) sqliteMaster(schema string) string {
	if schema == "" {
		return "sqlite_master"
	}
	return s.conn.QuoteName(schema) + ".sqlite_master"
}

func (s *Schema) sqliteColumns(ctx context.Context, schema, table string) ([]Column, error) {
	text := "PRAGMA "
	if schema != "" {
		text += s.conn.QuoteName(schema) + "."
	}
	text += "table_info(" + s.conn.QuoteName(table) + ")"

	rows, err := s.conn.FetchAll(ctx, text, nil)
	if err != nil {
		return nil, err
	}

	pks := 0
	for _, r := range rows {
		if n, _ := intOf(r["pk"]); n > 0 {
			pks++
		}
	}

	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		typ, size, scale := parseTypeSizeScale(fmt.Sprint(r["type"]))
		notNull, _ := intOf(r["notnull"])
		pk, _ := intOf(r["pk"])
		cols = append(cols, Column{
			Name:    fmt.Sprint(r["name"]),
			Type:    typ,
			Size:    size,
			Scale:   scale,
			NotNull: notNull != 0,
			Default: literalDefault(r["dflt_value"]),
			// a lone INTEGER PRIMARY KEY aliases the rowid
			AutoInc: pk > 0 && pks == 1 && typ == "integer",
			Primary: pk > 0,
		})
	}
	return cols, nil
}

func (s *Schema) mysqlColumns(ctx context.Context, schema, table string) ([]Column, error) {
	text := "SHOW COLUMNS FROM " + s.conn.QuoteName(table)
	if schema != "" {
		text += " IN " + s.conn.QuoteName(nonWordRe.ReplaceAllString(schema, ""))
	}

	rows, err := s.conn.FetchAll(ctx, text, nil)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		typ, size, scale := parseTypeSizeScale(fmt.Sprint(r["Type"]))
		cols = append(cols, Column{
			Name:    fmt.Sprint(r["Field"]),
			Type:    typ,
			Size:    size,
			Scale:   scale,
			NotNull: fmt.Sprint(r["Null"]) != "YES",
			Default: literalDefault(r["Default"]),
			AutoInc: strings.Contains(fmt.Sprint(r["Extra"]), "auto_increment"),
			Primary: fmt.Sprint(r["Key"]) == "PRI",
		})
	}
	return cols, nil
}

func (s *Schema) informationSchemaColumns(ctx context.Context, schema, table string) ([]Column, error) {
	autoInc := "CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 1 ELSE 0 END"
	if s.conn.Dialect() == SQLServer {
		autoInc = "COLUMNPROPERTY(OBJECT_ID(c.table_schema + '.' + c.table_name), c.column_name, 'IsIdentity')"
	}
	where := "c.table_schema = " + s.schemaExpr(schema) + " AND c.table_name = :table"
	bind := map[string]any{"schema": schema, "table": table}

	text := "SELECT c.column_name AS name, c.data_type AS type," +
		" c.character_maximum_length AS char_len, c.numeric_precision AS num_precision," +
		" c.numeric_scale AS num_scale, c.is_nullable AS nullable," +
		" c.column_default AS dflt, " + autoInc + " AS auto_inc" +
		" FROM information_schema.columns c WHERE " + where +
		" ORDER BY c.ordinal_position"
	rows, err := s.conn.FetchAll(ctx, text, bind)
	if err != nil {
		return nil, err
	}

	keyText := "SELECT k.column_name FROM information_schema.table_constraints t" +
		" JOIN information_schema.key_column_usage k" +
		" ON k.constraint_name = t.constraint_name AND k.table_schema = t.table_schema AND k.table_name = t.table_name" +
		" WHERE t.constraint_type = 'PRIMARY KEY' AND " + strings.ReplaceAll(where, "c.", "t.")
	keys, err := s.conn.FetchColumn(ctx, keyText, bind)
	if err != nil {
		return nil, err
	}
	primary := make(map[string]bool, len(keys))
	for _, k := range keys {
		primary[fmt.Sprint(k)] = true
	}

	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		name := fmt.Sprint(r["name"])
		auto, _ := intOf(r["auto_inc"])
		col := Column{
			Name:    name,
			Type:    strings.ToLower(fmt.Sprint(r["type"])),
			NotNull: fmt.Sprint(r["nullable"]) == "NO",
			AutoInc: auto != 0,
			Primary: primary[name],
		}
		if n, ok := intOf(r["char_len"]); ok && n > 0 {
			col.Size = &n
		} else if n, ok := intOf(r["num_precision"]); ok && n > 0 && isExactNumeric(col.Type) {
			col.Size = &n
			if sc, ok := intOf(r["num_scale"]); ok {
				col.Scale = &sc
			}
		}
		if !col.AutoInc {
			col.Default = literalDefault(r["dflt"])
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// schemaExpr returns the bound schema name, or the dialect's current
// schema function when none is given.
func (s *Schema) schemaExpr(schema string) string {
	if schema != "" {
		return ":schema"
	}
	if s.conn.Dialect() == SQLServer {
		return "SCHEMA_NAME()"
	}
	return "current_schema()"
}

// parseTypeSizeScale splits a column type such as "decimal(10,2)" into its
// lower-cased type, size and scale. Missing or zero parts are nil; anything
// after the closing parenthesis ("unsigned") is dropped.
func parseTypeSizeScale(spec string) (typ string, size, scale *int) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	pos := strings.IndexByte(spec, '(')
	if pos < 0 {
		return spec, nil, nil
	}
	typ = strings.TrimSpace(spec[:pos])
	inner := spec[pos+1:]
	if end := strings.IndexByte(inner, ')'); end >= 0 {
		inner = inner[:end]
	}
	if comma := strings.IndexByte(inner, ','); comma >= 0 {
		scale = positiveInt(inner[comma+1:])
		inner = inner[:comma]
	}
	return typ, positiveInt(inner), scale
}

// splitName splits "schema.table"; a name without a dot has no schema.
func splitName(name string) (schema, table string) {
	if pos := strings.IndexByte(name, '.'); pos >= 0 {
		return name[:pos], name[pos+1:]
	}
	return "", name
}

func positiveInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// literalDefault normalizes a reported default: NULL, CURRENT_TIMESTAMP and
// sequence calls are not literals; quoted literals are unquoted.
func literalDefault(v any) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	switch upper := strings.ToUpper(s); {
	case upper == "NULL", upper == "CURRENT_TIMESTAMP", strings.HasPrefix(upper, "NEXTVAL("):
		return nil
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return &s
}

func isExactNumeric(typ string) bool {
	return typ == "numeric" || typ == "decimal"
}

func intOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
