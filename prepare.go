package sqlbind

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is a fully prepared statement: the rewritten text still carrying
// :name placeholders, the deferred scalars, and the driver-ready form.
type Statement struct {
	Text    string         // rewritten text, sequences inlined
	Scalars map[string]any // deferred scalar bindings referenced by Text
	Query   string         // Text with dialect placeholders
	Args    []any          // driver arguments, in placeholder order
}

// prepare runs the binder and then compiles the result for the driver.
func prepare(d Dialect, q Quoter, text string, bind map[string]any, limits Limits) (*Statement, error) {
	rewritten, scalars, err := q.Bind(text, bind)
	if err != nil {
		return nil, err
	}
	query, args, err := compile(d, rewritten, scalars, limits)
	if err != nil {
		return nil, err
	}
	return &Statement{Text: rewritten, Scalars: scalars, Query: query, Args: args}, nil
}

// compile replaces the remaining :name placeholders with dialect-specific
// driver placeholders and collects their values in order. It walks the SQL
// with a small state machine so strings, quoted identifiers, comments and
// dollar-quoted bodies are copied verbatim.
func compile(dialect Dialect, q string, scalars map[string]any, limits Limits) (string, []any, error) {
	if strings.IndexByte(q, ':') < 0 {
		return q, nil, nil
	}

	// Rough estimate for number of placeholders (not exact, but helps sizing).
	est := strings.Count(q, ":") - 2*strings.Count(q, "::")
	if est < 0 {
		est = 0
	}
	args := make([]any, 0, est)

	var buf strings.Builder
	extraPer := 1
	switch dialect {
	case Postgres, SQLServer:
		extraPer = 4
	}
	buf.Grow(len(q) + 16 + est*extraPer)

	n := 0
	var dqTag string // active dollar-quoted tag (Postgres-like)

	const (
		sText = iota
		sSQ   // '...'
		sDQ   // "..."
		sBT   // `...` (MySQL/SQLite)
		sBR   // [...] (SQL Server)
		sLC   // line comment -- or # (MySQL only)
		sBC   // block comment /* ... */
		sDQD  // $tag$ ... $tag$ (dollar-quoted)
	)
	state := sText

	for i := 0; i < len(q); {
		c := q[i]

		switch state {
		case sText:
			switch {
			case c == '-' && i+1 < len(q) && q[i+1] == '-':
				state = sLC
				buf.WriteString("--")
				i += 2
				continue
			case c == '#' && dialect == MySQL:
				state = sLC
			case c == '/' && i+1 < len(q) && q[i+1] == '*':
				state = sBC
				buf.WriteString("/*")
				i += 2
				continue
			case c == '\'':
				state = sSQ
			case c == '"':
				state = sDQ
			case c == '`' && (dialect == MySQL || dialect == SQLite):
				state = sBT
			case c == '[' && dialect == SQLServer:
				state = sBR
			case c == '$':
				if tag, ok := readDollarTag(q[i:]); ok {
					state = sDQD
					dqTag = tag
					buf.WriteString(tag)
					i += len(tag)
					continue
				}
			case c == ':' && i+1 < len(q) && isAlphaUnderscore(q[i+1]) && !(i > 0 && (q[i-1] == ':' || isAlphaNumUnderscore(q[i-1]))):
				k := i + 2
				for k < len(q) && isAlphaNumUnderscore(q[k]) {
					k++
				}
				name := q[i+1 : k]

				if limits.MaxNameLen > 0 && len(name) > limits.MaxNameLen {
					return "", nil, fmt.Errorf("%w: %q (%d > %d)", ErrParamNameTooLong, name, len(name), limits.MaxNameLen)
				}
				v, ok := scalars[name]
				if !ok {
					return "", nil, fmt.Errorf("%w: %s", ErrParamMissing, name)
				}
				if limits.MaxParams > 0 && n+1 > limits.MaxParams {
					return "", nil, fmt.Errorf("%w: requested=%d, limit=%d", ErrTooManyParams, n+1, limits.MaxParams)
				}
				if s, isScalar := v.(scalar); isScalar {
					v = s.v
				}
				n++
				writePlaceholder(&buf, dialect, n)
				args = append(args, v)
				i = k
				continue
			}
			buf.WriteByte(c)
			i++

		case sSQ, sDQ:
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			}
			if c == '\\' && dialect == MySQL {
				buf.WriteByte(c)
				i++
				if i < len(q) {
					buf.WriteByte(q[i])
					i++
				}
				continue
			}
			buf.WriteByte(c)
			i++
			if c == quote {
				if i < len(q) && q[i] == quote {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sBT, sBR:
			closer := byte('`')
			if state == sBR {
				closer = ']'
			}
			buf.WriteByte(c)
			i++
			if c == closer {
				if i < len(q) && q[i] == closer {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sLC:
			buf.WriteByte(c)
			i++
			if c == '\n' || c == '\r' {
				state = sText
			}

		case sBC:
			buf.WriteByte(c)
			i++
			if c == '*' && i < len(q) && q[i] == '/' {
				buf.WriteByte('/')
				i++
				state = sText
			}

		case sDQD:
			p := strings.Index(q[i:], dqTag)
			if p < 0 {
				buf.WriteString(q[i:])
				i = len(q)
			} else {
				buf.WriteString(q[i : i+p])
				buf.WriteString(dqTag)
				i += p + len(dqTag)
				dqTag = ""
				state = sText
			}
		}
	}

	return buf.String(), args, nil
}

// writePlaceholder emits a dialect-specific placeholder token for argument idx.
func writePlaceholder(b *strings.Builder, d Dialect, idx int) {
	switch d {
	case Postgres:
		b.WriteByte('$')
		var tmp [20]byte
		n := strconv.AppendInt(tmp[:0], int64(idx), 10)
		b.Write(n)
	case SQLServer:
		b.WriteString("@p")
		var tmp [20]byte
		n := strconv.AppendInt(tmp[:0], int64(idx), 10)
		b.Write(n)
	default: // MySQL, SQLite
		b.WriteByte('?')
	}
}

// readDollarTag detects a dollar-quoted opening tag ("$tag$") at the start of s.
// It returns the full tag (e.g. "$tag$") and true if found.
func readDollarTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	j := 1
	for j < len(s) && isAlphaNumUnderscore(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '$' {
		return s[:j+1], true
	}
	return "", false
}
