package sqlbind

import "strings"

// span is one piece of SQL text: either a quoted string literal, passed
// through untouched, or code that may be rewritten.
type span struct {
	text    string
	literal bool
}

// splitLiterals partitions q into alternating code and literal spans.
// Recognized delimiters are ', ", \' and \". A backslash-escaped opening
// quote closes only at the next identical escaped quote; a bare quote closes
// at the nearest matching quote, or, with backslash set, at the nearest one
// not escaped by a backslash. An unterminated literal runs to the end of the
// text. Joining the span texts yields q unchanged.
func splitLiterals(q string, backslash bool) []span {
	spans := make([]span, 0, 1+strings.Count(q, "'")+strings.Count(q, `"`))
	start := 0
	for i := 0; i < len(q); {
		delim := openingQuote(q, i)
		if delim == "" {
			i++
			continue
		}
		if start < i {
			spans = append(spans, span{text: q[start:i]})
		}
		end := closeLiteral(q, i+len(delim), delim, backslash)
		spans = append(spans, span{text: q[i:end], literal: true})
		i, start = end, end
	}
	if start < len(q) || len(spans) == 0 {
		spans = append(spans, span{text: q[start:]})
	}
	return spans
}

// openingQuote returns the literal delimiter starting at q[i], if any.
func openingQuote(q string, i int) string {
	switch q[i] {
	case '\'', '"':
		return q[i : i+1]
	case '\\':
		if i+1 < len(q) && (q[i+1] == '\'' || q[i+1] == '"') {
			return q[i : i+2]
		}
	}
	return ""
}

// closeLiteral returns the index just past the delimiter closing a literal
// whose body starts at i, or len(q) when the literal is unterminated.
func closeLiteral(q string, i int, delim string, backslash bool) int {
	if len(delim) == 2 || !backslash {
		if p := strings.Index(q[i:], delim); p >= 0 {
			return i + p + len(delim)
		}
		return len(q)
	}
	for i < len(q) {
		switch q[i] {
		case '\\':
			i += 2
			continue
		case delim[0]:
			return i + 1
		}
		i++
	}
	return len(q)
}

// joinSpans concatenates span texts in order.
func joinSpans(spans []span) string {
	n := 0
	for _, s := range spans {
		n += len(s.text)
	}
	var b strings.Builder
	b.Grow(n)
	for _, s := range spans {
		b.WriteString(s.text)
	}
	return b.String()
}
