package sqlbind

import "strings"

// Bind rewrites the :name placeholders of text against bind. Sequence values
// are quoted and inlined in place of their placeholder; scalar values leave
// the placeholder in the text and are returned in the scalar map, which holds
// exactly the names referenced outside string literals. Names missing from
// bind are left alone, and entries never referenced are dropped. A colon
// directly after another colon never starts a placeholder, so casts such as
// a::name stay untouched.
func (q Quoter) Bind(text string, bind map[string]any) (string, map[string]any, error) {
	scalars := make(map[string]any)
	if len(bind) == 0 {
		return text, scalars, nil
	}

	spans := splitLiterals(text, q.Backslash)
	for i := range spans {
		if spans[i].literal || strings.IndexByte(spans[i].text, ':') < 0 {
			continue
		}
		out, err := q.bindCode(spans[i].text, bind, scalars)
		if err != nil {
			return "", nil, err
		}
		spans[i].text = out
	}
	return joinSpans(spans), scalars, nil
}

// bindCode handles a single code span.
func (q Quoter) bindCode(code string, bind, scalars map[string]any) (string, error) {
	var buf strings.Builder
	buf.Grow(len(code))
	prev := 0

	for i := 0; i < len(code); i++ {
		if code[i] != ':' || i+1 >= len(code) || !isAlphaUnderscore(code[i+1]) {
			continue
		}
		// preceded by a word byte, or part of a :: cast
		if i > 0 && (isAlphaNumUnderscore(code[i-1]) || code[i-1] == ':') {
			continue
		}
		k := i + 2
		for k < len(code) && isAlphaNumUnderscore(code[k]) {
			k++
		}
		name := code[i+1 : k]

		v, ok := bind[name]
		if !ok {
			i = k - 1
			continue
		}
		if _, isSeq := sequenceOf(v); !isSeq {
			scalars[name] = v
			i = k - 1
			continue
		}

		quoted, err := q.QuoteValue(v)
		if err != nil {
			return "", err
		}
		buf.WriteString(code[prev:i])
		buf.WriteString(quoted)
		prev = k
		i = k - 1
	}

	if prev == 0 {
		return code, nil
	}
	buf.WriteString(code[prev:])
	return buf.String(), nil
}

// isAlphaUnderscore reports whether b is [A-Za-z_] .
func isAlphaUnderscore(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

// isAlphaNumUnderscore reports whether b is [A-Za-z0-9_] .
func isAlphaNumUnderscore(b byte) bool {
	return isAlphaUnderscore(b) || (b >= '0' && b <= '9')
}
