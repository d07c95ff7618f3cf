package sqlbind

import (
	"regexp"
	"strings"
)

// qualifiedRe matches table.column pairs; each part is at least two
// characters long.
var qualifiedRe = regexp.MustCompile(`(?i)\b([a-z_][a-z0-9_]+)\.([a-z_][a-z0-9_]+)\b`)

// QuoteName quotes one identifier spec: a name, table.column, or either of
// those followed by an alias ("t.c AS a" or "t.c a"). The wildcard * is
// never quoted.
func (q Quoter) QuoteName(spec string) string {
	spec = strings.TrimSpace(spec)

	// note: rightmost match wins; position 0 is not a split point
	if pos := lastIndexFold(spec, " AS "); pos > 0 {
		return q.QuoteName(spec[:pos]) + " AS " + q.bareName(spec[pos+4:])
	}
	if pos := strings.LastIndexByte(spec, ' '); pos > 0 {
		return q.QuoteName(spec[:pos]) + " " + q.bareName(spec[pos+1:])
	}
	if pos := strings.LastIndexByte(spec, '.'); pos > 0 {
		return q.bareName(spec[:pos]) + "." + q.bareName(spec[pos+1:])
	}
	return q.bareName(spec)
}

// QuoteNamesIn quotes every table.column pair found outside string literals.
// When the final span of text is code and carries a trailing " AS alias",
// the alias is quoted as a bare name.
func (q Quoter) QuoteNamesIn(text string) string {
	spans := splitLiterals(text, q.Backslash)
	last := len(spans) - 1
	for i := range spans {
		if spans[i].literal {
			continue
		}
		code := spans[i].text
		if i == last {
			if pos := lastIndexFold(code, " AS "); pos > 0 {
				spans[i].text = q.replaceNamesIn(code[:pos]) + " AS " + q.bareName(code[pos+4:])
				continue
			}
		}
		spans[i].text = q.replaceNamesIn(code)
	}
	return joinSpans(spans)
}

// replaceNamesIn quotes each table.column pair in a code fragment.
func (q Quoter) replaceNamesIn(code string) string {
	matches := qualifiedRe.FindAllStringSubmatchIndex(code, -1)
	if len(matches) == 0 {
		return code
	}
	var b strings.Builder
	b.Grow(len(code) + len(matches)*2*(len(q.NamePrefix)+len(q.NameSuffix)))
	prev := 0
	for _, m := range matches {
		b.WriteString(code[prev:m[0]])
		b.WriteString(q.NamePrefix)
		b.WriteString(code[m[2]:m[3]])
		b.WriteString(q.NameSuffix)
		b.WriteByte('.')
		b.WriteString(q.NamePrefix)
		b.WriteString(code[m[4]:m[5]])
		b.WriteString(q.NameSuffix)
		prev = m[1]
	}
	b.WriteString(code[prev:])
	return b.String()
}

// bareName wraps a single identifier segment in the quote characters.
func (q Quoter) bareName(name string) string {
	name = strings.TrimSpace(name)
	if name == "*" {
		return name
	}
	return q.NamePrefix + name + q.NameSuffix
}

// lastIndexFold is strings.LastIndex with ASCII case folding.
func lastIndexFold(s, substr string) int {
	n := len(substr)
	for i := len(s) - n; i >= 0; i-- {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
