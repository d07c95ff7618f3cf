package sqlbind

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// scalar is a wrapper to force scalar binding semantics.
type scalar struct {
	v any
}

// Scalar wraps a value to force it to be treated as a single deferred
// argument even if it is a slice/array. Useful for ANY(:ids)-style idioms.
func Scalar(v any) any {
	return scalar{v: v}
}

var numericRe = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

const timeLayout = "2006-01-02 15:04:05.999999999"

// QuoteValue renders v as inline SQL text. Sequences become a comma-separated
// list of quoted elements (no parentheses), numbers and numeric strings pass
// through unquoted, and every other scalar goes through the escaping
// primitive.
func (q Quoter) QuoteValue(v any) (string, error) {
	if seq, ok := sequenceOf(v); ok {
		parts := make([]string, seq.Len())
		for i := range parts {
			el := seq.Index(i).Interface()
			if _, nested := sequenceOf(el); nested {
				return "", fmt.Errorf("%w: nested %T at index %d", ErrUnsupportedBindValue, el, i)
			}
			s, err := q.quoteScalar(el)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil
	}
	return q.quoteScalar(v)
}

// quoteScalar renders a single non-sequence value.
func (q Quoter) quoteScalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return q.escape(""), nil
	case scalar:
		return q.quoteScalar(x.v)
	case string:
		if numericRe.MatchString(x) {
			return x, nil
		}
		return q.escape(x), nil
	case []byte:
		return q.escape(string(x)), nil
	case bool:
		if x {
			return q.escape("1"), nil
		}
		return q.escape("0"), nil
	case time.Time:
		return q.escape(x.Format(timeLayout)), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("%w: %T: %v", ErrUnsupportedBindValue, v, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return "", fmt.Errorf("%w: %T", ErrUnsupportedBindValue, v)
		}
		return q.quoteScalar(dv)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: non-finite float %v", ErrUnsupportedBindValue, f)
		}
		return strconv.FormatFloat(f, 'f', -1, rv.Type().Bits()), nil
	case reflect.String:
		return q.quoteScalar(rv.String())
	case reflect.Bool:
		return q.quoteScalar(rv.Bool())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return q.escape(string(rv.Bytes())), nil
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return q.escape(""), nil
		}
		return q.quoteScalar(rv.Elem().Interface())
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedBindValue, v)
}

// QuoteValuesIn replaces ? placeholders outside string literals, left to
// right, with quoted values. With exactly one placeholder a single value is
// quoted as itself and several values as one list. Replacement stops quietly
// when either placeholders or values run out.
func (q Quoter) QuoteValuesIn(text string, values ...any) (string, error) {
	if len(values) == 0 {
		return text, nil
	}
	spans := splitLiterals(text, q.Backslash)
	count := 0
	for _, s := range spans {
		if !s.literal {
			count += strings.Count(s.text, "?")
		}
	}
	if count == 0 {
		return text, nil
	}
	if count == 1 && len(values) > 1 {
		values = []any{values}
	}

	next := 0
	for i := range spans {
		if spans[i].literal || next == len(values) {
			continue
		}
		part := spans[i].text
		var b strings.Builder
		for next < len(values) {
			p := strings.IndexByte(part, '?')
			if p < 0 {
				break
			}
			s, err := q.QuoteValue(values[next])
			if err != nil {
				return "", err
			}
			b.WriteString(part[:p])
			b.WriteString(s)
			part = part[p+1:]
			next++
		}
		b.WriteString(part)
		spans[i].text = b.String()
	}
	return joinSpans(spans), nil
}

// sequenceOf reports whether v is bound as a sequence: a slice or array other
// than a byte slice, not wrapped by Scalar and not a driver.Valuer.
func sequenceOf(v any) (reflect.Value, bool) {
	switch v.(type) {
	case nil, scalar, []byte, driver.Valuer:
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return reflect.Value{}, false
	}
	return rv, true
}
