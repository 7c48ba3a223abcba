package edn

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// instFormat is RFC 3339 with millisecond precision.
const instFormat = "2006-01-02T15:04:05.000Z07:00"

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\f':
			b.WriteString(`\f`)
		case c == '\b':
			b.WriteString(`\b`)
		case unicode.IsControl(c):
			fmt.Fprintf(&b, `\u%04X`, c)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quoteChar(c rune) string {
	switch {
	case c == '\n':
		return `\newline`
	case c == '\r':
		return `\return`
	case c == ' ':
		return `\space`
	case c == '\t':
		return `\tab`
	case unicode.IsControl(c) || unicode.IsSpace(c) || !utf8.ValidRune(c):
		return fmt.Sprintf(`\u%04X`, c)
	default:
		return `\` + string(c)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "##NaN"
	case math.IsInf(f, 1):
		return "##Inf"
	case math.IsInf(f, -1):
		return "##-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

type printer struct {
	b      strings.Builder
	indent string
}

func (p *printer) newline(depth int) {
	p.b.WriteByte('\n')
	for range depth {
		p.b.WriteString(p.indent)
	}
}

func (p *printer) seq(open, close string, elems iter.Seq[Value], n int, depth int) {
	p.b.WriteString(open)
	i := 0
	for v := range elems {
		if p.indent != "" {
			p.newline(depth + 1)
		} else if i > 0 {
			p.b.WriteByte(' ')
		}
		p.value(v, depth+1)
		i++
	}
	if p.indent != "" && n > 0 {
		p.newline(depth)
	}
	p.b.WriteString(close)
}

func (p *printer) value(v Value, depth int) {
	switch v := v.(type) {
	case Nil:
		p.b.WriteString("nil")
	case Bool:
		p.b.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		p.b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		p.b.WriteString(formatFloat(float64(v)))
	case String:
		p.b.WriteString(quoteString(string(v)))
	case Symbol:
		p.b.WriteString(v.Name.String())
	case Keyword:
		p.b.WriteString(":" + v.Name.String())
	case Vector:
		p.seq("[", "]", slices.Values(v), len(v), depth)
	case List:
		p.seq("(", ")", slices.Values(v), len(v), depth)
	case *Set:
		p.seq("#{", "}", v.All(), v.Len(), depth)
	case *Map:
		p.b.WriteString("{")
		i := 0
		for k, e := range v.All() {
			if i > 0 {
				p.b.WriteByte(',')
				if p.indent == "" {
					p.b.WriteByte(' ')
				}
			}
			if p.indent != "" {
				p.newline(depth + 1)
			}
			p.value(k.Value(), depth+1)
			p.b.WriteByte(' ')
			p.value(e, depth+1)
			i++
		}
		if p.indent != "" && i > 0 {
			p.newline(depth)
		}
		p.b.WriteString("}")
	case Instant:
		p.b.WriteString(`#inst "` + v.UTC().Format(instFormat) + `"`)
	case UUID:
		p.b.WriteString(`#uuid "` + uuid.UUID(v).String() + `"`)
	case Char:
		p.b.WriteString(quoteChar(rune(v)))
	case Tagged:
		p.b.WriteString("#" + v.Tag.String() + " ")
		p.value(v.Value, depth)
	default:
		panic(fmt.Errorf("unknown Value type %T", v))
	}
}

// Format returns the canonical EDN text for v. [Parse] of the result
// returns a value equal to v, except that instants are truncated to
// millisecond precision and converted to UTC.
//
// Map entries are separated by ", " and printed in insertion order.
func Format(v Value) string {
	p := &printer{}
	p.value(v, 0)
	return p.b.String()
}

// FormatIndent is like [Format] but puts each element of a vector, list,
// set or map on its own line, indented by one copy of indent per level of
// nesting. Map entries keep a trailing comma. An empty indent is treated as
// two spaces.
func FormatIndent(v Value, indent string) string {
	if indent == "" {
		indent = "  "
	}
	p := &printer{indent: indent}
	p.value(v, 0)
	return p.b.String()
}

