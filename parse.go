package edn

import (
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ConradIrwin/edn-go/symbol"
	"github.com/google/uuid"
)

// maxDepth limits nesting of collections, tags and discards.
const maxDepth = 10000

type parser struct {
	input string
	next  func() (Token, bool)
	// start is the first token of the form most recently returned by read
	start Token
	depth int
}

func newParser(input string) (*parser, func()) {
	next, stop := iter.Pull(Tokens(input))
	return &parser{input: input, next: next}, stop
}

func (p *parser) errorAt(tok Token, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Lno: tok.Lno, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// errorAtEnd reports that the input ended in the middle of a form.
func (p *parser) errorAtEnd(format string, args ...any) *Error {
	e := p.errorAt(p.end(), SyntaxError, format, args...)
	e.incomplete = true
	return e
}

// end is a pseudo-token positioned just after the last character.
func (p *parser) end() Token {
	lno := strings.Count(p.input, "\n") + 1
	last := p.input[strings.LastIndex(p.input, "\n")+1:]
	return Token{Lno: lno, Col: utf8.RuneCountInString(last) + 1}
}

func (p *parser) token() (Token, bool) {
	for {
		tok, ok := p.next()
		if !ok || tok.Kind != TokenComment {
			return tok, ok
		}
	}
}

// enter increments the nesting depth. The caller must call p.leave.
func (p *parser) enter(tok Token) error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorAt(tok, SyntaxError, "nesting too deep, limit %d", maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// read returns the next form. If a closing delimiter is found instead, it is
// returned as closer. At the end of the input both are nil.
func (p *parser) read() (Value, *Token, error) {
	for {
		tok, ok := p.token()
		if !ok {
			return nil, nil, nil
		}
		switch tok.Kind {
		case TokenDiscard:
			err := p.enter(tok)
			var discarded Value
			var closer *Token
			if err == nil {
				discarded, closer, err = p.read()
			}
			p.leave()
			if err != nil {
				return nil, nil, err
			}
			if discarded == nil {
				if closer == nil {
					return nil, nil, p.errorAtEnd("missing form after #_")
				}
				return nil, nil, p.errorAt(*closer, SyntaxError, "missing form after #_")
			}
		case TokenCloseList, TokenCloseVector, TokenCloseBrace:
			return nil, &tok, nil
		default:
			v, err := p.value(tok)
			p.start = tok
			return v, nil, err
		}
	}
}

// elements reads forms up to the matching closing delimiter.
func (p *parser) elements(open Token, close TokenKind) ([]Value, []Token, error) {
	values := []Value{}
	starts := []Token{}
	for {
		v, closer, err := p.read()
		if err != nil {
			return nil, nil, err
		}
		if closer != nil {
			if closer.Kind != close {
				return nil, nil, p.errorAt(*closer, SyntaxError, "unexpected %s, expected %s", closer.Content, closing(close))
			}
			return values, starts, nil
		}
		if v == nil {
			return nil, nil, p.errorAtEnd("unclosed %s", open.Content)
		}
		values = append(values, v)
		starts = append(starts, p.start)
	}
}

func closing(kind TokenKind) string {
	switch kind {
	case TokenCloseList:
		return ")"
	case TokenCloseVector:
		return "]"
	default:
		return "}"
	}
}

func (p *parser) value(tok Token) (Value, error) {
	switch tok.Kind {
	case TokenOpenVector, TokenOpenList, TokenOpenSet, TokenOpenMap, TokenTag:
		defer p.leave()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
	}

	switch tok.Kind {
	case TokenNil:
		return Nil{}, nil
	case TokenBool:
		return Bool(tok.Content == "true"), nil
	case TokenInt:
		i, err := strconv.ParseInt(strings.TrimSuffix(tok.Content, "N"), 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, OutOfRange, "integer %s out of range", tok.Content)
		}
		return Int(i), nil
	case TokenFloat:
		switch tok.Content {
		case "##Inf":
			return Float(math.Inf(1)), nil
		case "##-Inf":
			return Float(math.Inf(-1)), nil
		case "##NaN":
			return Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(tok.Content, "M"), 64)
		if err != nil {
			return nil, p.errorAt(tok, OutOfRange, "float %s out of range", tok.Content)
		}
		return Float(f), nil
	case TokenString:
		return String(tok.Content), nil
	case TokenChar:
		r, _ := utf8.DecodeRuneInString(tok.Content)
		return Char(r), nil
	case TokenSymbol:
		return Symbol{symbol.Intern(tok.Content)}, nil
	case TokenKeyword:
		return Keyword{symbol.Intern(tok.Content)}, nil
	case TokenOpenVector:
		values, _, err := p.elements(tok, TokenCloseVector)
		if err != nil {
			return nil, err
		}
		return Vector(values), nil
	case TokenOpenList:
		values, _, err := p.elements(tok, TokenCloseList)
		if err != nil {
			return nil, err
		}
		return List(values), nil
	case TokenOpenSet:
		values, starts, err := p.elements(tok, TokenCloseBrace)
		if err != nil {
			return nil, err
		}
		set := NewSet()
		for i, v := range values {
			if !set.Add(v) {
				return nil, p.errorAt(starts[i], SyntaxError, "duplicate set element %s", v)
			}
		}
		return set, nil
	case TokenOpenMap:
		return p.mapValue(tok)
	case TokenTag:
		return p.tagged(tok)
	case TokenError:
		kind := SyntaxError
		if tok.Content == "invalid UTF-8" {
			kind = InvalidUTF8
		}
		e := p.errorAt(tok, kind, "%s", tok.Content)
		e.incomplete = tok.Content == msgUnterminatedString || tok.Content == msgEscapeAtEnd
		return nil, e
	default:
		panic(fmt.Errorf("%d:%d: unexpected token %#v", tok.Lno, tok.Col, tok))
	}
}

func (p *parser) mapValue(open Token) (Value, error) {
	values, starts, err := p.elements(open, TokenCloseBrace)
	if err != nil {
		return nil, err
	}
	if len(values)%2 != 0 {
		return nil, p.errorAt(open, SyntaxError, "map literal must contain an even number of forms")
	}
	m := NewMap()
	for i := 0; i < len(values); i += 2 {
		k, err := TryKey(values[i])
		if err != nil {
			return nil, p.errorAt(starts[i], InvalidKey, "%s cannot be a map key", values[i].Kind())
		}
		if !m.Set(k, values[i+1]) {
			return nil, p.errorAt(starts[i], SyntaxError, "duplicate map key %s", k)
		}
	}
	return m, nil
}

func (p *parser) tagged(tag Token) (Value, error) {
	v, closer, err := p.read()
	if err != nil {
		return nil, err
	}
	if v == nil {
		if closer == nil {
			return nil, p.errorAtEnd("missing form after #%s", tag.Content)
		}
		return nil, p.errorAt(*closer, SyntaxError, "missing form after #%s", tag.Content)
	}

	switch tag.Content {
	case "uuid":
		s, ok := v.(String)
		if !ok {
			return nil, p.errorAt(p.start, InvalidUUID, "#uuid expects a string, got %s", v.Kind())
		}
		u, err := uuid.Parse(string(s))
		if err != nil {
			e := p.errorAt(p.start, InvalidUUID, "invalid uuid %s", v)
			e.Err = err
			return nil, e
		}
		return UUID(u), nil
	case "inst":
		s, ok := v.(String)
		if !ok {
			return nil, p.errorAt(p.start, InvalidTimestamp, "#inst expects a string, got %s", v.Kind())
		}
		t, err := time.Parse(time.RFC3339Nano, string(s))
		if err != nil {
			e := p.errorAt(p.start, InvalidTimestamp, "invalid timestamp %s", v)
			e.Err = err
			return nil, e
		}
		return Instant{t}, nil
	default:
		return Tagged{Tag: symbol.Intern(tag.Content), Value: v}, nil
	}
}

func (p *parser) checkUTF8() error {
	if utf8.ValidString(p.input) {
		return nil
	}
	for i, r := range p.input {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(p.input[i:]); size == 1 {
				prefix := &parser{input: p.input[:i]}
				return p.errorAt(prefix.end(), InvalidUTF8, "invalid UTF-8")
			}
		}
	}
	return nil
}

// Parse parses exactly one EDN value from input.
//
// Comments, whitespace and discarded (#_) forms may surround the value, but
// any other trailing content is a [SyntaxError]. Tagged literals #uuid and
// #inst are converted to [UUID] and [Instant]; other tags are returned as
// [Tagged].
//
// All errors are of type [*Error].
func Parse(input string) (Value, error) {
	p, stop := newParser(input)
	defer stop()
	if err := p.checkUTF8(); err != nil {
		return nil, err
	}

	v, closer, err := p.read()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		return nil, p.errorAt(*closer, SyntaxError, "unexpected %s", closer.Content)
	}
	if v == nil {
		return nil, p.errorAt(p.end(), SyntaxError, "unexpected end of input")
	}

	extra, closer, err := p.read()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		return nil, p.errorAt(*closer, SyntaxError, "unexpected %s", closer.Content)
	}
	if extra != nil {
		return nil, p.errorAt(p.start, SyntaxError, "unexpected %s after top-level form", extra.Kind())
	}
	return v, nil
}

// ParseAll parses a sequence of zero or more top-level EDN values.
func ParseAll(input string) ([]Value, error) {
	p, stop := newParser(input)
	defer stop()
	if err := p.checkUTF8(); err != nil {
		return nil, err
	}

	values := []Value{}
	for {
		v, closer, err := p.read()
		if err != nil {
			return nil, err
		}
		if closer != nil {
			return nil, p.errorAt(*closer, SyntaxError, "unexpected %s", closer.Content)
		}
		if v == nil {
			return values, nil
		}
		values = append(values, v)
	}
}

// ParseReader reads all of r and parses it with [Parse].
// A failure to read is reported as an [IOError].
func ParseReader(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: IOError, Err: err}
	}
	return Parse(string(data))
}
