package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ConradIrwin/edn-go"
)

// jsonEncoder writes JSON. Keywords appear as strings with a leading colon,
// sets as arrays, and tagged values other than #inst and #uuid as a single
// entry object {"#tag": value}.
type jsonEncoder struct {
	b      *bytes.Buffer
	indent string
	depth  int
}

func toJSON(v edn.Value, opts options) (string, error) {
	e := &jsonEncoder{b: &bytes.Buffer{}}
	if opts.Pretty {
		e.indent = opts.Indent
	}
	if err := v.EncodeEDN(e); err != nil {
		return "", err
	}
	return e.b.String(), nil
}

func (e *jsonEncoder) quote(s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	e.b.Write(data)
	return nil
}

func (e *jsonEncoder) newline() {
	if e.indent == "" {
		return
	}
	e.b.WriteByte('\n')
	for range e.depth {
		e.b.WriteString(e.indent)
	}
}

func (e *jsonEncoder) Nil() error          { e.b.WriteString("null"); return nil }
func (e *jsonEncoder) Bool(v bool) error   { e.b.WriteString(strconv.FormatBool(v)); return nil }
func (e *jsonEncoder) Int(v int64) error   { e.b.WriteString(strconv.FormatInt(v, 10)); return nil }
func (e *jsonEncoder) Uint(v uint64) error { e.b.WriteString(strconv.FormatUint(v, 10)); return nil }
func (e *jsonEncoder) Char(v rune) error   { return e.quote(string(v)) }
func (e *jsonEncoder) String(v string) error {
	return e.quote(v)
}

func (e *jsonEncoder) Float(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%v cannot be represented in JSON", edn.Float(v))
	}
	e.b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	return nil
}

func (e *jsonEncoder) Bytes(v []byte) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.b.Write(data)
	return nil
}

func (e *jsonEncoder) open(opening, closing byte) *jsonCollection {
	e.b.WriteByte(opening)
	e.depth++
	return &jsonCollection{e: e, closing: closing}
}

func (e *jsonEncoder) Seq(int) (edn.SeqEncoder, error)   { return e.open('[', ']'), nil }
func (e *jsonEncoder) Tuple(int) (edn.SeqEncoder, error) { return e.open('[', ']'), nil }
func (e *jsonEncoder) Map(int) (edn.MapEncoder, error)   { return e.open('{', '}'), nil }

func (e *jsonEncoder) Struct(string, int) (edn.StructEncoder, error) {
	return e.open('{', '}'), nil
}

func (e *jsonEncoder) Tagged(tag string, v any) error {
	switch tag {
	case "inst", "uuid":
		return edn.Encode(v, e)
	}
	m := e.open('{', '}')
	if err := m.Field("#"+tag, v); err != nil {
		return err
	}
	return m.End()
}

// jsonCollection is the sub-encoder for arrays and objects.
type jsonCollection struct {
	e       *jsonEncoder
	closing byte
	n       int
	hasKey  bool
}

func (c *jsonCollection) sep() {
	if c.n > 0 {
		c.e.b.WriteByte(',')
	}
	c.n++
	c.e.newline()
}

func (c *jsonCollection) Elem(v any) error {
	c.sep()
	return edn.Encode(v, c.e)
}

// Key writes k as a JSON string. Non-string keys are written as their
// JSON text, quoted.
func (c *jsonCollection) Key(k any) error {
	c.sep()
	key := &jsonEncoder{b: &bytes.Buffer{}}
	if err := edn.Encode(k, key); err != nil {
		return err
	}
	text := key.b.String()
	if text == "" || text[0] != '"' {
		if err := c.e.quote(text); err != nil {
			return err
		}
	} else {
		c.e.b.WriteString(text)
	}
	c.hasKey = true
	return nil
}

func (c *jsonCollection) Value(v any) error {
	if !c.hasKey {
		panic("ednfmt: Value called before Key")
	}
	c.hasKey = false
	c.e.b.WriteByte(':')
	if c.e.indent != "" {
		c.e.b.WriteByte(' ')
	}
	return edn.Encode(v, c.e)
}

func (c *jsonCollection) Field(name string, v any) error {
	if err := c.Key(name); err != nil {
		return err
	}
	return c.Value(v)
}

func (c *jsonCollection) End() error {
	c.e.depth--
	if c.n > 0 {
		c.e.newline()
	}
	c.e.b.WriteByte(c.closing)
	return nil
}
