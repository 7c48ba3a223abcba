package edn

import (
	"cmp"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// An Encoder receives a structured value one shape at a time.
//
// [Encode] walks Go data through an Encoder, and every [Value] can walk
// itself through one with its EncodeEDN method. [ToValue] uses an Encoder
// that builds a Value, and other implementations can turn EDN data into
// different formats without inspecting Values directly.
//
// Composite shapes return a sub-encoder. Elements passed to a sub-encoder
// are arbitrary Go values, which the sub-encoder typically passes to
// [Encode] with an Encoder of its own.
type Encoder interface {
	Nil() error
	Bool(b bool) error
	Int(i int64) error
	Uint(u uint64) error
	Float(f float64) error
	Char(r rune) error
	String(s string) error
	Bytes(b []byte) error
	// Seq starts a variable length sequence of n elements.
	Seq(n int) (SeqEncoder, error)
	// Tuple starts a fixed length sequence of n elements.
	Tuple(n int) (SeqEncoder, error)
	Map(n int) (MapEncoder, error)
	// Struct starts a record of the named type with n fields.
	Struct(name string, n int) (StructEncoder, error)
	// Tagged encodes v labelled with tag. Tags are also used for variants.
	Tagged(tag string, v any) error
}

// SeqEncoder receives the elements of a Seq or Tuple.
type SeqEncoder interface {
	Elem(v any) error
	End() error
}

// MapEncoder receives the entries of a Map. Each call to Key must be
// followed by one call to Value.
type MapEncoder interface {
	Key(k any) error
	Value(v any) error
	End() error
}

// StructEncoder receives the fields of a Struct.
type StructEncoder interface {
	Field(name string, v any) error
	End() error
}

// Marshaler is implemented by types that encode themselves.
// Every [Value] and [Key] is a Marshaler.
type Marshaler interface {
	EncodeEDN(e Encoder) error
}

func (Nil) EncodeEDN(e Encoder) error       { return e.Nil() }
func (v Bool) EncodeEDN(e Encoder) error    { return e.Bool(bool(v)) }
func (v Int) EncodeEDN(e Encoder) error     { return e.Int(int64(v)) }
func (v Float) EncodeEDN(e Encoder) error   { return e.Float(float64(v)) }
func (v String) EncodeEDN(e Encoder) error  { return e.String(string(v)) }
func (v Char) EncodeEDN(e Encoder) error    { return e.Char(rune(v)) }
func (v Symbol) EncodeEDN(e Encoder) error  { return e.String(v.Name.String()) }
func (v Keyword) EncodeEDN(e Encoder) error { return e.String(":" + v.Name.String()) }

func (v Vector) EncodeEDN(e Encoder) error {
	s, err := e.Seq(len(v))
	if err != nil {
		return err
	}
	return encodeElems(s, v)
}

func (v List) EncodeEDN(e Encoder) error {
	s, err := e.Tuple(len(v))
	if err != nil {
		return err
	}
	return encodeElems(s, v)
}

// EncodeEDN encodes the set as a Seq in iteration order.
func (v *Set) EncodeEDN(e Encoder) error {
	s, err := e.Seq(v.Len())
	if err != nil {
		return err
	}
	return encodeElems(s, v.elems)
}

func encodeElems(s SeqEncoder, elems []Value) error {
	for _, elem := range elems {
		if err := s.Elem(elem); err != nil {
			return err
		}
	}
	return s.End()
}

// EncodeEDN encodes the map in insertion order. Keys are passed to the
// [MapEncoder] as [Key] values.
func (v *Map) EncodeEDN(e Encoder) error {
	m, err := e.Map(v.Len())
	if err != nil {
		return err
	}
	for k, val := range v.All() {
		if err := m.Key(k); err != nil {
			return err
		}
		if err := m.Value(val); err != nil {
			return err
		}
	}
	return m.End()
}

func (v Instant) EncodeEDN(e Encoder) error {
	return e.Tagged("inst", v.UTC().Format(time.RFC3339Nano))
}

func (v UUID) EncodeEDN(e Encoder) error {
	return e.Tagged("uuid", uuid.UUID(v).String())
}

func (v Tagged) EncodeEDN(e Encoder) error {
	return e.Tagged(v.Tag.String(), v.Value)
}

var (
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	timeType          = reflect.TypeFor[time.Time]()
	uuidType          = reflect.TypeFor[uuid.UUID]()
)

// Encode walks v through e.
//
// Values implementing [Marshaler] encode themselves. Otherwise booleans,
// integers, floats and strings become scalars, nil pointers and interfaces
// become Nil, []byte and byte arrays become Bytes, other slices become a
// Seq, other arrays become a Tuple, maps become a Map with keys in sorted
// order, and structs become a Struct. A time.Time is encoded as
// Tagged("inst", text), a uuid.UUID as Tagged("uuid", text), and other
// [encoding.TextMarshaler]s as a String.
//
// For struct fields, the name comes from an `edn:"name"` tag, then from a
// `json:"name"` tag, and finally from the field name itself. The tag option
// omitempty skips zero fields, and the tag "-" skips the field entirely.
//
// Channels, funcs and complex numbers return an [UnsupportedType] error.
func Encode(v any, e Encoder) error {
	return encodeValue(reflect.ValueOf(v), e)
}

func encodeValue(val reflect.Value, e Encoder) error {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return e.Nil()
		}
		val = val.Elem()
	}
	if !val.IsValid() {
		return e.Nil()
	}

	t := val.Type()
	if m, ok := methods(val, marshalerType); ok {
		return m.Interface().(Marshaler).EncodeEDN(e)
	}
	switch t {
	case timeType:
		return e.Tagged("inst", val.Interface().(time.Time).Format(time.RFC3339Nano))
	case uuidType:
		return e.Tagged("uuid", val.Interface().(uuid.UUID).String())
	}
	if m, ok := methods(val, textMarshalerType); ok {
		text, err := m.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		return e.String(string(text))
	}

	switch val.Kind() {
	case reflect.Bool:
		return e.Bool(val.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.Int(val.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.Uint(val.Uint())
	case reflect.Float32, reflect.Float64:
		return e.Float(val.Float())
	case reflect.String:
		return e.String(val.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return e.Bytes(val.Bytes())
		}
		s, err := e.Seq(val.Len())
		if err != nil {
			return err
		}
		return encodeIndexed(s, val)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, val.Len())
			reflect.Copy(reflect.ValueOf(buf), val)
			return e.Bytes(buf)
		}
		s, err := e.Tuple(val.Len())
		if err != nil {
			return err
		}
		return encodeIndexed(s, val)
	case reflect.Map:
		return encodeMap(val, e)
	case reflect.Struct:
		return encodeStruct(val, e)
	default:
		return errorf(UnsupportedType, "unsupported type: %s", t)
	}
}

// methods returns val, or its address when only the pointer type
// implements iface.
func methods(val reflect.Value, iface reflect.Type) (reflect.Value, bool) {
	if val.Type().Implements(iface) {
		return val, true
	}
	if val.CanAddr() && reflect.PointerTo(val.Type()).Implements(iface) {
		return val.Addr(), true
	}
	return val, false
}

func encodeIndexed(s SeqEncoder, val reflect.Value) error {
	for i := range val.Len() {
		if err := s.Elem(val.Index(i).Interface()); err != nil {
			return err
		}
	}
	return s.End()
}

// compareMapKeys gives map iteration a deterministic order.
func compareMapKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return strings.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	default:
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	}
}

func encodeMap(val reflect.Value, e Encoder) error {
	keys := val.MapKeys()
	slices.SortFunc(keys, compareMapKeys)
	m, err := e.Map(len(keys))
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := m.Key(k.Interface()); err != nil {
			return err
		}
		if err := m.Value(val.MapIndex(k).Interface()); err != nil {
			return err
		}
	}
	return m.End()
}

type structField struct {
	name      string
	index     int
	omitEmpty bool
}

func structFields(t reflect.Type) []structField {
	fields := []structField{}
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := field.Tag.Lookup("edn")
		if !ok {
			tag, _ = field.Tag.Lookup("json")
		}
		if tag == "-" {
			continue
		}
		name, options, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		fields = append(fields, structField{
			name:      name,
			index:     i,
			omitEmpty: strings.Contains(options, "omitempty"),
		})
	}
	return fields
}

func encodeStruct(val reflect.Value, e Encoder) error {
	fields := []structField{}
	for _, f := range structFields(val.Type()) {
		if f.omitEmpty && val.Field(f.index).IsZero() {
			continue
		}
		fields = append(fields, f)
	}
	s, err := e.Struct(val.Type().Name(), len(fields))
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := s.Field(f.name, val.Field(f.index).Interface()); err != nil {
			return err
		}
	}
	return s.End()
}

func isNilPointer(v any) bool {
	val := reflect.ValueOf(v)
	return val.Kind() == reflect.Pointer && val.IsNil()
}

// ToValue converts v to a [Value] using [Encode].
//
// A Value is returned unchanged. Map keys and struct field names are
// converted to [Key]s: text beginning with a colon becomes a keyword, other
// text becomes a symbol, and integers, booleans, characters and uuids are
// kept as they are. Any other key returns an [UnsupportedType] error.
//
// Unsigned integers larger than math.MaxInt64 return an [OutOfRange] error,
// and bytes that are not valid UTF-8 return an [InvalidUTF8] error. A value
// tagged "inst" or "uuid" is converted to an [Instant] or [UUID] in the same
// way as by [Parse].
func ToValue(v any) (Value, error) {
	if k, ok := v.(Key); ok {
		return k.Value(), nil
	}
	if val, ok := v.(Value); ok && !isNilPointer(v) {
		return val, nil
	}
	b := &valueEncoder{}
	if err := Encode(v, b); err != nil {
		return nil, err
	}
	if b.v == nil {
		return nil, errorf(UnsupportedType, "%T encoded no value", v)
	}
	return b.v, nil
}

// valueEncoder builds a Value.
type valueEncoder struct {
	v Value
}

func (b *valueEncoder) Nil() error            { b.v = Nil{}; return nil }
func (b *valueEncoder) Bool(v bool) error     { b.v = Bool(v); return nil }
func (b *valueEncoder) Int(v int64) error     { b.v = Int(v); return nil }
func (b *valueEncoder) Float(v float64) error { b.v = Float(v); return nil }
func (b *valueEncoder) Char(v rune) error     { b.v = Char(v); return nil }
func (b *valueEncoder) String(v string) error { b.v = String(v); return nil }

func (b *valueEncoder) Uint(v uint64) error {
	if v > math.MaxInt64 {
		return errorf(OutOfRange, "integer %d out of range", v)
	}
	b.v = Int(v)
	return nil
}

func (b *valueEncoder) Bytes(v []byte) error {
	if !utf8.Valid(v) {
		return errorf(InvalidUTF8, "invalid UTF-8 in bytes")
	}
	b.v = String(v)
	return nil
}

func (b *valueEncoder) Seq(n int) (SeqEncoder, error) {
	return &seqBuilder{parent: b, elems: make([]Value, 0, n)}, nil
}

func (b *valueEncoder) Tuple(n int) (SeqEncoder, error) {
	return &seqBuilder{parent: b, elems: make([]Value, 0, n), list: true}, nil
}

func (b *valueEncoder) Map(n int) (MapEncoder, error) {
	return &mapBuilder{parent: b, m: NewMap()}, nil
}

func (b *valueEncoder) Struct(name string, n int) (StructEncoder, error) {
	return &mapBuilder{parent: b, m: NewMap()}, nil
}

func (b *valueEncoder) Tagged(tag string, v any) error {
	val, err := ToValue(v)
	if err != nil {
		return err
	}
	switch tag {
	case "inst":
		s, ok := val.(String)
		if !ok {
			return errorf(InvalidTimestamp, "#inst expects a string, got %s", val.Kind())
		}
		t, err := time.Parse(time.RFC3339Nano, string(s))
		if err != nil {
			return &Error{Kind: InvalidTimestamp, Msg: "invalid timestamp " + val.String(), Err: err}
		}
		b.v = Instant{t}
	case "uuid":
		s, ok := val.(String)
		if !ok {
			return errorf(InvalidUUID, "#uuid expects a string, got %s", val.Kind())
		}
		u, err := uuid.Parse(string(s))
		if err != nil {
			return &Error{Kind: InvalidUUID, Msg: "invalid uuid " + val.String(), Err: err}
		}
		b.v = UUID(u)
	default:
		b.v = NewTagged(tag, val)
	}
	return nil
}

type seqBuilder struct {
	parent *valueEncoder
	elems  []Value
	list   bool
}

func (s *seqBuilder) Elem(v any) error {
	val, err := ToValue(v)
	if err != nil {
		return err
	}
	s.elems = append(s.elems, val)
	return nil
}

func (s *seqBuilder) End() error {
	if s.list {
		s.parent.v = List(s.elems)
	} else {
		s.parent.v = Vector(s.elems)
	}
	return nil
}

type mapBuilder struct {
	parent *valueEncoder
	m      *Map
	key    *Key
}

func (m *mapBuilder) Key(k any) error {
	key, err := ToKey(k)
	if err != nil {
		return err
	}
	m.key = &key
	return nil
}

func (m *mapBuilder) Value(v any) error {
	if m.key == nil {
		panic("edn: MapEncoder.Value called before Key")
	}
	val, err := ToValue(v)
	if err != nil {
		return err
	}
	m.m.Set(*m.key, val)
	m.key = nil
	return nil
}

func (m *mapBuilder) Field(name string, v any) error {
	if err := m.Key(name); err != nil {
		return err
	}
	return m.Value(v)
}

func (m *mapBuilder) End() error {
	m.parent.v = m.m
	return nil
}

// ToKey converts v to a [Key] using [Encode]. Keys and key-like Values are
// returned as they are; other data follows the key rules of [ToValue].
func ToKey(v any) (Key, error) {
	switch k := v.(type) {
	case Key:
		return k, nil
	case Value:
		if !isNilPointer(v) {
			key, err := TryKey(k)
			if err != nil {
				return Key{}, errorf(UnsupportedType, "%s cannot be a map key", k.Kind())
			}
			return key, nil
		}
	}
	b := &keyEncoder{}
	if err := Encode(v, b); err != nil {
		return Key{}, err
	}
	if !b.ok {
		return Key{}, errorf(UnsupportedType, "%T encoded no key", v)
	}
	return b.k, nil
}

// keyEncoder accepts only the shapes that can be a [Key].
type keyEncoder struct {
	k  Key
	ok bool
}

func (b *keyEncoder) set(k Key) error {
	b.k, b.ok = k, true
	return nil
}

func unsupportedKey(shape string) error {
	return errorf(UnsupportedType, "%s cannot be a map key", shape)
}

func (b *keyEncoder) Nil() error          { return unsupportedKey("nil") }
func (b *keyEncoder) Bool(v bool) error   { return b.set(BoolKey(v)) }
func (b *keyEncoder) Int(v int64) error   { return b.set(IntKey(v)) }
func (b *keyEncoder) Char(v rune) error   { return b.set(CharKey(v)) }
func (b *keyEncoder) Float(float64) error { return unsupportedKey("float") }
func (b *keyEncoder) Bytes([]byte) error  { return unsupportedKey("bytes") }

func (b *keyEncoder) Uint(v uint64) error {
	if v > math.MaxInt64 {
		return errorf(OutOfRange, "integer %d out of range", v)
	}
	return b.set(IntKey(int64(v)))
}

func (b *keyEncoder) String(v string) error {
	if name, ok := strings.CutPrefix(v, ":"); ok {
		return b.set(KeywordKey(name))
	}
	return b.set(SymbolKey(v))
}

func (b *keyEncoder) Seq(int) (SeqEncoder, error)   { return nil, unsupportedKey("sequence") }
func (b *keyEncoder) Tuple(int) (SeqEncoder, error) { return nil, unsupportedKey("tuple") }
func (b *keyEncoder) Map(int) (MapEncoder, error)   { return nil, unsupportedKey("map") }

func (b *keyEncoder) Struct(name string, n int) (StructEncoder, error) {
	return nil, unsupportedKey("struct " + name)
}

func (b *keyEncoder) Tagged(tag string, v any) error {
	if tag != "uuid" {
		return unsupportedKey("#" + tag)
	}
	val, err := ToValue(v)
	if err != nil {
		return err
	}
	s, ok := val.(String)
	if !ok {
		return errorf(InvalidUUID, "#uuid expects a string, got %s", val.Kind())
	}
	u, err := uuid.Parse(string(s))
	if err != nil {
		return &Error{Kind: InvalidUUID, Msg: "invalid uuid " + val.String(), Err: err}
	}
	return b.set(UUIDKey(u))
}
