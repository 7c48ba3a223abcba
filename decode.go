package edn

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Unmarshaler is implemented by types that decode themselves from a Value.
type Unmarshaler interface {
	DecodeEDN(v Value) error
}

var (
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	valueType           = reflect.TypeFor[Value]()
)

// Decode stores v in the value pointed to by target, which must be a
// non-nil pointer. Decode is the inverse of [ToValue], and acts similarly
// to json.Unmarshal.
//
// Struct fields are matched against keywords, symbols and strings using the
// `edn:"name"` tag, then the `json:"name"` tag, then the field name and its
// snake_case form. Unknown fields are an error.
//
// When decoding into an empty interface, maps become map[string]any (keyed
// by the text of the key), vectors, lists and sets become []any, integers
// become int64, floats become float64, strings, symbols and keywords become
// string (without the colon), characters become rune, instants become
// time.Time and uuids become uuid.UUID. Other tagged values are stored as
// [Tagged]. An interface that [Value] satisfies receives v itself.
//
// If v does not match the type of target, an [UnsupportedType] error is
// returned. Numbers that do not fit return an [OutOfRange] error.
func Decode(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errorf(UnsupportedType, "invalid target, must be a non-nil pointer")
	}
	return decodeValue(v, rv.Elem())
}

func mismatch(v Value, t reflect.Type) error {
	return errorf(UnsupportedType, "cannot decode %s into %s", v.Kind(), t)
}

// text returns the characters of a string, symbol or keyword.
func text(v Value) (string, bool) {
	switch v := v.(type) {
	case String:
		return string(v), true
	case Symbol:
		return v.Name.String(), true
	case Keyword:
		return v.Name.String(), true
	default:
		return "", false
	}
}

func decodeValue(v Value, rv reflect.Value) error {
	if !rv.CanSet() {
		panic(fmt.Errorf("cannot set value of type: %v", rv.Type()))
	}
	t := rv.Type()
	if v == nil {
		return errorf(UnsupportedType, "cannot decode a missing value into %s", t)
	}

	if rv.CanAddr() && reflect.PointerTo(t).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).DecodeEDN(v)
	}
	if t.Kind() == reflect.Interface && valueType.Implements(t) && t.NumMethod() > 0 {
		rv.Set(reflect.ValueOf(v))
		return nil
	}
	if vt := reflect.TypeOf(v); t.Kind() != reflect.Interface && vt.AssignableTo(t) {
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	switch t {
	case timeType:
		return decodeTime(v, rv)
	case uuidType:
		return decodeUUID(v, rv)
	}

	if rv.CanAddr() && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		s, ok := text(v)
		if !ok {
			return mismatch(v, t)
		}
		return rv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	switch t.Kind() {
	case reflect.Pointer:
		if _, ok := v.(Nil); ok {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(t.Elem()))
		}
		return decodeValue(v, rv.Elem())
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return mismatch(v, t)
		}
		a, err := toAny(v)
		if err != nil {
			return err
		}
		if a == nil {
			rv.SetZero()
		} else {
			rv.Set(reflect.ValueOf(a))
		}
		return nil
	case reflect.Struct:
		return decodeStruct(v, rv)
	case reflect.Map:
		return decodeMap(v, rv)
	case reflect.Slice:
		return decodeSlice(v, rv)
	case reflect.Array:
		return decodeArray(v, rv)
	default:
		return decodeScalar(v, rv)
	}
}

func decodeTime(v Value, rv reflect.Value) error {
	switch v := v.(type) {
	case Instant:
		rv.Set(reflect.ValueOf(v.Time))
		return nil
	case String:
		t, err := time.Parse(time.RFC3339Nano, string(v))
		if err != nil {
			return &Error{Kind: InvalidTimestamp, Msg: "invalid timestamp " + v.String(), Err: err}
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	default:
		return mismatch(v, rv.Type())
	}
}

func decodeUUID(v Value, rv reflect.Value) error {
	switch v := v.(type) {
	case UUID:
		rv.Set(reflect.ValueOf(uuid.UUID(v)))
		return nil
	case String:
		u, err := uuid.Parse(string(v))
		if err != nil {
			return &Error{Kind: InvalidUUID, Msg: "invalid uuid " + v.String(), Err: err}
		}
		rv.Set(reflect.ValueOf(u))
		return nil
	default:
		return mismatch(v, rv.Type())
	}
}

func toAny(v Value) (any, error) {
	switch v := v.(type) {
	case Nil:
		return nil, nil
	case Bool:
		return bool(v), nil
	case Int:
		return int64(v), nil
	case Float:
		return float64(v), nil
	case String, Symbol, Keyword:
		s, _ := text(v)
		return s, nil
	case Char:
		return rune(v), nil
	case Instant:
		return v.Time, nil
	case UUID:
		return uuid.UUID(v), nil
	case Tagged:
		return v, nil
	case Vector:
		return toAnySlice(v)
	case List:
		return toAnySlice(v)
	case *Set:
		return toAnySlice(v.elems)
	case *Map:
		m := make(map[string]any, v.Len())
		for k, e := range v.All() {
			a, err := toAny(e)
			if err != nil {
				return nil, err
			}
			m[keyText(k)] = a
		}
		return m, nil
	default:
		return nil, errorf(UnsupportedType, "unsupported value %T", v)
	}
}

func toAnySlice(elems []Value) ([]any, error) {
	s := make([]any, 0, len(elems))
	for _, e := range elems {
		a, err := toAny(e)
		if err != nil {
			return nil, err
		}
		s = append(s, a)
	}
	return s, nil
}

func keyText(k Key) string {
	if s, ok := text(k.Value()); ok {
		return s
	}
	return k.String()
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func decodeStruct(v Value, rv reflect.Value) error {
	m, ok := v.(*Map)
	if !ok {
		return mismatch(v, rv.Type())
	}
	t := rv.Type()
	fields := map[string]int{}
	for _, f := range structFields(t) {
		fields[strings.TrimPrefix(f.name, ":")] = f.index
		if _, tagged := t.Field(f.index).Tag.Lookup("edn"); !tagged && f.name == t.Field(f.index).Name {
			fields[toSnakeCase(f.name)] = f.index
		}
	}

	for k, e := range m.All() {
		name, ok := text(k.Value())
		if !ok {
			return errorf(UnsupportedType, "%s cannot name a field of %s", k, t)
		}
		i, ok := fields[name]
		if !ok {
			return errorf(UnsupportedType, "unknown field %s in %s", k, t)
		}
		if err := decodeValue(e, rv.Field(i)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func decodeMap(v Value, rv reflect.Value) error {
	if _, ok := v.(Nil); ok {
		rv.SetZero()
		return nil
	}
	m, ok := v.(*Map)
	if !ok {
		return mismatch(v, rv.Type())
	}
	t := rv.Type()
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(t, m.Len()))
	}
	for k, e := range m.All() {
		key := reflect.New(t.Key()).Elem()
		if err := decodeValue(k.Value(), key); err != nil {
			return fmt.Errorf("invalid key %s: %w", k, err)
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := decodeValue(e, elem); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		rv.SetMapIndex(key, elem)
	}
	return nil
}

func elements(v Value) ([]Value, bool) {
	switch v := v.(type) {
	case Vector:
		return v, true
	case List:
		return v, true
	case *Set:
		return v.elems, true
	default:
		return nil, false
	}
}

func decodeSlice(v Value, rv reflect.Value) error {
	t := rv.Type()
	if _, ok := v.(Nil); ok {
		rv.SetZero()
		return nil
	}
	if s, ok := v.(String); ok && t.Elem().Kind() == reflect.Uint8 {
		rv.SetBytes([]byte(s))
		return nil
	}
	elems, ok := elements(v)
	if !ok {
		return mismatch(v, t)
	}
	s := reflect.MakeSlice(t, len(elems), len(elems))
	for i, e := range elems {
		if err := decodeValue(e, s.Index(i)); err != nil {
			return fmt.Errorf("%d: %w", i, err)
		}
	}
	rv.Set(s)
	return nil
}

func decodeArray(v Value, rv reflect.Value) error {
	t := rv.Type()
	if s, ok := v.(String); ok && t.Elem().Kind() == reflect.Uint8 {
		if len(s) > rv.Len() {
			return errorf(OutOfRange, "too many bytes, limit %d", rv.Len())
		}
		reflect.Copy(rv, reflect.ValueOf([]byte(s)))
		return nil
	}
	elems, ok := elements(v)
	if !ok {
		return mismatch(v, t)
	}
	if len(elems) > rv.Len() {
		return errorf(OutOfRange, "too many elements, limit %d", rv.Len())
	}
	for i, e := range elems {
		if err := decodeValue(e, rv.Index(i)); err != nil {
			return fmt.Errorf("%d: %w", i, err)
		}
	}
	return nil
}

func decodeScalar(v Value, rv reflect.Value) error {
	t := rv.Type()
	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.(Bool)
		if !ok {
			return mismatch(v, t)
		}
		rv.SetBool(bool(b))
	case reflect.String:
		s, ok := text(v)
		if !ok {
			return mismatch(v, t)
		}
		rv.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch v := v.(type) {
		case Int:
			i = int64(v)
		case Char:
			i = int64(v)
		default:
			return mismatch(v, t)
		}
		if rv.OverflowInt(i) {
			return errorf(OutOfRange, "invalid %s: %d", t, i)
		}
		rv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := v.(Int)
		if !ok {
			return mismatch(v, t)
		}
		if i < 0 || rv.OverflowUint(uint64(i)) {
			return errorf(OutOfRange, "invalid %s: %d", t, i)
		}
		rv.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		var f float64
		switch v := v.(type) {
		case Float:
			f = float64(v)
		case Int:
			f = float64(v)
		default:
			return mismatch(v, t)
		}
		if rv.OverflowFloat(f) {
			return errorf(OutOfRange, "invalid %s: %v", t, f)
		}
		rv.SetFloat(f)
	default:
		return errorf(UnsupportedType, "unsupported type: %s", t)
	}
	return nil
}
