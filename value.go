package edn

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"hash/maphash"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ConradIrwin/edn-go/symbol"
	"github.com/google/uuid"
)

// Kind identifies the variant of a [Value].
type Kind int8

// The kinds are listed in the order used by [Compare].
const (
	KindNil = Kind(iota)
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindKeyword
	KindVector
	KindList
	KindSet
	KindMap
	KindInstant
	KindUUID
	KindChar
	KindTagged
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindKeyword:
		return "keyword"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindInstant:
		return "instant"
	case KindUUID:
		return "uuid"
	case KindChar:
		return "character"
	case KindTagged:
		return "tagged"
	default:
		panic("Unknown Kind")
	}
}

// A Value is any EDN datum.
//
// The concrete type of a Value is one of [Nil], [Bool], [Int], [Float],
// [String], [Symbol], [Keyword], [Vector], [List], [*Set], [*Map],
// [Instant], [UUID], [Char] or [Tagged]. String returns the canonical EDN
// text of the value, and EncodeEDN walks it through an [Encoder].
//
// Values are trees: a composite value owns its elements. Values must not be
// modified once they have been shared, so they are safe for concurrent reads.
type Value interface {
	Kind() Kind
	String() string
	EncodeEDN(e Encoder) error
}

type (
	// Nil is the EDN nil.
	Nil struct{}
	// Bool is true or false.
	Bool bool
	// Int is a 64-bit signed integer.
	Int int64
	// Float is a 64-bit float. Unlike float64, Floats are totally ordered:
	// NaN equals NaN and sorts after +Inf, and -0 equals +0.
	Float float64
	// String is a string literal.
	String string
	// Vector is an ordered sequence written [a b c].
	Vector []Value
	// List is an ordered sequence written (a b c).
	List []Value
	// Char is a single unicode code point written \c.
	Char rune
	// UUID is a #uuid literal.
	UUID uuid.UUID
)

// Symbol is an interned identifier such as foo or my.ns/bar.
type Symbol struct {
	Name symbol.Symbol
}

// Keyword is an interned identifier written with a leading colon. Name does
// not include the colon.
type Keyword struct {
	Name symbol.Symbol
}

// Instant is an #inst literal.
type Instant struct {
	time.Time
}

// Tagged is a tagged literal #tag value other than #inst and #uuid.
type Tagged struct {
	Tag   symbol.Symbol
	Value Value
}

// NewSymbol returns the Symbol for name.
func NewSymbol(name string) Symbol {
	return Symbol{symbol.Intern(name)}
}

// NewKeyword returns the Keyword for name, which should not start with a colon.
func NewKeyword(name string) Keyword {
	return Keyword{symbol.Intern(name)}
}

// NewTagged returns v tagged with tag.
func NewTagged(tag string, v Value) Tagged {
	return Tagged{Tag: symbol.Intern(tag), Value: v}
}

func (Nil) Kind() Kind     { return KindNil }
func (Bool) Kind() Kind    { return KindBool }
func (Int) Kind() Kind     { return KindInt }
func (Float) Kind() Kind   { return KindFloat }
func (String) Kind() Kind  { return KindString }
func (Symbol) Kind() Kind  { return KindSymbol }
func (Keyword) Kind() Kind { return KindKeyword }
func (Vector) Kind() Kind  { return KindVector }
func (List) Kind() Kind    { return KindList }
func (*Set) Kind() Kind    { return KindSet }
func (*Map) Kind() Kind    { return KindMap }
func (Instant) Kind() Kind { return KindInstant }
func (UUID) Kind() Kind    { return KindUUID }
func (Char) Kind() Kind    { return KindChar }
func (Tagged) Kind() Kind  { return KindTagged }

func (v Nil) String() string     { return Format(v) }
func (v Bool) String() string    { return Format(v) }
func (v Int) String() string     { return Format(v) }
func (v Float) String() string   { return Format(v) }
func (v String) String() string  { return Format(v) }
func (v Symbol) String() string  { return Format(v) }
func (v Keyword) String() string { return Format(v) }
func (v Vector) String() string  { return Format(v) }
func (v List) String() string    { return Format(v) }
func (v *Set) String() string    { return Format(v) }
func (v *Map) String() string    { return Format(v) }
func (v Instant) String() string { return Format(v) }
func (v UUID) String() string    { return Format(v) }
func (v Char) String() string    { return Format(v) }
func (v Tagged) String() string  { return Format(v) }

// Equal reports whether a and b are the same value.
//
// Vectors and lists are never equal to each other. Sets and maps are equal
// when they have the same elements regardless of insertion order. Instants
// are equal when they denote the same moment. A nil Value is only equal to
// another nil Value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Nil:
		return true
	case Bool, Int, String, Symbol, Keyword, UUID, Char:
		return a == b
	case Float:
		return compareFloat(float64(a), float64(b.(Float))) == 0
	case Vector:
		return slices.EqualFunc(a, b.(Vector), Equal)
	case List:
		return slices.EqualFunc(a, b.(List), Equal)
	case *Set:
		b := b.(*Set)
		if a.Len() != b.Len() {
			return false
		}
		for v := range a.All() {
			if !b.Contains(v) {
				return false
			}
		}
		return true
	case *Map:
		b := b.(*Map)
		if a.Len() != b.Len() {
			return false
		}
		for k, av := range a.All() {
			bv, ok := b.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case Instant:
		return a.Equal(b.(Instant).Time)
	case Tagged:
		b := b.(Tagged)
		return a.Tag == b.Tag && Equal(a.Value, b.Value)
	default:
		panic("Unknown Value type")
	}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. Values of different kinds are ordered by Kind. Symbols and
// keywords are ordered by interning order, not alphabetically. Sets and maps
// are compared by their sorted contents. A nil Value sorts first.
func Compare(a, b Value) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case Nil:
		return 0
	case Bool:
		return compareBool(bool(a), bool(b.(Bool)))
	case Int:
		return cmp.Compare(a, b.(Int))
	case Float:
		return compareFloat(float64(a), float64(b.(Float)))
	case String:
		return strings.Compare(string(a), string(b.(String)))
	case Symbol:
		return a.Name.Compare(b.(Symbol).Name)
	case Keyword:
		return a.Name.Compare(b.(Keyword).Name)
	case Vector:
		return slices.CompareFunc(a, b.(Vector), Compare)
	case List:
		return slices.CompareFunc(a, b.(List), Compare)
	case *Set:
		return slices.CompareFunc(a.sorted(), b.(*Set).sorted(), Compare)
	case *Map:
		b := b.(*Map)
		ak, bk := a.SortedKeys(), b.SortedKeys()
		if c := slices.CompareFunc(ak, bk, Key.Compare); c != 0 {
			return c
		}
		for _, k := range ak {
			av, _ := a.Get(k)
			bv, _ := b.Get(k)
			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
		return 0
	case Instant:
		return a.Time.Compare(b.(Instant).Time)
	case UUID:
		bu := b.(UUID)
		return bytes.Compare(a[:], bu[:])
	case Char:
		return cmp.Compare(a, b.(Char))
	case Tagged:
		b := b.(Tagged)
		if c := a.Tag.Compare(b.Tag); c != 0 {
			return c
		}
		return Compare(a.Value, b.Value)
	default:
		panic("Unknown Value type")
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func compareFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// canonical NaN and zero, so that equal floats hash equally
func floatBits(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return 0x7ff8000000000001
	case f == 0:
		return 0
	default:
		return math.Float64bits(f)
	}
}

var hashSeed = maphash.MakeSeed()

// Hash returns a hash of v that is consistent with [Equal]: equal values
// have equal hashes. Hashes are only stable within one process.
func Hash(v Value) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	writeHash(&h, v)
	return h.Sum64()
}

func writeUint64(h *maphash.Hash, n uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}

func writeHash(h *maphash.Hash, v Value) {
	if v == nil {
		h.WriteByte(0xff)
		return
	}
	h.WriteByte(byte(v.Kind()))
	switch v := v.(type) {
	case Nil:
	case Bool:
		if v {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case Int:
		writeUint64(h, uint64(v))
	case Float:
		writeUint64(h, floatBits(float64(v)))
	case String:
		h.WriteString(string(v))
	case Symbol:
		writeUint64(h, v.Name.ID())
	case Keyword:
		writeUint64(h, v.Name.ID())
	case Vector:
		writeUint64(h, uint64(len(v)))
		for _, e := range v {
			writeHash(h, e)
		}
	case List:
		writeUint64(h, uint64(len(v)))
		for _, e := range v {
			writeHash(h, e)
		}
	case *Set:
		// order-independent: sum of element hashes
		var sum uint64
		for e := range v.All() {
			sum += Hash(e)
		}
		writeUint64(h, uint64(v.Len()))
		writeUint64(h, sum)
	case *Map:
		var sum uint64
		for k, e := range v.All() {
			sum += Hash(k.Value())*31 ^ Hash(e)
		}
		writeUint64(h, uint64(v.Len()))
		writeUint64(h, sum)
	case Instant:
		writeUint64(h, uint64(v.Unix()))
		writeUint64(h, uint64(v.Nanosecond()))
	case UUID:
		h.Write(v[:])
	case Char:
		writeUint64(h, uint64(v))
	case Tagged:
		writeUint64(h, v.Tag.ID())
		writeHash(h, v.Value)
	default:
		panic("Unknown Value type")
	}
}
