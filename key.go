package edn

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/ConradIrwin/edn-go/symbol"
	"github.com/google/uuid"
)

// A Key is a value that can be used as a key in a [Map]: a keyword, string,
// symbol, integer, boolean, character or uuid.
//
// Keys are comparable with ==, and can be used as Go map keys.
type Key struct {
	kind Kind
	str  string
	sym  symbol.Symbol
	num  int64
	id   uuid.UUID
}

// KeywordKey returns the key :name.
func KeywordKey(name string) Key { return Key{kind: KindKeyword, sym: symbol.Intern(name)} }

// SymbolKey returns the key for the symbol name.
func SymbolKey(name string) Key { return Key{kind: KindSymbol, sym: symbol.Intern(name)} }

// StringKey returns the key for the string s.
func StringKey(s string) Key { return Key{kind: KindString, str: s} }

// IntKey returns the key for the integer i.
func IntKey(i int64) Key { return Key{kind: KindInt, num: i} }

// BoolKey returns the key for b.
func BoolKey(b bool) Key {
	if b {
		return Key{kind: KindBool, num: 1}
	}
	return Key{kind: KindBool}
}

// CharKey returns the key for the character r.
func CharKey(r rune) Key { return Key{kind: KindChar, num: int64(r)} }

// UUIDKey returns the key for u.
func UUIDKey(u uuid.UUID) Key { return Key{kind: KindUUID, id: u} }

// TryKey converts v to a Key. It returns an [InvalidKey] error if v is not a
// keyword, string, symbol, integer, boolean, character or uuid.
func TryKey(v Value) (Key, error) {
	switch v := v.(type) {
	case nil:
		return Key{}, errorf(InvalidKey, "invalid key: missing value")
	case Keyword:
		return Key{kind: KindKeyword, sym: v.Name}, nil
	case Symbol:
		return Key{kind: KindSymbol, sym: v.Name}, nil
	case String:
		return StringKey(string(v)), nil
	case Int:
		return IntKey(int64(v)), nil
	case Bool:
		return BoolKey(bool(v)), nil
	case Char:
		return CharKey(rune(v)), nil
	case UUID:
		return UUIDKey(uuid.UUID(v)), nil
	default:
		return Key{}, errorf(InvalidKey, "invalid key: %s cannot be a map key", v.Kind())
	}
}

// Kind returns the kind of value the key holds.
func (k Key) Kind() Kind {
	return k.kind
}

// Value returns the key as a Value.
func (k Key) Value() Value {
	switch k.kind {
	case KindKeyword:
		return Keyword{k.sym}
	case KindSymbol:
		return Symbol{k.sym}
	case KindString:
		return String(k.str)
	case KindInt:
		return Int(k.num)
	case KindBool:
		return Bool(k.num != 0)
	case KindChar:
		return Char(k.num)
	case KindUUID:
		return UUID(k.id)
	default:
		panic("invalid Key")
	}
}

// String returns the EDN text of the key.
func (k Key) String() string {
	return Format(k.Value())
}

// Compare orders keys first by kind and then by content, in the same way
// as [Compare] orders values.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.kind, o.kind); c != 0 {
		return c
	}
	switch k.kind {
	case KindKeyword, KindSymbol:
		return k.sym.Compare(o.sym)
	case KindString:
		return strings.Compare(k.str, o.str)
	case KindUUID:
		return bytes.Compare(k.id[:], o.id[:])
	default:
		return cmp.Compare(k.num, o.num)
	}
}

// EncodeEDN encodes the key as a map key: keywords become text with a
// leading colon and symbols become their bare text, which is how a key
// encoder distinguishes them.
func (k Key) EncodeEDN(e Encoder) error {
	switch k.kind {
	case KindKeyword:
		return e.String(":" + k.sym.String())
	case KindSymbol:
		return e.String(k.sym.String())
	case KindString:
		return e.String(k.str)
	case KindInt:
		return e.Int(k.num)
	case KindBool:
		return e.Bool(k.num != 0)
	case KindChar:
		return e.Char(rune(k.num))
	case KindUUID:
		return e.Tagged("uuid", k.id.String())
	default:
		panic("invalid Key")
	}
}
