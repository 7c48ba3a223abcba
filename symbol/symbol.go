// Package symbol interns identifier text.
//
// Interning maps every distinct string to a single canonical [Symbol]. Two
// symbols from the same [Store] are equal if and only if they were interned
// from the same text, and comparing them is a pointer comparison regardless
// of how long the text is.
//
// Interned text is never freed: a Store is an append-only arena that lives
// as long as it is reachable, and the default store used by [Intern] lives
// for the whole process. Symbol tables are expected to be bounded by the
// number of distinct identifiers in a program's inputs, not by data volume.
package symbol

import (
	"cmp"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// chunkSize is the number of entries allocated at a time. Chunks are never
// grown in place, so pointers into them stay valid.
const chunkSize = 256

type entry struct {
	id    uint64
	store uint64
	text  string
}

// A Symbol is a handle to interned text.
//
// Symbols are small and should be passed by value. The zero Symbol is not
// interned and has an empty String.
type Symbol struct {
	e *entry
}

// String returns the interned text.
func (s Symbol) String() string {
	if s.e == nil {
		return ""
	}
	return s.e.text
}

// GoString implements fmt.GoStringer.
func (s Symbol) GoString() string {
	return fmt.Sprintf("symbol.Symbol(%q)", s.String())
}

// ID returns the 1-based sequence number assigned when the text was interned.
// It is 0 for the zero Symbol.
func (s Symbol) ID() uint64 {
	if s.e == nil {
		return 0
	}
	return s.e.id
}

// IsZero reports whether s is the zero Symbol.
func (s Symbol) IsZero() bool {
	return s.e == nil
}

func (s Symbol) storeID() uint64 {
	if s.e == nil {
		return 0
	}
	return s.e.store
}

// Compare orders symbols by the order in which they were interned.
// It does not look at the text, so it is O(1). Symbols with the same ID
// from different stores are ordered by the order the stores were created,
// so Compare returns 0 only when s == o.
func (s Symbol) Compare(o Symbol) int {
	if c := cmp.Compare(s.ID(), o.ID()); c != 0 {
		return c
	}
	return cmp.Compare(s.storeID(), o.storeID())
}

var stores atomic.Uint64

// A Store is a concurrency-safe intern table.
type Store struct {
	id     uint64
	mu     sync.Mutex
	byText map[string]*entry
	chunks [][]entry
	gensym atomic.Uint64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{id: stores.Add(1), byText: map[string]*entry{}}
}

// Intern returns the Symbol for text, adding it to the store if needed.
func (st *Store) Intern(text string) Symbol {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.byText[text]; ok {
		return Symbol{e}
	}
	return Symbol{st.insert(text)}
}

// Lookup returns the Symbol for text if it has already been interned.
func (st *Store) Lookup(text string) (Symbol, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.byText[text]
	return Symbol{e}, ok
}

// Gensym returns a new Symbol of the form G#<n> that has never been
// interned before in this store.
func (st *Store) Gensym() Symbol {
	for {
		text := fmt.Sprintf("G#%d", st.gensym.Add(1))
		st.mu.Lock()
		if _, ok := st.byText[text]; !ok {
			e := st.insert(text)
			st.mu.Unlock()
			return Symbol{e}
		}
		st.mu.Unlock()
	}
}

// Len returns the number of interned symbols.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.byText)
}

// insert must be called with st.mu held.
func (st *Store) insert(text string) *entry {
	if len(st.chunks) == 0 || len(st.chunks[len(st.chunks)-1]) == chunkSize {
		st.chunks = append(st.chunks, make([]entry, 0, chunkSize))
	}
	last := len(st.chunks) - 1
	// the caller's buffer may be much larger than text
	text = strings.Clone(text)
	st.chunks[last] = append(st.chunks[last], entry{id: uint64(len(st.byText) + 1), store: st.id, text: text})
	e := &st.chunks[last][len(st.chunks[last])-1]
	st.byText[text] = e
	return e
}

// Default returns the process-wide Store used by [Intern] and [Gensym].
var Default = sync.OnceValue(NewStore)

// Intern interns text in the default store.
func Intern(text string) Symbol {
	return Default().Intern(text)
}

// Gensym returns a fresh symbol from the default store.
func Gensym() Symbol {
	return Default().Gensym()
}
