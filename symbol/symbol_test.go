package symbol_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ConradIrwin/edn-go/symbol"
)

func TestIntern(t *testing.T) {
	s := symbol.NewStore()

	a := s.Intern("foo")
	b := s.Intern("fo" + "o")
	if a != b {
		t.Fatalf("expected %#v == %#v", a, b)
	}
	if a.String() != "foo" {
		t.Errorf("expected foo, got %s", a.String())
	}

	c := s.Intern("bar")
	if a == c {
		t.Errorf("expected %#v != %#v", a, c)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 symbols, got %d", s.Len())
	}

	if got := a.Compare(c); got != -1 {
		t.Errorf("expected foo < bar by intern order, got %d", got)
	}
	for range 3 {
		if s.Intern("bar").Compare(s.Intern("foo")) != 1 {
			t.Fatal("ordering changed between calls")
		}
	}
	if a.Compare(b) != 0 {
		t.Errorf("expected equal symbols to compare 0")
	}
}

func TestInternCopiesText(t *testing.T) {
	s := symbol.NewStore()
	buf := []byte("hello world")
	sym := s.Intern(string(buf[:5]))
	copy(buf, "HELLO")
	if sym.String() != "hello" {
		t.Errorf("expected hello, got %s", sym.String())
	}
}

func TestLookup(t *testing.T) {
	s := symbol.NewStore()
	if _, ok := s.Lookup("x"); ok {
		t.Fatal("expected x to be missing")
	}
	x := s.Intern("x")
	got, ok := s.Lookup("x")
	if !ok || got != x {
		t.Errorf("expected to find %#v, got %#v", x, got)
	}
}

func TestZero(t *testing.T) {
	var z symbol.Symbol
	if !z.IsZero() || z.String() != "" || z.ID() != 0 {
		t.Errorf("unexpected zero symbol %#v", z)
	}
	if symbol.Intern("").IsZero() {
		t.Errorf("interned empty string should not be the zero symbol")
	}
}

func TestStoresAreIndependent(t *testing.T) {
	a := symbol.NewStore().Intern("same")
	b := symbol.NewStore().Intern("same")
	if a == b {
		t.Errorf("symbols from different stores should differ")
	}
	if a.String() != b.String() {
		t.Errorf("text should match")
	}
	if a.ID() != b.ID() {
		t.Fatalf("expected both stores to assign the same ID")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 {
		t.Errorf("symbols from different stores should not compare equal, got %d", a.Compare(b))
	}
}

func TestGensym(t *testing.T) {
	s := symbol.NewStore()
	// force a collision with the first generated name
	taken := s.Intern("G#1")

	first := s.Gensym()
	if first == taken || first.String() != "G#2" {
		t.Fatalf("expected gensym to skip G#1, got %s", first)
	}

	seen := map[symbol.Symbol]bool{taken: true, first: true}
	for range 100 {
		g := s.Gensym()
		if seen[g] {
			t.Fatalf("gensym returned %s twice", g)
		}
		if !strings.HasPrefix(g.String(), "G#") {
			t.Fatalf("unexpected gensym %s", g)
		}
		seen[g] = true
	}
}

func TestConcurrentIntern(t *testing.T) {
	s := symbol.NewStore()
	const workers = 32

	results := make([][]symbol.Symbol, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				results[w] = append(results[w], s.Intern(fmt.Sprintf("sym-%d", i)))
			}
			s.Gensym()
		}()
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		for i := range results[w] {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d got a different symbol for %s", w, results[w][i])
			}
		}
	}
	if s.Len() != 100+workers {
		t.Errorf("expected %d symbols, got %d", 100+workers, s.Len())
	}
}

func TestDefault(t *testing.T) {
	if symbol.Intern("default") != symbol.Default().Intern("default") {
		t.Errorf("package functions should use the default store")
	}
	a, b := symbol.Gensym(), symbol.Gensym()
	if a == b {
		t.Errorf("expected distinct gensyms")
	}
}
