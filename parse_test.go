package edn_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ConradIrwin/edn-go"
	"github.com/google/go-cmp/cmp"
)

func readExamples(t *testing.T, file string) [][2]string {
	t.Helper()
	examples, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("Failed to read examples file: %v", err)
	}

	result := [][2]string{}
	for _, example := range strings.Split(string(examples), "\n===\n") {
		parts := strings.SplitN(example, "\n---\n", 2)
		if len(parts) != 2 {
			t.Fatalf("Invalid example format: %s", example)
		}
		result = append(result, [2]string{parts[0], strings.TrimSpace(parts[1])})
	}
	return result
}

func TestExamples(t *testing.T) {
	for _, example := range readExamples(t, "testdata/examples.txt") {
		input, expected := example[0], example[1]

		v, err := edn.Parse(input)
		if err != nil {
			t.Errorf("Failed to parse: %v\nInput: %s", err, input)
			continue
		}
		if output := edn.Format(v); output != expected {
			t.Errorf("Mismatch:\nInput: %#v\nExpected: %#v\nGot: %#v", input, expected, output)
			continue
		}

		reparsed, err := edn.Parse(expected)
		if err != nil {
			t.Errorf("Failed to re-parse: %v\nInput: %s", err, expected)
		} else if !edn.Equal(v, reparsed) {
			t.Errorf("Round trip changed value:\nInput: %s\nGot: %s", input, reparsed)
		}
	}
}

func TestErrors(t *testing.T) {
	for _, example := range readExamples(t, "testdata/errors.txt") {
		input, expected := example[0], example[1]
		input = strings.ReplaceAll(input, "?", "\xff")

		v, err := edn.Parse(input)
		if err == nil {
			t.Errorf("Expected to be unable to parse: %s\nGot: %s", input, v)
		} else if err.Error() != expected {
			t.Errorf("Error mismatch:\nInput: %s\nExpected: %#v\nGot: %#v", input, expected, err.Error())
		}
		if v != nil {
			t.Errorf("Expected nil value on error for %s, got %#v", input, v)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	for _, test := range []struct {
		input string
		kind  edn.ErrorKind
	}{
		{"[1 2", edn.SyntaxError},
		{"{[1] 2}", edn.InvalidKey},
		{`#uuid "nope"`, edn.InvalidUUID},
		{`#inst "nope"`, edn.InvalidTimestamp},
		{"9223372036854775808", edn.OutOfRange},
		{"[\xff]", edn.InvalidUTF8},
		{"\"\xff\"", edn.InvalidUTF8},
	} {
		t.Run(test.input, func(t *testing.T) {
			_, err := edn.Parse(test.input)
			if !errors.Is(err, test.kind) {
				t.Fatalf("expected %v, got %v", test.kind, err)
			}
			var e *edn.Error
			if !errors.As(err, &e) || e.Kind != test.kind || e.Lno != 1 {
				t.Fatalf("expected positioned *edn.Error, got %#v", err)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	input := "; hi\n{:a #_ \"s\"\n #tag [1.5 \\x]}"
	expected := []edn.Token{
		{Kind: edn.TokenComment, Content: " hi", Lno: 1, Col: 1},
		{Kind: edn.TokenOpenMap, Content: "{", Lno: 2, Col: 1},
		{Kind: edn.TokenKeyword, Content: "a", Lno: 2, Col: 2},
		{Kind: edn.TokenDiscard, Content: "#_", Lno: 2, Col: 5},
		{Kind: edn.TokenString, Content: "s", Lno: 2, Col: 8},
		{Kind: edn.TokenTag, Content: "tag", Lno: 3, Col: 2},
		{Kind: edn.TokenOpenVector, Content: "[", Lno: 3, Col: 7},
		{Kind: edn.TokenFloat, Content: "1.5", Lno: 3, Col: 8},
		{Kind: edn.TokenChar, Content: "x", Lno: 3, Col: 12},
		{Kind: edn.TokenCloseVector, Content: "]", Lno: 3, Col: 14},
		{Kind: edn.TokenCloseBrace, Content: "}", Lno: 3, Col: 15},
	}

	got := []edn.Token{}
	for token := range edn.Tokens(input) {
		got = append(got, token)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokensContinueAfterError(t *testing.T) {
	kinds := []edn.TokenKind{}
	for token := range edn.Tokens("1.2.3 ok") {
		kinds = append(kinds, token.Kind)
	}
	if diff := cmp.Diff([]edn.TokenKind{edn.TokenError, edn.TokenSymbol}, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestStringEscapes(t *testing.T) {
	bs := `\`
	for _, test := range []struct {
		input    string
		expected string
	}{
		{`"` + bs + `t` + bs + `r` + bs + `n` + bs + `f` + bs + `b"`, "\t\r\n\f\b"},
		{`"` + bs + `"` + bs + bs + `"`, `"\`},
		{`"` + bs + "u00e9" + `"`, "é"},
		{`"` + bs + "uD83D" + bs + "uDE00" + `"`, "😀"},
		{`"` + bs + "uFFFD" + `"`, "�"},
	} {
		t.Run(test.input, func(t *testing.T) {
			v, err := edn.Parse(test.input)
			if err != nil {
				t.Fatal(err)
			}
			if v != edn.String(test.expected) {
				t.Fatalf("expected %q, got %#v", test.expected, v)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	values, err := edn.ParseAll("1 :a ; comment\n[b] #_ 2")
	if err != nil {
		t.Fatal(err)
	}
	expected := []edn.Value{edn.Int(1), edn.NewKeyword("a"), edn.Vector{edn.NewSymbol("b")}}
	if diff := cmp.Diff(expected, values, cmp.Comparer(edn.Equal)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	values, err = edn.ParseAll("  ; nothing\n")
	if err != nil || len(values) != 0 {
		t.Fatalf("expected no values, got %v, %v", values, err)
	}

	if _, err := edn.ParseAll("1 ]"); err == nil || err.Error() != "1:3: unexpected ]" {
		t.Fatalf("expected unexpected ], got %v", err)
	}
}

func TestParseReader(t *testing.T) {
	v, err := edn.ParseReader(strings.NewReader("{:a [1 2]}"))
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "{:a [1 2]}" {
		t.Fatalf("unexpected value %s", v)
	}

	readErr := errors.New("disk on fire")
	_, err = edn.ParseReader(iotest.ErrReader(readErr))
	if !errors.Is(err, edn.IOError) || !errors.Is(err, readErr) {
		t.Fatalf("expected IOError wrapping the read error, got %v", err)
	}
}

func TestNestingLimit(t *testing.T) {
	const limit = 10000
	nested := func(open, close string, n int) string {
		return strings.Repeat(open, n) + strings.Repeat(close, n)
	}
	if _, err := edn.Parse(nested("[", "]", limit)); err != nil {
		t.Fatalf("expected %d levels to parse, got %v", limit, err)
	}

	for _, test := range []struct {
		name  string
		input string
		msg   string
	}{
		{"vectors", nested("[", "]", limit+1), "1:10001: nesting too deep, limit 10000"},
		{"maps", strings.Repeat("{:a ", limit+1) + "1" + strings.Repeat("}", limit+1), "1:40001: nesting too deep, limit 10000"},
		{"tags", strings.Repeat("#t ", limit+1) + "1", "1:30001: nesting too deep, limit 10000"},
		{"discards", strings.Repeat("#_ ", limit+1) + "1", "1:30001: nesting too deep, limit 10000"},
		{"deep", nested("(", ")", 3_000_000), "1:10001: nesting too deep, limit 10000"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := edn.Parse(test.input)
			if !errors.Is(err, edn.SyntaxError) || err.Error() != test.msg {
				t.Fatalf("expected %q, got %v", test.msg, err)
			}
		})
	}
}

func TestIncompleteInput(t *testing.T) {
	bs := `\`
	for _, test := range []struct {
		input      string
		incomplete bool
	}{
		{"[1 2", true},
		{"{:a [1 #{", true},
		{"1 #_", true},
		{"#tag", true},
		{`"abc`, true},
		{`"abc` + bs, true},
		{"[1 2)", false},
		{"[#_]", false},
		{"1.2.3", false},
		{"{:a}", false},
		{`"` + bs + `u12"`, false},
	} {
		t.Run(test.input, func(t *testing.T) {
			_, err := edn.ParseAll(test.input)
			var e *edn.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *edn.Error, got %v", err)
			}
			if e.Incomplete() != test.incomplete {
				t.Fatalf("Incomplete() = %v for %v", e.Incomplete(), err)
			}
		})
	}
}
