package edn_test

import (
	"errors"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ConradIrwin/edn-go"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
)

type tagPoint struct {
	X, Y int
}

func (p *tagPoint) DecodeEDN(v edn.Value) error {
	t, ok := v.(edn.Tagged)
	if !ok || t.Tag.String() != "point" {
		return errors.New("expected #point")
	}
	var xy [2]int
	if err := edn.Decode(t.Value, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

type account struct {
	UserID    int64     `json:"user_id"`
	Name      string    `edn:":name"`
	CreatedAt time.Time `edn:"created-at"`
	Roles     []string
	Manager   *account
}

func TestUnmarshal(t *testing.T) {
	id := uuid.MustParse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")

	tests := []struct {
		name     string
		input    string
		target   any
		expected any
	}{
		{
			name:     "keyword map",
			input:    `{:name "John" :age "30"}`,
			target:   &map[string]string{},
			expected: map[string]string{"name": "John", "age": "30"},
		},
		{
			name:     "integer keys",
			input:    `{1 true, 2 false}`,
			target:   &map[int]bool{},
			expected: map[int]bool{1: true, 2: false},
		},
		{
			name:   "struct",
			input:  `{:user_id 7, :name "Ada", created-at #inst "1985-04-12T23:20:50.52Z", :roles [admin :ops "dev"], :manager {:user_id 1}}`,
			target: &account{},
			expected: account{
				UserID:    7,
				Name:      "Ada",
				CreatedAt: time.Date(1985, time.April, 12, 23, 20, 50, 520000000, time.UTC),
				Roles:     []string{"admin", "ops", "dev"},
				Manager:   &account{UserID: 1},
			},
		},
		{
			name:     "nil pointer field",
			input:    `{:manager nil}`,
			target:   &account{Manager: &account{}},
			expected: account{},
		},
		{
			name:     "snake case",
			input:    `{first_name "Grace" LastName "Hopper"}`,
			target:   &struct{ FirstName, LastName string }{},
			expected: struct{ FirstName, LastName string }{"Grace", "Hopper"},
		},
		{
			name:     "lists and sets",
			input:    `[(1 2) #{3} []]`,
			target:   &[][]uint8{},
			expected: [][]uint8{{1, 2}, {3}, {}},
		},
		{
			name:     "array",
			input:    `[1.5 2]`,
			target:   &[3]float32{},
			expected: [3]float32{1.5, 2, 0},
		},
		{
			name:     "bytes",
			input:    `"hello"`,
			target:   &[]byte{},
			expected: []byte("hello"),
		},
		{
			name:     "rune",
			input:    `\λ`,
			target:   new(rune),
			expected: 'λ',
		},
		{
			name:     "uuid",
			input:    `[#uuid "f81d4fae-7dec-11d0-a765-00a0c91e6bf6" "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"]`,
			target:   &[]uuid.UUID{},
			expected: []uuid.UUID{id, id},
		},
		{
			name:     "text unmarshaler",
			input:    `{:addr "192.168.0.1"}`,
			target:   &map[string]netip.Addr{},
			expected: map[string]netip.Addr{"addr": netip.MustParseAddr("192.168.0.1")},
		},
		{
			name:     "unmarshaler",
			input:    `{:origin #point [0 0], :corner #point (3 4)}`,
			target:   &map[string]tagPoint{},
			expected: map[string]tagPoint{"origin": {0, 0}, "corner": {3, 4}},
		},
		{
			name:   "any",
			input:  `{:a [1 2.5 "s" sym \c nil], "b" #{true}, 3 #my/tag x}`,
			target: new(any),
			expected: map[string]any{
				"a": []any{int64(1), 2.5, "s", "sym", 'c', nil},
				"b": []any{true},
				"3": edn.NewTagged("my/tag", edn.NewSymbol("x")),
			},
		},
		{
			name:     "value",
			input:    `[:a (b)]`,
			target:   new(edn.Value),
			expected: edn.Value(edn.Vector{edn.NewKeyword("a"), edn.List{edn.NewSymbol("b")}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := edn.Unmarshal([]byte(tt.input), tt.target); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			actual := reflect.ValueOf(tt.target).Elem().Interface()
			if v, ok := actual.(edn.Value); ok {
				if !edn.Equal(v, tt.expected.(edn.Value)) {
					t.Fatalf("got %s, want %s", v, tt.expected)
				}
				return
			}
			if !reflect.DeepEqual(actual, tt.expected) {
				t.Errorf("got:\n%swant:\n%s", spew.Sdump(actual), spew.Sdump(tt.expected))
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		input  string
		target any
		kind   edn.ErrorKind
		msg    string
	}{
		{"nil target", `1`, nil, edn.UnsupportedType, "invalid target, must be a non-nil pointer"},
		{"not a pointer", `1`, 0, edn.UnsupportedType, "invalid target, must be a non-nil pointer"},
		{"syntax", `{:a`, &map[string]int{}, edn.SyntaxError, "1:4: unclosed {"},
		{"mismatch", `{:a "x"}`, &map[string]int{}, edn.UnsupportedType, ":a: cannot decode string into int"},
		{"overflow", `[1 300]`, &[]int8{}, edn.OutOfRange, "1: invalid int8: 300"},
		{"negative", `-1`, new(uint), edn.OutOfRange, "invalid uint: -1"},
		{"unknown field", `{:nmae "x"}`, &account{}, edn.UnsupportedType, "unknown field :nmae in edn_test.account"},
		{"nested", `{:manager {:roles [1]}}`, &account{}, edn.UnsupportedType, "manager: roles: 0: cannot decode integer into string"},
		{"too many", `[1 2 3]`, &[2]int{}, edn.OutOfRange, "too many elements, limit 2"},
		{"bad key", `{"x" 1}`, &map[int]int{}, edn.UnsupportedType, `invalid key "x": cannot decode string into int`},
		{"timestamp", `"yesterday"`, &time.Time{}, edn.InvalidTimestamp, `invalid timestamp "yesterday": parsing time "yesterday" as "2006-01-02T15:04:05.999999999Z07:00": cannot parse "yesterday" as "2006"`},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := edn.Unmarshal([]byte(test.input), test.target)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, test.kind) {
				t.Errorf("expected %v, got %v", test.kind, err)
			}
			if err.Error() != test.msg {
				t.Errorf("expected %q, got %q", test.msg, err.Error())
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	input := account{
		UserID:    42,
		Name:      "Ada",
		CreatedAt: time.Date(2024, time.November, 1, 16, 0, 0, 0, time.UTC),
		Roles:     []string{"admin"},
		Manager:   &account{UserID: 1, Roles: []string{}},
	}

	bytes, err := edn.Marshal(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{user_id 42, :name "Ada", created-at #inst "2024-11-01T16:00:00.000Z", Roles ["admin"], Manager {user_id 1, :name "", created-at #inst "0001-01-01T00:00:00.000Z", Roles [], Manager nil}}`
	if string(bytes) != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, bytes)
	}

	output := account{}
	if err := edn.Unmarshal(bytes, &output); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Errorf("got:\n%swant:\n%s", spew.Sdump(output), spew.Sdump(input))
	}
}

func TestMarshalIndent(t *testing.T) {
	bytes, err := edn.MarshalIndent(map[string][]int{":b": {1, 2}, ":a": nil}, "\t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := strings.Join([]string{
		"{",
		"\t:a [],",
		"\t:b [",
		"\t\t1",
		"\t\t2",
		"\t]",
		"}",
	}, "\n")
	if string(bytes) != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, bytes)
	}

	if _, err := edn.Marshal(make(chan int)); !errors.Is(err, edn.UnsupportedType) {
		t.Fatalf("expected UnsupportedType for a channel, got %v", err)
	}
}
