// Package edn implements [EDN] parsing and serializing.
//
// EDN (extensible data notation) is the data format of Clojure. It is a
// superset of the JSON data model with symbols, keywords, sets, characters,
// lists distinct from vectors, and tagged literals for extension.
//
//	; a basic EDN document
//	{:name "example"
//	 :tags #{:a :b}
//	 :points [1 2.5 ##Inf]
//	 :created #inst "2024-01-02T03:04:05.000Z"
//	 :id #uuid "f81d4fae-7dec-11d0-a765-00a0c91e6bf6"}
//
// [Parse] returns a [Value], a tree built from [Nil], [Bool], [Int], [Float],
// [String], [Symbol], [Keyword], [Vector], [List], [*Set], [*Map], [Instant],
// [UUID], [Char] and [Tagged]. Values have a total order ([Compare]), an
// equality ([Equal]) and a hash ([Hash]) that agree with each other, so
// any Value can be an element of a [Set]. Map keys are restricted to the
// scalar kinds that can be a [Key].
//
// Symbols and keywords are interned by package [github.com/ConradIrwin/edn-go/symbol],
// so comparing two of them is a pointer comparison.
//
// Like the builtin json package, EDN can automatically convert between Go types and EDN values.
//
// For example, you could parse the above document into a struct defined in Go as:
//
//	type Example struct {
//	  Name    string    `edn:"name"`
//	  Tags    []string  `edn:"tags"`
//	  Points  []float64 `edn:"points"`
//	  Created time.Time `edn:"created"`
//	  ID      uuid.UUID `edn:"id"`
//	}
//
//	example := Example{}
//	edn.Unmarshal(data, &example)
//
// In the other direction, [ToValue] and [Marshal] walk Go data through the
// [Encoder] interface. Every Value can also walk itself through an Encoder,
// which lets EDN data be converted to other formats without a type switch.
//
// If your type implements the [encoding.TextMarshaler] and [encoding.TextUnmarshaler] then EDN
// will use that to convert between a string and your type. Types that need
// more control can implement [Marshaler] and [Unmarshaler].
//
// [EDN]: https://github.com/edn-format/edn
package edn
