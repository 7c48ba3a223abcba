package edn

// Marshal converts a go value to an EDN document, using [ToValue] and
// [Format].
//
// It returns an error if the value could not be marshaled (for example if it
// contains a channel or a func).
func Marshal(v any) ([]byte, error) {
	val, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	return []byte(Format(val)), nil
}

// MarshalIndent is like [Marshal] but formats the document with
// [FormatIndent].
func MarshalIndent(v any, indent string) ([]byte, error) {
	val, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	return []byte(FormatIndent(val, indent)), nil
}

// Unmarshal parses the EDN document in data and stores the result in the
// value pointed to by v, using [Parse] and [Decode].
//
// If the document is invalid, or doesn't match the type of v, then an error
// will be returned.
func Unmarshal(data []byte, v any) error {
	val, err := Parse(string(data))
	if err != nil {
		return err
	}
	return Decode(val, v)
}
