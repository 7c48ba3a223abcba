package edn

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// TokenKind represents the possible kinds of token in an EDN document.
type TokenKind int8

// These tokens are yielded from [Tokens].
const (
	TokenComment = TokenKind(iota)
	TokenOpenList
	TokenCloseList
	TokenOpenVector
	TokenCloseVector
	TokenOpenMap
	TokenOpenSet
	TokenCloseBrace
	TokenDiscard
	TokenTag
	TokenNil
	TokenBool
	TokenInt
	TokenFloat
	TokenString
	TokenChar
	TokenSymbol
	TokenKeyword
	TokenError
)

func (k TokenKind) String() string {
	switch k {
	case TokenComment:
		return "Comment"
	case TokenOpenList:
		return "OpenList"
	case TokenCloseList:
		return "CloseList"
	case TokenOpenVector:
		return "OpenVector"
	case TokenCloseVector:
		return "CloseVector"
	case TokenOpenMap:
		return "OpenMap"
	case TokenOpenSet:
		return "OpenSet"
	case TokenCloseBrace:
		return "CloseBrace"
	case TokenDiscard:
		return "Discard"
	case TokenTag:
		return "Tag"
	case TokenNil:
		return "Nil"
	case TokenBool:
		return "Bool"
	case TokenInt:
		return "Int"
	case TokenFloat:
		return "Float"
	case TokenString:
		return "String"
	case TokenChar:
		return "Char"
	case TokenSymbol:
		return "Symbol"
	case TokenKeyword:
		return "Keyword"
	case TokenError:
		return "Error"
	default:
		panic("Unknown TokenKind")
	}
}

func (k TokenKind) GoString() string {
	return k.String()
}

// A Token is a single lexeme with its 1-based position.
//
// Content depends on the Kind: strings and characters are unescaped, the
// leading colon is removed from keywords, the # is removed from tags, and
// numbers, symbols, delimiters and comments are the source text (without
// the leading ; for comments). For an Error token, Content describes the
// problem.
type Token struct {
	Kind    TokenKind
	Content string
	Lno     int
	Col     int
}

var (
	intRegex   = regexp.MustCompile(`^[+-]?\d+N?$`)
	floatRegex = regexp.MustCompile(`^[+-]?\d+(?:\.\d*)?(?:[eE][+-]?\d+)?M?$`)

	symbolPart  = `[\pL.*+!\-_?$%&=<>'][\pL\pN.*+!\-_?$%&=<>'#:]*`
	symbolRegex = regexp.MustCompile(`^(?:/|` + symbolPart + `(?:/` + symbolPart + `)?)$`)
)

// Error token contents for input that ends inside a string.
const (
	msgUnterminatedString = "unterminated string"
	msgEscapeAtEnd        = "unexpected end of input in escape"
)

func isWhitespace(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

func isDelimiter(r rune) bool {
	return isWhitespace(r) || strings.ContainsRune(`()[]{}";`, r)
}

func isHex(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// looksNumeric reports whether the word must be read as a number.
func looksNumeric(word string) bool {
	if word == "" {
		return false
	}
	if word[0] >= '0' && word[0] <= '9' {
		return true
	}
	return len(word) > 1 && strings.ContainsRune("+-.", rune(word[0])) && word[1] >= '0' && word[1] <= '9'
}

type scanner struct {
	input string
	pos   int
	lno   int
	col   int
}

func (s *scanner) peek() (rune, int) {
	if s.pos >= len(s.input) {
		return -1, 0
	}
	return utf8.DecodeRuneInString(s.input[s.pos:])
}

func (s *scanner) advance(r rune, size int) {
	s.pos += size
	if r == '\n' {
		s.lno++
		s.col = 1
	} else {
		s.col++
	}
}

func (s *scanner) skipWord() {
	for {
		r, size := s.peek()
		if size == 0 || isDelimiter(r) {
			return
		}
		s.advance(r, size)
	}
}

func (s *scanner) next() (Token, bool) {
	r, size := s.peek()
	for size > 0 && isWhitespace(r) {
		s.advance(r, size)
		r, size = s.peek()
	}
	if size == 0 {
		return Token{}, false
	}

	lno, col := s.lno, s.col
	token := func(kind TokenKind, content string) (Token, bool) {
		return Token{Kind: kind, Content: content, Lno: lno, Col: col}, true
	}

	if r == utf8.RuneError && size == 1 {
		s.advance(r, size)
		return token(TokenError, "invalid UTF-8")
	}

	switch r {
	case ';':
		s.advance(r, size)
		start := s.pos
		for r, size := s.peek(); size > 0 && r != '\n'; r, size = s.peek() {
			s.advance(r, size)
		}
		return token(TokenComment, strings.TrimSuffix(s.input[start:s.pos], "\r"))
	case '(':
		s.advance(r, size)
		return token(TokenOpenList, "(")
	case ')':
		s.advance(r, size)
		return token(TokenCloseList, ")")
	case '[':
		s.advance(r, size)
		return token(TokenOpenVector, "[")
	case ']':
		s.advance(r, size)
		return token(TokenCloseVector, "]")
	case '{':
		s.advance(r, size)
		return token(TokenOpenMap, "{")
	case '}':
		s.advance(r, size)
		return token(TokenCloseBrace, "}")
	case '"':
		return token(s.scanString())
	case '\\':
		return token(s.scanChar())
	case '#':
		return token(s.scanDispatch())
	default:
		return token(s.scanWord())
	}
}

// hex4 reads the four hex digits of a \u escape.
func (s *scanner) hex4() (rune, string, bool) {
	start := s.pos
	for range 4 {
		r, size := s.peek()
		if size == 0 || !isHex(r) {
			return 0, s.input[start:s.pos], false
		}
		s.advance(r, size)
	}
	text := s.input[start:s.pos]
	n, _ := strconv.ParseUint(text, 16, 32)
	return rune(n), text, true
}

func (s *scanner) scanString() (TokenKind, string) {
	s.advance('"', 1)
	var b strings.Builder
	badEscape := ""
	for {
		r, size := s.peek()
		switch {
		case size == 0:
			return TokenError, msgUnterminatedString
		case r == utf8.RuneError && size == 1:
			s.advance(r, size)
			if badEscape == "" {
				badEscape = "invalid UTF-8"
			}
		case r == '"':
			s.advance(r, size)
			if badEscape != "" {
				return TokenError, badEscape
			}
			return TokenString, b.String()
		case r == '\\':
			s.advance(r, size)
			e, size := s.peek()
			if size == 0 {
				return TokenError, msgEscapeAtEnd
			}
			s.advance(e, size)
			switch e {
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			case 'f':
				b.WriteByte('\f')
			case 'b':
				b.WriteByte('\b')
			case 'u':
				cp, text, ok := s.hex4()
				if ok && utf16.IsSurrogate(cp) && cp < 0xdc00 && strings.HasPrefix(s.input[s.pos:], `\u`) {
					s.advance('\\', 1)
					s.advance('u', 1)
					lo, loText, loOK := s.hex4()
					text += `\u` + loText
					ok = loOK && lo >= 0xdc00 && utf16.IsSurrogate(lo)
					if ok {
						cp = utf16.DecodeRune(cp, lo)
					}
				}
				if !ok || utf16.IsSurrogate(cp) {
					if badEscape == "" {
						badEscape = `invalid unicode escape \u` + text
					}
					continue
				}
				b.WriteRune(cp)
			default:
				b.WriteRune(e)
			}
		default:
			s.advance(r, size)
			b.WriteRune(r)
		}
	}
}

func (s *scanner) scanChar() (TokenKind, string) {
	s.advance('\\', 1)
	r, size := s.peek()
	if size == 0 || unicode.IsSpace(r) {
		return TokenError, "invalid character literal"
	}
	start := s.pos
	s.advance(r, size)
	s.skipWord()
	word := s.input[start:s.pos]
	if !utf8.ValidString(word) {
		return TokenError, "invalid UTF-8"
	}
	if utf8.RuneCountInString(word) == 1 {
		return TokenChar, word
	}
	switch word {
	case "newline":
		return TokenChar, "\n"
	case "return":
		return TokenChar, "\r"
	case "space":
		return TokenChar, " "
	case "tab":
		return TokenChar, "\t"
	}
	if hex, ok := strings.CutPrefix(word, "u"); ok && len(hex) == 4 && !strings.ContainsFunc(hex, func(r rune) bool { return !isHex(r) }) {
		n, _ := strconv.ParseUint(hex, 16, 32)
		if !utf16.IsSurrogate(rune(n)) {
			return TokenChar, string(rune(n))
		}
	}
	return TokenError, `invalid character \` + word
}

func (s *scanner) scanDispatch() (TokenKind, string) {
	s.advance('#', 1)
	r, size := s.peek()
	switch {
	case r == '{':
		s.advance(r, size)
		return TokenOpenSet, "#{"
	case r == '_':
		s.advance(r, size)
		return TokenDiscard, "#_"
	case r == '#':
		s.advance(r, size)
		start := s.pos
		s.skipWord()
		word := s.input[start:s.pos]
		switch word {
		case "Inf", "-Inf", "NaN":
			return TokenFloat, "##" + word
		}
		return TokenError, "invalid symbolic value ##" + word
	}

	start := s.pos
	s.skipWord()
	word := s.input[start:s.pos]
	if size > 0 && unicode.IsLetter(r) && symbolRegex.MatchString(word) {
		return TokenTag, word
	}
	return TokenError, "invalid dispatch #" + word
}

func (s *scanner) scanWord() (TokenKind, string) {
	start := s.pos
	s.skipWord()
	word := s.input[start:s.pos]
	if !utf8.ValidString(word) {
		return TokenError, "invalid UTF-8"
	}

	switch word {
	case "nil":
		return TokenNil, word
	case "true", "false":
		return TokenBool, word
	}

	if looksNumeric(word) {
		if intRegex.MatchString(word) {
			return TokenInt, word
		}
		if floatRegex.MatchString(word) {
			return TokenFloat, word
		}
		return TokenError, "invalid number " + word
	}

	if name, ok := strings.CutPrefix(word, ":"); ok {
		if name == "/" || looksNumeric(name) || !symbolRegex.MatchString(name) {
			return TokenError, "invalid keyword " + word
		}
		return TokenKeyword, name
	}

	if !symbolRegex.MatchString(word) {
		return TokenError, "invalid symbol " + word
	}
	return TokenSymbol, word
}

// Tokens iterates over the tokens in the input.
//
// Whitespace (including commas) is skipped. A [TokenError] is yielded for
// each malformed lexeme, after which tokenizing continues with the next
// lexeme. Tokens does not check that delimiters are balanced; see [Parse].
func Tokens(input string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s := &scanner{input: input, lno: 1, col: 1}
		for {
			token, ok := s.next()
			if !ok || !yield(token) {
				return
			}
		}
	}
}
