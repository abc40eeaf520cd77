package edn

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Parse reads every top-level form in input.
func Parse(input string) ([]Value, error) {
	r := &reader{src: input, line: 1, col: 1}
	var out []Value
	for {
		if err := r.skipSpace(); err != nil {
			return nil, err
		}
		if r.eof() {
			return out, nil
		}
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// ParseOne reads exactly one form.
func ParseOne(input string) (Value, error) {
	forms, err := Parse(input)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, core.Errorf(core.ErrEdnParse, "expected one form, found %d", len(forms))
	}
	return forms[0], nil
}

type reader struct {
	src  string
	pos  int
	line int
	col  int
}

func (r *reader) eof() bool {
	return r.pos >= len(r.src)
}

func (r *reader) peek() rune {
	if r.eof() {
		return utf8.RuneError
	}
	c, _ := utf8.DecodeRuneInString(r.src[r.pos:])
	return c
}

func (r *reader) next() rune {
	c, size := utf8.DecodeRuneInString(r.src[r.pos:])
	r.pos += size
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

func (r *reader) errorf(format string, args ...any) error {
	return core.Errorf(core.ErrEdnParse, "line %d, column %d: "+format, append([]any{r.line, r.col}, args...)...)
}

// skipSpace consumes whitespace, commas, comments and #_ discards.
func (r *reader) skipSpace() error {
	for !r.eof() {
		c := r.peek()
		switch {
		case unicode.IsSpace(c) || c == ',':
			r.next()
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.next()
			}
		case c == '#' && strings.HasPrefix(r.src[r.pos:], "#_"):
			r.next()
			r.next()
			if err := r.skipSpace(); err != nil {
				return err
			}
			if r.eof() {
				return r.errorf("#_ at end of input")
			}
			if _, err := r.readForm(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (r *reader) readForm() (Value, error) {
	c := r.peek()
	switch {
	case c == '[':
		r.next()
		items, err := r.readSeq(']')
		return Vector(items), err
	case c == '(':
		r.next()
		items, err := r.readSeq(')')
		return List(items), err
	case c == '{':
		r.next()
		return r.readMap()
	case c == '"':
		s, err := r.readString()
		return String(s), err
	case c == ':':
		return r.readKeyword()
	case c == '#':
		return r.readDispatch()
	case c == ']' || c == ')' || c == '}':
		return nil, r.errorf("unexpected %q", c)
	case isDigit(c) || ((c == '-' || c == '+') && r.pos+1 < len(r.src) && isDigit(rune(r.src[r.pos+1]))):
		return r.readNumber()
	case isSymbolStart(c):
		return r.readSymbol()
	default:
		return nil, r.errorf("unexpected character %q", c)
	}
}

func (r *reader) readSeq(closer rune) ([]Value, error) {
	items := []Value{}
	for {
		if err := r.skipSpace(); err != nil {
			return nil, err
		}
		if r.eof() {
			return nil, r.errorf("unterminated collection, expected %q", closer)
		}
		if r.peek() == closer {
			r.next()
			return items, nil
		}
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (r *reader) readMap() (Value, error) {
	items, err := r.readSeq('}')
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, r.errorf("map literal has an odd number of forms")
	}
	m := make(Map, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		if _, dup := m.Get(items[i]); dup {
			return nil, r.errorf("duplicate map key %s", items[i])
		}
		m = append(m, Pair{Key: items[i], Value: items[i+1]})
	}
	return m, nil
}

func (r *reader) readString() (string, error) {
	r.next()
	var b strings.Builder
	for {
		if r.eof() {
			return "", r.errorf("unterminated string")
		}
		c := r.next()
		switch c {
		case '"':
			return norm.NFC.String(b.String()), nil
		case '\\':
			if r.eof() {
				return "", r.errorf("unterminated string escape")
			}
			esc := r.next()
			switch esc {
			case '"', '\\':
				b.WriteRune(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'u':
				if r.pos+4 > len(r.src) {
					return "", r.errorf("short \\u escape")
				}
				n, err := strconv.ParseUint(r.src[r.pos:r.pos+4], 16, 32)
				if err != nil {
					return "", r.errorf("bad \\u escape %q", r.src[r.pos:r.pos+4])
				}
				for range 4 {
					r.next()
				}
				b.WriteRune(rune(n))
			default:
				return "", r.errorf("unknown escape \\%c", esc)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (r *reader) token() string {
	start := r.pos
	for !r.eof() && isSymbolChar(r.peek()) {
		r.next()
	}
	return r.src[start:r.pos]
}

func (r *reader) readKeyword() (Value, error) {
	r.next()
	tok := r.token()
	kw, err := core.ParseKeyword(":" + tok)
	if err != nil || tok == "" {
		return nil, r.errorf("invalid keyword %q", ":"+tok)
	}
	return Keyword(kw), nil
}

func (r *reader) readSymbol() (Value, error) {
	tok := r.token()
	switch tok {
	case "nil":
		return Nil{}, nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	return Symbol(tok), nil
}

func (r *reader) readNumber() (Value, error) {
	tok := r.token()
	if strings.ContainsAny(tok, ".eE") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, r.errorf("invalid float %q", tok)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(tok, "+"), 10, 64)
	if err != nil {
		return nil, r.errorf("invalid integer %q", tok)
	}
	return Int(n), nil
}

func (r *reader) readDispatch() (Value, error) {
	r.next()
	if r.peek() == '{' {
		r.next()
		items, err := r.readSeq('}')
		if err != nil {
			return nil, err
		}
		set := make(Set, 0, len(items))
		for _, it := range items {
			for _, seen := range set {
				if Equal(seen, it) {
					return nil, r.errorf("duplicate set element %s", it)
				}
			}
			set = append(set, it)
		}
		return set, nil
	}

	tag := r.token()
	if err := r.skipSpace(); err != nil {
		return nil, err
	}
	if r.peek() != '"' {
		return nil, r.errorf("#%s expects a string literal", tag)
	}
	s, err := r.readString()
	if err != nil {
		return nil, err
	}
	switch tag {
	case "inst":
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, r.errorf("invalid #inst %q", s)
		}
		return Inst(t.UTC()), nil
	case "uuid":
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, r.errorf("invalid #uuid %q", s)
		}
		return UUID(u), nil
	default:
		return nil, r.errorf("unsupported tag #%s", tag)
	}
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isSymbolStart(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune("*+!-_?$%&=<>./", c)
}

func isSymbolChar(c rune) bool {
	return isSymbolStart(c) || isDigit(c) || strings.ContainsRune(":#'", c)
}
