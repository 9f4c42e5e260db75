package xquery

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) Pos() Position {
	return p
}

// cursor reads the decoded source one codepoint at a time. Speculative
// grammar alternatives save the offset with mark and go back to it with
// reset.
type cursor struct {
	input []rune
	pos   int
	lines []int

	// index and value of the first byte that does not start a valid
	// UTF-8 sequence; bad is -1 when the source is well formed.
	bad     int
	badByte byte
}

func newCursor(str string) *cursor {
	c := cursor{
		input: make([]rune, 0, len(str)),
		bad:   -1,
	}
	c.lines = append(c.lines, 0)
	for i := 0; i < len(str); {
		r, z := utf8.DecodeRuneInString(str[i:])
		if r == utf8.RuneError && z == 1 && c.bad < 0 {
			c.bad, c.badByte = len(c.input), str[i]
		}
		if r == '\n' {
			c.lines = append(c.lines, len(c.input)+1)
		}
		c.input = append(c.input, r)
		i += z
	}
	return &c
}

func (c *cursor) mark() int {
	return c.pos
}

func (c *cursor) reset(pos int) {
	c.pos = pos
}

func (c *cursor) more() bool {
	return c.pos < len(c.input)
}

func (c *cursor) curr() rune {
	return c.at(c.pos)
}

func (c *cursor) next() rune {
	return c.at(c.pos + 1)
}

func (c *cursor) at(pos int) rune {
	if pos < 0 || pos >= len(c.input) {
		return 0
	}
	return c.input[pos]
}

func (c *cursor) is(r rune) bool {
	return c.curr() == r
}

func (c *cursor) consume() rune {
	r := c.curr()
	if c.more() {
		c.pos++
	}
	return r
}

func (c *cursor) consumeRune(r rune) bool {
	if !c.is(r) {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) consumeString(str string) bool {
	pos := c.pos
	for _, r := range str {
		if c.curr() != r {
			c.pos = pos
			return false
		}
		c.pos++
	}
	return true
}

func (c *cursor) peekString(str string) bool {
	pos := c.pos
	defer c.reset(pos)
	return c.consumeString(str)
}

func (c *cursor) text(from, to int) string {
	from = max(0, min(from, len(c.input)))
	to = max(from, min(to, len(c.input)))
	return string(c.input[from:to])
}

func (c *cursor) remaining() string {
	rest := c.text(c.pos, c.pos+20)
	if c.pos+20 < len(c.input) {
		rest += "..."
	}
	return rest
}

// found describes the next characters for error messages.
func (c *cursor) found() string {
	if !c.more() {
		return "end of query"
	}
	var (
		from = c.pos
		to   = from
	)
	for to < len(c.input) && to-from < 10 && !isSpace(c.input[to]) {
		to++
	}
	if to == from {
		to++
	}
	return fmt.Sprintf("%q", string(c.input[from:to]))
}

func (c *cursor) position(offset int) Position {
	offset = max(0, min(offset, len(c.input)))
	line, ok := slices.BinarySearch(c.lines, offset)
	if !ok {
		line--
	}
	return Position{
		Line:   line + 1,
		Column: offset - c.lines[line] + 1,
		Offset: offset,
	}
}

func (c *cursor) here() Position {
	return c.position(c.pos)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isNCStartChar(r rune) bool {
	switch {
	case r == '_':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r < 0xC0:
		return false
	case r <= 0x2FF:
		return r != 0xD7 && r != 0xF7
	case r >= 0x370 && r <= 0x37D, r >= 0x37F && r <= 0x1FFF:
		return true
	case r == 0x200C || r == 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F, r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF, r >= 0xF900 && r <= 0xFDCF:
		return true
	case r >= 0xFDF0 && r <= 0xFFFD, r >= 0x10000 && r <= 0xEFFFF:
		return true
	default:
		return false
	}
}

func isNCChar(r rune) bool {
	switch {
	case isNCStartChar(r):
		return true
	case r == '-' || r == '.' || isDigit(r) || r == 0xB7:
		return true
	case r >= 0x300 && r <= 0x36F, r == 0x203F || r == 0x2040:
		return true
	default:
		return false
	}
}

// isValidChar reports whether r is allowed in an XML 1.0 document.
func isValidChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

func isNCName(str string) bool {
	if str == "" {
		return false
	}
	for i, r := range str {
		if i == 0 && !isNCStartChar(r) {
			return false
		}
		if !isNCChar(r) {
			return false
		}
	}
	return true
}

// IsLibrary reports whether the query starts with a library module
// declaration, ignoring the version declaration and comments.
func IsLibrary(query string) bool {
	str := removeComments(query, 200)
	if strings.HasPrefix(str, "xquery ") {
		ix := strings.Index(str, ";")
		if ix < 0 {
			return false
		}
		str = strings.TrimSpace(str[ix+1:])
	}
	if !strings.HasPrefix(str, "module ") {
		return false
	}
	str = strings.TrimSpace(strings.TrimPrefix(str, "module "))
	return strings.HasPrefix(str, "namespace ") || strings.HasPrefix(str, "namespace(")
}

func removeComments(query string, limit int) string {
	var (
		str   strings.Builder
		space bool
		depth int
		input = []rune(query)
	)
	for i := 0; i < len(input) && str.Len() < limit; i++ {
		r := input[i]
		switch {
		case r == '\r':
		case r == '(' && i+1 < len(input) && input[i+1] == ':':
			if depth == 0 && !space {
				str.WriteByte(' ')
				space = true
			}
			depth++
			i++
		case depth > 0 && r == ':' && i+1 < len(input) && input[i+1] == ')':
			depth--
			i++
		case depth == 0:
			if r > ' ' {
				str.WriteRune(r)
			} else if !space {
				str.WriteByte(' ')
			}
			space = r <= ' '
		}
	}
	return strings.TrimSpace(str.String())
}
