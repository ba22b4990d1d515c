package selector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type parser struct {
	src    string
	source string // as written, for errors
	pos    int
}

func parseSelector(src, source string) (m matcher, err error) {
	p := &parser{src: src, source: source}
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			m, err = nil, se
		}
	}()

	p.skipSpace()
	m = p.selectors()
	p.skipSpace()
	if !p.eof() {
		p.fail("unexpected %q", p.src[p.pos:p.pos+1])
	}
	return m, nil
}

func (p *parser) fail(format string, args ...any) {
	panic(&SyntaxError{Selector: p.source, Offset: p.pos, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) expect(c byte) {
	if p.peek() != c {
		if p.eof() {
			p.fail("expected %q, found end of input", string(c))
		}
		p.fail("expected %q", string(c))
	}
	p.pos++
}

// selectors parses a comma separated list.
func (p *parser) selectors() matcher {
	list := []matcher{p.selector()}
	for {
		save := p.pos
		p.skipSpace()
		if p.peek() != ',' {
			p.pos = save
			break
		}
		p.pos++
		p.skipSpace()
		list = append(list, p.selector())
	}
	if len(list) == 1 {
		return list[0]
	}
	return &matchesSel{selectors: list}
}

// selector parses sequences joined by combinators.
func (p *parser) selector() matcher {
	left := p.sequence()
	for {
		save := p.pos
		ws := p.skipSpace()

		switch c := p.peek(); c {
		case '>', '~', '+':
			p.pos++
			p.skipSpace()
			left = &combinator{kind: c, left: left, right: p.sequence()}
		case 0, ',', ')':
			p.pos = save
			return left
		default:
			if !ws {
				p.fail("unexpected %q", string(c))
			}
			left = &combinator{kind: ' ', left: left, right: p.sequence()}
		}
	}
}

// sequence parses a compound of atoms with no whitespace between them.
func (p *parser) sequence() matcher {
	var atoms []matcher
	for {
		a := p.atom()
		if a == nil {
			break
		}
		atoms = append(atoms, a)
	}
	switch len(atoms) {
	case 0:
		if p.eof() {
			p.fail("expected a selector, found end of input")
		}
		p.fail("expected a selector")
	case 1:
		return atoms[0]
	}
	return &compound{selectors: atoms}
}

func (p *parser) atom() matcher {
	switch c := p.peek(); {
	case c == '*':
		p.pos++
		return wildcard{}
	case c == '[':
		return p.attribute()
	case c == '.':
		p.pos++
		return &field{path: p.path()}
	case c == ':':
		return p.pseudo()
	case isIdentChar(c):
		return &identifier{name: p.name()}
	}
	return nil
}

func (p *parser) name() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		p.fail("expected a name")
	}
	return p.src[start:p.pos]
}

// path parses a dotted name such as "callee.object.name".
func (p *parser) path() []string {
	parts := []string{p.name()}
	for p.peek() == '.' {
		p.pos++
		parts = append(parts, p.name())
	}
	return parts
}

func (p *parser) pseudo() matcher {
	p.expect(':')
	start := p.pos
	for !p.eof() && (isLetter(p.src[p.pos]) || p.src[p.pos] == '-') {
		p.pos++
	}
	name := strings.ToLower(p.src[start:p.pos])

	switch name {
	case "has":
		return p.has()
	case "not", "matches", "is":
		p.expect('(')
		p.skipSpace()
		inner := p.selectors()
		p.skipSpace()
		p.expect(')')

		list := []matcher{inner}
		if m, ok := inner.(*matchesSel); ok {
			list = m.selectors
		}
		if name == "not" {
			return &notSel{selectors: list}
		}
		return &matchesSel{selectors: list}

	case "first-child":
		return &nthChild{n: 1}
	case "last-child":
		return &nthChild{n: 1, fromEnd: true}
	case "nth-child", "nth-last-child":
		p.expect('(')
		p.skipSpace()
		start := p.pos
		for !p.eof() && isDigit(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil || n < 1 {
			p.pos = start
			p.fail("expected a positive integer")
		}
		p.skipSpace()
		p.expect(')')
		return &nthChild{n: n, fromEnd: name == "nth-last-child"}

	case "statement", "expression", "declaration", "function", "pattern":
		return &class{name: name}
	}

	p.pos = start
	p.fail("unknown pseudo-class %q", name)
	return nil
}

// has parses the argument list of :has. An argument may start with ">" to
// be relative to the node being tested, as in ":has(> ReturnStatement)".
func (p *parser) has() matcher {
	p.expect('(')
	var list []matcher
	for {
		p.skipSpace()
		relative := p.peek() == '>'
		if relative {
			p.pos++
			p.skipSpace()
		}
		sel := p.selector()
		if relative {
			sel = anchorChild(sel)
		}
		list = append(list, sel)

		p.skipSpace()
		if p.peek() != ',' {
			break
		}
		p.pos++
	}
	p.expect(')')
	return &hasSel{selectors: list}
}

// anchorChild makes the leftmost sequence of m a child of the :has anchor.
func anchorChild(m matcher) matcher {
	if c, ok := m.(*combinator); ok {
		return &combinator{kind: c.kind, left: anchorChild(c.left), right: c.right}
	}
	return &combinator{kind: '>', left: anchor{}, right: m}
}

func (p *parser) attribute() matcher {
	p.expect('[')
	p.skipSpace()
	attr := &attribute{path: p.path()}
	p.skipSpace()

	switch {
	case strings.HasPrefix(p.src[p.pos:], "!="):
		attr.op = "!="
	case strings.HasPrefix(p.src[p.pos:], "<="):
		attr.op = "<="
	case strings.HasPrefix(p.src[p.pos:], ">="):
		attr.op = ">="
	case p.peek() == '=' || p.peek() == '<' || p.peek() == '>':
		attr.op = string(p.peek())
	}

	if attr.op != "" {
		p.pos += len(attr.op)
		p.skipSpace()
		attr.value = p.attrValue(attr.op)
		p.skipSpace()
	}
	p.expect(']')
	return attr
}

func (p *parser) attrValue(op string) attrValue {
	relational := op != "=" && op != "!="

	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return attrValue{kind: valueLiteral, literal: p.quoted(c)}
	case c == '/' && !relational:
		return p.regex()
	case isDigit(c) || c == '-' || c == '.':
		start := p.pos
		p.pos++
		for !p.eof() && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		num := p.src[start:p.pos]
		if _, err := strconv.ParseFloat(num, 64); err != nil {
			p.pos = start
			p.fail("invalid number %q", num)
		}
		return attrValue{kind: valueLiteral, literal: num, number: true}
	case strings.HasPrefix(p.src[p.pos:], "type(") && !relational:
		p.pos += len("type(")
		p.skipSpace()
		name := p.name()
		p.skipSpace()
		p.expect(')')
		return attrValue{kind: valueType, literal: name}
	case isIdentChar(c):
		return attrValue{kind: valueLiteral, literal: strings.Join(p.path(), ".")}
	}
	p.fail("expected an attribute value")
	return attrValue{}
}

func (p *parser) quoted(q byte) string {
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			p.fail("unterminated string")
		}
		c := p.src[p.pos]
		p.pos++
		switch c {
		case q:
			return b.String()
		case '\\':
			if p.eof() {
				p.fail("unterminated string")
			}
			b.WriteByte(p.src[p.pos])
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
}

func (p *parser) regex() attrValue {
	start := p.pos
	p.pos++
	var body strings.Builder
	for {
		if p.eof() {
			p.pos = start
			p.fail("unterminated regular expression")
		}
		c := p.src[p.pos]
		p.pos++
		if c == '/' {
			break
		}
		if c == '\\' && !p.eof() {
			body.WriteByte(c)
			c = p.src[p.pos]
			p.pos++
		}
		body.WriteByte(c)
	}

	flags := ""
	for !p.eof() && strings.IndexByte("imsu", p.src[p.pos]) >= 0 {
		flags += string(p.src[p.pos])
		p.pos++
	}
	pattern := body.String()
	if goFlags := strings.ReplaceAll(flags, "u", ""); goFlags != "" {
		pattern = "(?" + goFlags + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		p.pos = start
		p.fail("invalid regular expression: %v", err)
	}
	return attrValue{kind: valueRegexp, re: re}
}

func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

// isIdentChar follows esquery: anything that is not syntax.
func isIdentChar(c byte) bool {
	if c == 0 || isSpace(c) {
		return false
	}
	return strings.IndexByte(`[],():#!=><~+.*"'/`, c) < 0
}
