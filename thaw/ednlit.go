package thaw

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/arloliu/forma/value"
)

// parseEDNLiteral reads a small, safe subset of edn-style literal syntax:
// nil, true/false, integers, floats, double-quoted strings, [vector
// literals], and {map literals}. There is no symbol resolution and no
// evaluation of any kind — an input that isn't one of these literal forms
// is a parse error, never a crash or an arbitrary side effect.
func parseEDNLiteral(s string) (value.Value, error) {
	p := &ednParser{src: s}

	p.skipSpace()

	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}

	p.skipSpace()

	if !p.done() {
		return value.Value{}, fmt.Errorf("edn literal: trailing input at offset %d", p.pos)
	}

	return v, nil
}

type ednParser struct {
	src string
	pos int
}

func (p *ednParser) done() bool { return p.pos >= len(p.src) }

func (p *ednParser) peek() byte {
	if p.done() {
		return 0
	}

	return p.src[p.pos]
}

func (p *ednParser) skipSpace() {
	for !p.done() && isEDNSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isEDNSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == ','
}

func (p *ednParser) parseValue() (value.Value, error) {
	p.skipSpace()

	if p.done() {
		return value.Value{}, fmt.Errorf("edn literal: unexpected end of input")
	}

	switch c := p.peek(); {
	case c == '"':
		return p.parseString()
	case c == '[':
		return p.parseVector()
	case c == '{':
		return p.parseMap()
	case c == '-' || c == '+' || unicode.IsDigit(rune(c)):
		return p.parseNumber()
	default:
		return p.parseSymbol()
	}
}

func (p *ednParser) parseString() (value.Value, error) {
	if p.peek() != '"' {
		return value.Value{}, fmt.Errorf("edn literal: expected '\"' at offset %d", p.pos)
	}

	p.pos++

	var sb strings.Builder

	for {
		if p.done() {
			return value.Value{}, fmt.Errorf("edn literal: unterminated string")
		}

		c := p.src[p.pos]

		if c == '"' {
			p.pos++
			return value.String(sb.String()), nil
		}

		if c == '\\' {
			p.pos++

			if p.done() {
				return value.Value{}, fmt.Errorf("edn literal: unterminated escape")
			}

			switch p.src[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(p.src[p.pos])
			}

			p.pos++

			continue
		}

		sb.WriteByte(c)
		p.pos++
	}
}

func (p *ednParser) parseVector() (value.Value, error) {
	p.pos++ // consume '['

	var items []value.Value

	for {
		p.skipSpace()

		if p.done() {
			return value.Value{}, fmt.Errorf("edn literal: unterminated vector")
		}

		if p.peek() == ']' {
			p.pos++
			return value.Vector(items), nil
		}

		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}

		items = append(items, v)
	}
}

func (p *ednParser) parseMap() (value.Value, error) {
	p.pos++ // consume '{'

	var entries []value.MapEntry

	for {
		p.skipSpace()

		if p.done() {
			return value.Value{}, fmt.Errorf("edn literal: unterminated map")
		}

		if p.peek() == '}' {
			p.pos++
			return value.Map(entries), nil
		}

		k, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}

		p.skipSpace()

		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, fmt.Errorf("edn literal: missing value for map key: %w", err)
		}

		entries = append(entries, value.MapEntry{Key: k, Val: v})
	}
}

func (p *ednParser) parseNumber() (value.Value, error) {
	start := p.pos

	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}

	isFloat := false

	for !p.done() {
		c := p.src[p.pos]

		switch {
		case unicode.IsDigit(rune(c)):
			p.pos++
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
			p.pos++
		case c == '-' || c == '+':
			// exponent sign, only valid immediately after 'e'/'E'
			p.pos++
		default:
			goto done
		}
	}

done:
	tok := p.src[start:p.pos]

	if isFloat {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("edn literal: invalid number %q: %w", tok, err)
		}

		return value.Float64(f), nil
	}

	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("edn literal: invalid integer %q: %w", tok, err)
	}

	return value.Int64(i), nil
}

func (p *ednParser) parseSymbol() (value.Value, error) {
	start := p.pos

	for !p.done() && !isEDNSpace(p.src[p.pos]) && p.src[p.pos] != ']' && p.src[p.pos] != '}' {
		p.pos++
	}

	tok := p.src[start:p.pos]

	switch tok {
	case "nil":
		return value.Nil(), nil
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	default:
		return value.Value{}, fmt.Errorf("edn literal: unrecognized symbol %q", tok)
	}
}
