package dataset

import (
	"strings"
	"unicode"
)

// parseLiteral parses bracket-delimited literal syntax like
// "['CRISP','IRIS']", "('a', 'b')" or "{'key': 'value'}" into a flat list
// of strings. Collections are flattened recursively, dict keys are dropped
// and only their values kept, None elements are skipped. The grammar is
// deliberately narrow: any input outside it fails the parse so the caller
// can fall back to delimiter splitting.
func parseLiteral(s string) ([]string, bool) {
	p := &literalParser{input: []rune(s)}
	var out []string
	if !p.parseValue(&out) {
		return nil, false
	}
	p.skipSpace()
	if !p.done() {
		return nil, false
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}

type literalParser struct {
	input []rune
	pos   int
}

func (p *literalParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *literalParser) peek() rune {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.done() && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

// parseValue parses one literal value and appends its flattened string
// form(s) to out.
func (p *literalParser) parseValue(out *[]string) bool {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '[':
		return p.parseSequence(out, '[', ']')
	case c == '(':
		return p.parseSequence(out, '(', ')')
	case c == '{':
		return p.parseBrace(out)
	case c == '\'' || c == '"':
		return p.parseString(out)
	case c == '-' || c == '+' || unicode.IsDigit(c):
		return p.parseNumber(out)
	case unicode.IsLetter(c):
		return p.parseKeyword(out)
	default:
		return false
	}
}

func (p *literalParser) parseSequence(out *[]string, open, close rune) bool {
	if p.peek() != open {
		return false
	}
	p.pos++
	p.skipSpace()
	if p.peek() == close {
		p.pos++
		return true
	}
	for {
		if !p.parseValue(out) {
			return false
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			// trailing comma
			if p.peek() == close {
				p.pos++
				return true
			}
		case close:
			p.pos++
			return true
		default:
			return false
		}
	}
}

// parseBrace handles both dicts and sets. A ':' after the first element
// makes it a dict, in which case keys are discarded and values flattened.
func (p *literalParser) parseBrace(out *[]string) bool {
	if p.peek() != '{' {
		return false
	}
	p.pos++
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return true
	}

	var first []string
	if !p.parseValue(&first) {
		return false
	}
	p.skipSpace()

	if p.peek() == ':' {
		// dict: the element just parsed was a key, drop it
		p.pos++
		if !p.parseValue(out) {
			return false
		}
		p.skipSpace()
		for p.peek() == ',' {
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				break
			}
			var key []string
			if !p.parseValue(&key) {
				return false
			}
			p.skipSpace()
			if p.peek() != ':' {
				return false
			}
			p.pos++
			if !p.parseValue(out) {
				return false
			}
			p.skipSpace()
		}
		if p.peek() != '}' {
			return false
		}
		p.pos++
		return true
	}

	// set
	*out = append(*out, first...)
	for p.peek() == ',' {
		p.pos++
		p.skipSpace()
		if p.peek() == '}' {
			break
		}
		if !p.parseValue(out) {
			return false
		}
		p.skipSpace()
	}
	if p.peek() != '}' {
		return false
	}
	p.pos++
	return true
}

func (p *literalParser) parseString(out *[]string) bool {
	quote := p.peek()
	p.pos++
	var sb strings.Builder
	for !p.done() {
		c := p.input[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.done() {
				return false
			}
			sb.WriteRune(p.input[p.pos])
			p.pos++
		case quote:
			p.pos++
			*out = append(*out, sb.String())
			return true
		default:
			sb.WriteRune(c)
			p.pos++
		}
	}
	return false
}

func (p *literalParser) parseNumber(out *[]string) bool {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := false
	for !p.done() {
		c := p.input[p.pos]
		if unicode.IsDigit(c) {
			digits = true
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || c == '_' ||
			((c == '-' || c == '+') && (p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	if !digits {
		return false
	}
	*out = append(*out, string(p.input[start:p.pos]))
	return true
}

// parseKeyword accepts the bare literals True, False and None. None
// elements are dropped from the output like missing values elsewhere.
func (p *literalParser) parseKeyword(out *[]string) bool {
	start := p.pos
	for !p.done() && unicode.IsLetter(p.input[p.pos]) {
		p.pos++
	}
	switch word := string(p.input[start:p.pos]); word {
	case "True", "False":
		*out = append(*out, word)
		return true
	case "None":
		return true
	default:
		return false
	}
}
