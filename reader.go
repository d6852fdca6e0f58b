package cirno

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type form struct {
	kind  Kind
	arity int // -1: two or more operands, folded
}

var forms = map[string]form{
	"app":     {TermApp, 2},
	"concat":  {TermConcat, -1},
	"if":      {TermIf, 3},
	"when":    {TermWhen, 2},
	"unless":  {TermUnless, 2},
	"println": {TermPrintln, 1},
	"seq":     {TermSeq, -1},
	"show":    {TermShow, 1},
	"and":     {TermAnd, 2},
	"or":      {TermOr, 2},
	"not":     {TermNot, 1},
	"while":   {TermWhile, 2},
	"cons":    {TermCons, 2},
	"nil?":    {TermIsNil, 1},
	"first":   {TermFirst, 1},
	"second":  {TermSecond, 1},
	"inc":     {TermInc, 1},
	"pred":    {TermPred, 1},
	"zero?":   {TermIsZero, 1},
}

type parser struct {
	input []rune
	pos   int
}

// Parse reads exactly one term from input.
func Parse(input string) (*Term, error) {
	p := &parser{input: []rune(input)}
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("empty input")
	}
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected input after expression at position %d", p.pos)
	}
	return t, nil
}

// ParseAll reads every top-level term in input and chains them with seq, so
// a program file runs its forms in order and yields the last one's value.
func ParseAll(input string) (*Term, error) {
	p := &parser{input: []rune(input)}
	var terms []*Term
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			break
		}
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return foldSeq(terms), nil
}

func foldSeq(terms []*Term) *Term {
	t := terms[len(terms)-1]
	for i := len(terms) - 2; i >= 0; i-- {
		t = Seq(terms[i], t)
	}
	return t
}

func (p *parser) parseTerm() (*Term, error) {
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch p.input[p.pos] {
	case '(':
		return p.parseList()
	case ')':
		return nil, fmt.Errorf("unexpected ')' at position %d", p.pos)
	case '"':
		return p.parseString()
	default:
		start := p.pos
		return atom(p.token(), start)
	}
}

func (p *parser) parseList() (*Term, error) {
	open := p.pos
	p.pos++ // skip '('
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unclosed list at position %d", open)
	}
	if p.input[p.pos] == ')' {
		return nil, fmt.Errorf("empty list at position %d", open)
	}

	var head *Term
	if ch := p.input[p.pos]; ch != '(' && ch != '"' {
		start := p.pos
		tok := p.token()
		if f, ok := forms[tok]; ok {
			return p.parseForm(tok, f, open)
		}
		t, err := atom(tok, start)
		if err != nil {
			return nil, err
		}
		head = t
	} else {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		head = t
	}

	args, err := p.parseOperands(open)
	if err != nil {
		return nil, err
	}
	return Apply(head, args...), nil
}

func (p *parser) parseForm(name string, f form, open int) (*Term, error) {
	args, err := p.parseOperands(open)
	if err != nil {
		return nil, err
	}
	if f.arity < 0 {
		if len(args) < 2 {
			return nil, fmt.Errorf("%s at position %d: expected at least 2 operands, got %d", name, open, len(args))
		}
		if f.kind == TermSeq {
			return foldSeq(args), nil
		}
		t := args[0]
		for _, a := range args[1:] {
			t = compound(f.kind, t, a)
		}
		return t, nil
	}
	if len(args) != f.arity {
		return nil, fmt.Errorf("%s at position %d: expected %d operands, got %d", name, open, f.arity, len(args))
	}
	return compound(f.kind, args...), nil
}

// parseOperands reads terms up to and including the closing ')'.
func (p *parser) parseOperands(open int) ([]*Term, error) {
	var args []*Term
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("unclosed list at position %d", open)
		}
		if p.input[p.pos] == ')' {
			p.pos++ // skip ')'
			return args, nil
		}
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
}

func (p *parser) parseString() (*Term, error) {
	start := p.pos
	p.pos++ // skip opening '"'
	var buf strings.Builder
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch == '\\' {
			p.pos++
			if p.pos >= len(p.input) {
				return nil, fmt.Errorf("unexpected end of input in string escape")
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				buf.WriteRune('\n')
			case 't':
				buf.WriteRune('\t')
			case '\\':
				buf.WriteRune('\\')
			case '"':
				buf.WriteRune('"')
			default:
				return nil, fmt.Errorf("unknown escape sequence \\%c at position %d", esc, p.pos-1)
			}
			p.pos++
			continue
		}
		if ch == '"' {
			p.pos++ // skip closing '"'
			return Str(buf.String()), nil
		}
		buf.WriteRune(ch)
		p.pos++
	}
	return nil, fmt.Errorf("unclosed string at position %d", start)
}

func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.input) && !isDelimiter(p.input[p.pos]) {
		p.pos++
	}
	return string(p.input[start:p.pos])
}

func atom(tok string, pos int) (*Term, error) {
	switch tok {
	case "":
		return nil, fmt.Errorf("unexpected character at position %d", pos)
	case "true":
		return True(), nil
	case "false":
		return False(), nil
	case "unit":
		return Unit(), nil
	case "S":
		return S(), nil
	case "K":
		return K(), nil
	case "I":
		return I(), nil
	case "nil":
		return Nil(), nil
	case "O":
		return Zero(), nil
	}
	if n, err := strconv.Atoi(tok); err == nil {
		if tok[0] == '+' {
			return nil, fmt.Errorf("signed numeral %s at position %d", tok, pos)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative numeral %s at position %d", tok, pos)
		}
		return Numeral(n), nil
	}
	if _, ok := forms[tok]; ok {
		return nil, fmt.Errorf("%s at position %d must head a list", tok, pos)
	}
	return nil, fmt.Errorf("unknown symbol %q at position %d", tok, pos)
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch == ';' {
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if !unicode.IsSpace(ch) {
			break
		}
		p.pos++
	}
}

func isDelimiter(ch rune) bool {
	return unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' || ch == ';'
}
