package cirno

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	TermString Kind = iota
	TermBool
	TermUnit
	TermS
	TermK
	TermI
	TermNil
	TermZero
	TermNumeral // literal-numeral: Num expands to a Peano chain on evaluation
	TermApp
	TermConcat
	TermIf
	TermWhen
	TermUnless
	TermPrintln
	TermSeq
	TermShow
	TermAnd
	TermOr
	TermNot
	TermWhile
	TermCons
	TermIsNil
	TermFirst
	TermSecond
	TermInc
	TermPred
	TermIsZero
)

var kindNames = [...]string{
	TermString:  "String",
	TermBool:    "Bool",
	TermUnit:    "Unit",
	TermS:       "S",
	TermK:       "K",
	TermI:       "I",
	TermNil:     "Nil",
	TermZero:    "Zero",
	TermNumeral: "Numeral",
	TermApp:     "App",
	TermConcat:  "Concat",
	TermIf:      "If",
	TermWhen:    "When",
	TermUnless:  "Unless",
	TermPrintln: "Println",
	TermSeq:     "Seq",
	TermShow:    "Show",
	TermAnd:     "And",
	TermOr:      "Or",
	TermNot:     "Not",
	TermWhile:   "While",
	TermCons:    "Cons",
	TermIsNil:   "IsNil",
	TermFirst:   "First",
	TermSecond:  "Second",
	TermInc:     "Inc",
	TermPred:    "Pred",
	TermIsZero:  "IsZero",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Term is a node of a cirno program. Compound kinds keep their subterms in
// Children, in the order the constructor takes them. Terms are never
// mutated once built; evaluation always produces new nodes.
type Term struct {
	Kind     Kind
	Str      string
	Bool     bool
	Num      int
	Children []*Term
}

func Str(s string) *Term   { return &Term{Kind: TermString, Str: s} }
func Bool(b bool) *Term    { return &Term{Kind: TermBool, Bool: b} }
func True() *Term          { return Bool(true) }
func False() *Term         { return Bool(false) }
func Unit() *Term          { return &Term{Kind: TermUnit} }
func S() *Term             { return &Term{Kind: TermS} }
func K() *Term             { return &Term{Kind: TermK} }
func I() *Term             { return &Term{Kind: TermI} }
func Nil() *Term           { return &Term{Kind: TermNil} }
func Zero() *Term          { return &Term{Kind: TermZero} }
func Numeral(n int) *Term  { return &Term{Kind: TermNumeral, Num: n} }
func App(f, a *Term) *Term { return compound(TermApp, f, a) }

// Apply builds the left-nested application f a1 a2 ... an.
func Apply(f *Term, args ...*Term) *Term {
	for _, a := range args {
		f = App(f, a)
	}
	return f
}

func Concat(l, r *Term) *Term   { return compound(TermConcat, l, r) }
func If(c, t, e *Term) *Term    { return compound(TermIf, c, t, e) }
func When(c, a *Term) *Term     { return compound(TermWhen, c, a) }
func Unless(c, a *Term) *Term   { return compound(TermUnless, c, a) }
func Println(x *Term) *Term     { return compound(TermPrintln, x) }
func Seq(l, r *Term) *Term      { return compound(TermSeq, l, r) }
func Show(x *Term) *Term        { return compound(TermShow, x) }
func And(l, r *Term) *Term      { return compound(TermAnd, l, r) }
func Or(l, r *Term) *Term       { return compound(TermOr, l, r) }
func Not(x *Term) *Term         { return compound(TermNot, x) }
func While(c, body *Term) *Term { return compound(TermWhile, c, body) }
func Cons(h, t *Term) *Term     { return compound(TermCons, h, t) }
func IsNil(x *Term) *Term       { return compound(TermIsNil, x) }
func First(x *Term) *Term       { return compound(TermFirst, x) }
func Second(x *Term) *Term      { return compound(TermSecond, x) }
func Inc(x *Term) *Term         { return compound(TermInc, x) }
func Pred(x *Term) *Term        { return compound(TermPred, x) }
func IsZero(x *Term) *Term      { return compound(TermIsZero, x) }

func compound(k Kind, children ...*Term) *Term {
	return &Term{Kind: k, Children: children}
}

// Left, Right and Third name the first, second and third subterm.
func (t *Term) Left() *Term  { return t.Children[0] }
func (t *Term) Right() *Term { return t.Children[1] }
func (t *Term) Third() *Term { return t.Children[2] }

// formNames maps compound kinds to their head symbol in the surface syntax.
var formNames = map[Kind]string{
	TermConcat:  "concat",
	TermIf:      "if",
	TermWhen:    "when",
	TermUnless:  "unless",
	TermPrintln: "println",
	TermSeq:     "seq",
	TermShow:    "show",
	TermAnd:     "and",
	TermOr:      "or",
	TermNot:     "not",
	TermWhile:   "while",
	TermCons:    "cons",
	TermIsNil:   "nil?",
	TermFirst:   "first",
	TermSecond:  "second",
	TermInc:     "inc",
	TermPred:    "pred",
	TermIsZero:  "zero?",
}

// String renders t in the surface syntax accepted by Parse.
func (t *Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	switch t.Kind {
	case TermString:
		b.WriteString(quote(t.Str))
	case TermBool:
		b.WriteString(strconv.FormatBool(t.Bool))
	case TermUnit:
		b.WriteString("unit")
	case TermS:
		b.WriteString("S")
	case TermK:
		b.WriteString("K")
	case TermI:
		b.WriteString("I")
	case TermNil:
		b.WriteString("nil")
	case TermZero:
		b.WriteString("O")
	case TermNumeral:
		b.WriteString(strconv.Itoa(t.Num))
	case TermApp:
		// Flatten the left spine: ((f a) b) prints as (f a b).
		var args []*Term
		head := t
		for head.Kind == TermApp {
			args = append(args, head.Right())
			head = head.Left()
		}
		b.WriteByte('(')
		head.write(b)
		for i := len(args) - 1; i >= 0; i-- {
			b.WriteByte(' ')
			args[i].write(b)
		}
		b.WriteByte(')')
	case TermInc:
		depth := 0
		for t.Kind == TermInc {
			depth++
			t = t.Left()
		}
		b.WriteString(strings.Repeat("(inc ", depth))
		t.write(b)
		b.WriteString(strings.Repeat(")", depth))
	default:
		name, ok := formNames[t.Kind]
		if !ok {
			fmt.Fprintf(b, "<%s>", t.Kind)
			return
		}
		b.WriteByte('(')
		b.WriteString(name)
		for _, c := range t.Children {
			b.WriteByte(' ')
			c.write(b)
		}
		b.WriteByte(')')
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Equal compares two terms structurally.
func Equal(a, b *Term) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	for a.Kind == TermInc && b.Kind == TermInc {
		a, b = a.Left(), b.Left()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TermString:
		return a.Str == b.Str
	case TermBool:
		return a.Bool == b.Bool
	case TermNumeral:
		return a.Num == b.Num
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
