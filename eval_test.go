package cirno

import (
	"errors"
	"strings"
	"testing"
)

func testEval(t *testing.T, term, expected *Term) *Buffer {
	t.Helper()
	out := &Buffer{}
	val := Eval(out, term)
	if !Equal(val, expected) {
		t.Fatalf("eval %s: expected %s, got %s", term, expected, val)
	}
	return out
}

func testEvalFatal(t *testing.T, term *Term, op string) {
	t.Helper()
	_, err := TryEval(&Buffer{}, term)
	var se *StuckError
	if !errors.As(err, &se) {
		t.Fatalf("eval %s: expected stuck error, got %v", term, err)
	}
	if se.Op != op {
		t.Fatalf("eval %s: expected stuck in %s, got %s (%v)", term, op, se.Op, se)
	}
}

// --- Reference programs ---

func TestEvalConditional(t *testing.T) {
	testEval(t, If(True(), Str("Hello"), Str("World")), Str("Hello"))
	testEval(t, If(False(), Str("Hello"), Str("World")), Str("World"))
}

func TestEvalConcat(t *testing.T) {
	testEval(t, Concat(Str("Hello "), Str("World")), Str("Hello World"))
}

func TestEvalIsNilNil(t *testing.T) {
	testEval(t, IsNil(Nil()), True())
}

func TestEvalNotIsNilCons(t *testing.T) {
	testEval(t, Not(IsNil(Cons(Nil(), Nil()))), True())
}

func TestEvalOrIsZeroPredInc(t *testing.T) {
	testEval(t, Or(False(), IsZero(Pred(Inc(Zero())))), True())
}

func TestEvalUnlessAndPrintlnShowNumeral(t *testing.T) {
	out := testEval(t, Unless(And(True(), False()), Println(Show(Numeral(9)))), Unit())
	want := "(S (S (S (S (S (S (S (S (S O)))))))))"
	if len(out.Lines) != 1 || out.Lines[0] != want {
		t.Fatalf("expected output [%s], got %q", want, out.Lines)
	}
}

func TestEvalAppSKI(t *testing.T) {
	testEval(t, App(App(K(), App(I(), App(S(), K()))), S()), App(S(), K()))
}

// --- Combinators ---

func TestEvalCombinatorRules(t *testing.T) {
	x := Str("x")
	testEval(t, App(I(), x), x)
	testEval(t, Apply(K(), x, Str("y")), x)
	// S K K behaves as I.
	testEval(t, Apply(S(), K(), K(), x), x)
	// S I I K = I K (I K) = K K
	testEval(t, Apply(S(), I(), I(), K()), App(K(), K()))
}

func TestEvalPartialApplicationIsValue(t *testing.T) {
	for _, term := range []*Term{
		App(S(), K()),
		Apply(S(), K(), K()),
		App(K(), Str("x")),
	} {
		testEval(t, term, term)
	}
	testEval(t, App(K(), App(I(), Str("x"))), App(K(), Str("x")))
}

func TestEvalStuckApplicationIsNotAnError(t *testing.T) {
	term := App(Str("f"), Concat(Str("a"), Str("b")))
	testEval(t, term, App(Str("f"), Str("ab")))
}

func TestEvalOperatorBeforeOperand(t *testing.T) {
	term := App(Seq(Println(Str("op")), I()), Seq(Println(Str("arg")), Str("x")))
	out := testEval(t, term, Str("x"))
	if strings.Join(out.Lines, ",") != "op,arg" {
		t.Fatalf("expected op before arg, got %q", out.Lines)
	}
}

// --- Built-ins ---

func TestEvalSequenceOrder(t *testing.T) {
	out := testEval(t, Seq(Println(Str("a")), Seq(Println(Str("b")), Str("c"))), Str("c"))
	if strings.Join(out.Lines, ",") != "a,b" {
		t.Fatalf("expected [a b], got %q", out.Lines)
	}
}

func TestEvalConcatAssociative(t *testing.T) {
	a, b, c := Str("x"), Concat(Str("y"), Str("")), Str("z")
	left := Eval(Discard, Concat(Concat(a, b), c))
	right := Eval(Discard, Concat(a, Concat(b, c)))
	if !Equal(left, right) || left.Str != "xyz" {
		t.Fatalf("concat not associative: %s vs %s", left, right)
	}
}

func TestEvalDesugaredForms(t *testing.T) {
	testEval(t, When(True(), Str("a")), Str("a"))
	testEval(t, When(False(), Str("a")), Unit())
	testEval(t, Unless(True(), Str("a")), Unit())
	testEval(t, Unless(False(), Str("a")), Str("a"))
	testEval(t, And(True(), True()), True())
	testEval(t, And(False(), Println(Str("never"))), False())
	testEval(t, Or(True(), Println(Str("never"))), True())
	testEval(t, Or(False(), False()), False())
	testEval(t, Not(True()), False())
	testEval(t, Not(False()), True())
}

func TestEvalShortCircuitSkipsOutput(t *testing.T) {
	out := testEval(t, And(False(), Seq(Println(Str("never")), True())), False())
	if len(out.Lines) != 0 {
		t.Fatalf("expected no output, got %q", out.Lines)
	}
}

func TestEvalWhileFalse(t *testing.T) {
	out := testEval(t, While(False(), Println(Str("loop"))), Unit())
	if len(out.Lines) != 0 {
		t.Fatalf("expected no output, got %q", out.Lines)
	}
}

func TestEvalLists(t *testing.T) {
	list := Cons(Str("a"), Cons(Str("b"), Nil()))
	testEval(t, First(list), Str("a"))
	testEval(t, First(Second(list)), Str("b"))
	testEval(t, IsNil(Second(Second(list))), True())
	testEval(t, IsNil(list), False())
	testEval(t, IsNil(Str("not a list")), False())
	testEval(t, Cons(Concat(Str("a"), Str("b")), Nil()), Cons(Str("ab"), Nil()))
}

func TestEvalNumerals(t *testing.T) {
	testEval(t, Numeral(0), Zero())
	testEval(t, Numeral(3), Inc(Inc(Inc(Zero()))))
	testEval(t, Pred(Numeral(2)), Inc(Zero()))
	testEval(t, IsZero(Numeral(0)), True())
	testEval(t, IsZero(Numeral(1)), False())
	testEval(t, IsZero(Str("zero")), False())
	testEval(t, Inc(Pred(Numeral(1))), Inc(Zero()))
}

func TestEvalShow(t *testing.T) {
	testEval(t, Show(Str("as is")), Str("as is"))
	testEval(t, Show(True()), Str("true"))
	testEval(t, Show(False()), Str("false"))
	testEval(t, Show(Unit()), Str("unit"))
	testEval(t, Show(Zero()), Str("O"))
	testEval(t, Show(Numeral(2)), Str("(S (S O))"))
}

func TestEvalShowNumeralCountsSuccessors(t *testing.T) {
	for n := 0; n <= 40; n++ {
		s := Eval(Discard, Show(Numeral(n))).Str
		if got := strings.Count(s, "S "); got != n {
			t.Fatalf("show %d: expected %d successors, got %d in %q", n, n, got, s)
		}
	}
}

func TestEvalValuesAreFixedPoints(t *testing.T) {
	for _, v := range []*Term{
		Str("s"), True(), Unit(), S(), K(), I(), Nil(), Zero(),
		App(K(), Str("x")), Apply(S(), K(), I()), Cons(Zero(), Nil()), Inc(Inc(Zero())),
	} {
		if got := Eval(Discard, v); got != v {
			t.Fatalf("eval %s: expected the same value back, got %s", v, got)
		}
	}
}

func TestEvalDoesNotMutateInput(t *testing.T) {
	term := Seq(Println(Show(Numeral(2))), App(I(), Str("x")))
	before := term.String()
	Eval(Discard, term)
	if term.String() != before {
		t.Fatalf("input changed: %s -> %s", before, term)
	}
}

// --- Stuck terms ---

func TestEvalStuckTerms(t *testing.T) {
	testEvalFatal(t, If(Str("yes"), Unit(), Unit()), "if")
	testEvalFatal(t, When(Zero(), Unit()), "if")
	testEvalFatal(t, Not(Nil()), "if")
	testEvalFatal(t, Println(True()), "println")
	testEvalFatal(t, Concat(Str("a"), Zero()), "concat")
	testEvalFatal(t, Concat(Nil(), Str("a")), "concat")
	testEvalFatal(t, First(Nil()), "first")
	testEvalFatal(t, Second(Str("ab")), "second")
	testEvalFatal(t, Pred(Zero()), "pred")
	testEvalFatal(t, Show(S()), "show")
	testEvalFatal(t, Show(Cons(Nil(), Nil())), "show")
	testEvalFatal(t, Numeral(-1), "numeral")
}

func TestEvalStuckPanics(t *testing.T) {
	defer func() {
		r := recover()
		if _, ok := r.(*StuckError); !ok {
			t.Fatalf("expected *StuckError panic, got %v", r)
		}
	}()
	Eval(Discard, Pred(Zero()))
}

func TestTryEvalKeepsOutputBeforeFailure(t *testing.T) {
	out := &Buffer{}
	_, err := TryEval(out, Seq(Println(Str("before")), First(Nil())))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(out.Lines) != 1 || out.Lines[0] != "before" {
		t.Fatalf("expected [before], got %q", out.Lines)
	}
}

func TestEvalNilOutputDiscards(t *testing.T) {
	term := Seq(Println(Str("dropped")), Str("x"))
	if val := Eval(nil, term); !Equal(val, Str("x")) {
		t.Fatalf("eval %s: expected \"x\", got %s", term, val)
	}
	val, err := TryEval(nil, term)
	if err != nil || !Equal(val, Str("x")) {
		t.Fatalf("try eval %s: got %v, %v", term, val, err)
	}
}
