package cirno

// Eval reduces t to normal form, sending println output to out.
//
// Eval is the recursive reference evaluator: every subterm, every S-rule
// rewrite and every while iteration is a nested Go call, so stack depth
// grows with loop count. Ill-formed terms (branching on a non-boolean, pred
// of zero, ...) abort evaluation by panicking with a *StuckError. Use
// TryEval to get an error instead, or Machine for bounded, stack-safe runs.
// A nil out discards output.
func Eval(out Output, t *Term) *Term {
	if out == nil {
		out = Discard
	}
	if IsValue(t) {
		return t
	}

	switch t.Kind {
	case TermApp:
		f := Eval(out, t.Left())
		a := Eval(out, t.Right())
		next, v := apply(f, a)
		if next != nil {
			return Eval(out, next)
		}
		return v
	case TermIf:
		b, err := truth(Eval(out, t.Left()))
		if err != nil {
			panic(err)
		}
		if b {
			return Eval(out, t.Right())
		}
		return Eval(out, t.Third())
	case TermPrintln:
		return must(emit(out, Eval(out, t.Left())))
	case TermConcat:
		l := Eval(out, t.Left())
		r := Eval(out, t.Right())
		return must(concat(l, r))
	case TermSeq:
		Eval(out, t.Left())
		return Eval(out, t.Right())
	case TermShow:
		return must(show(Eval(out, t.Left())))
	case TermWhen, TermUnless, TermAnd, TermOr, TermNot, TermWhile:
		return Eval(out, desugar(t))
	case TermIsNil:
		return Bool(Eval(out, t.Left()).Kind == TermNil)
	case TermFirst:
		return must(first(Eval(out, t.Left())))
	case TermSecond:
		return must(second(Eval(out, t.Left())))
	case TermIsZero:
		return Bool(Eval(out, t.Left()).Kind == TermZero)
	case TermPred:
		return must(pred(Eval(out, t.Left())))
	case TermNumeral:
		return must(numeral(t.Num))
	case TermCons:
		h := Eval(out, t.Left())
		tl := Eval(out, t.Right())
		return Cons(h, tl)
	case TermInc:
		return Inc(Eval(out, t.Left()))
	}
	panic(stuck("eval", "a known term", t))
}

// TryEval is Eval with stuck terms reported as an error. Panics that are not
// a *StuckError are not recovered. A nil out discards output, as in Eval.
func TryEval(out Output, t *Term) (result *Term, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*StuckError)
			if !ok {
				panic(r)
			}
			result, err = nil, se
		}
	}()
	return Eval(out, t), nil
}

// apply combines an evaluated operator f and operand a. It returns either a
// term still to be evaluated (the S rewrite) or a final value.
func apply(f, a *Term) (next, value *Term) {
	switch {
	case f.Kind == TermApp && f.Left().Kind == TermApp && f.Left().Left().Kind == TermS:
		// S x y z = (x z) (y z)
		x, y := f.Left().Right(), f.Right()
		return App(App(x, a), App(y, a)), nil
	case f.Kind == TermApp && f.Left().Kind == TermK:
		return nil, f.Right()
	case f.Kind == TermI:
		return nil, a
	}
	return nil, App(f, a)
}

// desugar rewrites the derived forms onto if, seq and while.
func desugar(t *Term) *Term {
	switch t.Kind {
	case TermWhen:
		return If(t.Left(), t.Right(), Unit())
	case TermUnless:
		return If(t.Left(), Unit(), t.Right())
	case TermAnd:
		return If(t.Left(), t.Right(), False())
	case TermOr:
		return If(t.Left(), True(), t.Right())
	case TermNot:
		return If(t.Left(), False(), True())
	case TermWhile:
		return When(t.Left(), Seq(t.Right(), t))
	}
	return t
}

// must unwraps a rule result for Eval, which aborts on stuck terms.
func must(t *Term, err *StuckError) *Term {
	if err != nil {
		panic(err)
	}
	return t
}

func truth(c *Term) (bool, *StuckError) {
	if c.Kind != TermBool {
		return false, stuck("if", "Bool", c)
	}
	return c.Bool, nil
}

func emit(out Output, v *Term) (*Term, *StuckError) {
	if v.Kind != TermString {
		return nil, stuck("println", "String", v)
	}
	out.Println(v.Str)
	return Unit(), nil
}

func concat(l, r *Term) (*Term, *StuckError) {
	if l.Kind != TermString {
		return nil, stuck("concat", "String", l)
	}
	if r.Kind != TermString {
		return nil, stuck("concat", "String", r)
	}
	return Str(l.Str + r.Str), nil
}

func first(v *Term) (*Term, *StuckError) {
	if v.Kind != TermCons {
		return nil, stuck("first", "Cons", v)
	}
	return v.Left(), nil
}

func second(v *Term) (*Term, *StuckError) {
	if v.Kind != TermCons {
		return nil, stuck("second", "Cons", v)
	}
	return v.Right(), nil
}

func pred(v *Term) (*Term, *StuckError) {
	if v.Kind != TermInc {
		return nil, stuck("pred", "Inc", v)
	}
	return v.Left(), nil
}

func show(v *Term) (*Term, *StuckError) {
	s, err := render(v)
	if err != nil {
		return nil, err
	}
	return Str(s), nil
}

// numeral expands a literal into zero wrapped in n increments.
func numeral(n int) (*Term, *StuckError) {
	if n < 0 {
		return nil, stuck("numeral", "a non-negative literal", Numeral(n))
	}
	t := Zero()
	for i := 0; i < n; i++ {
		t = Inc(t)
	}
	return t, nil
}
