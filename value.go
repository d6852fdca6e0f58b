package cirno

// IsValue reports whether t is in normal form: a literal atom, a bare
// combinator, K or S applied to a value, S applied to two values, nil, a
// cons of two values, zero, or an increment of a value.
func IsValue(t *Term) bool {
	switch t.Kind {
	case TermString, TermBool, TermUnit, TermS, TermK, TermI, TermNil, TermZero:
		return true
	case TermApp:
		f, x := t.Left(), t.Right()
		switch {
		case f.Kind == TermK, f.Kind == TermS:
			return IsValue(x)
		case f.Kind == TermApp && f.Left().Kind == TermS:
			return IsValue(f.Right()) && IsValue(x)
		}
		return false
	case TermCons:
		return IsValue(t.Left()) && IsValue(t.Right())
	case TermInc:
		// Numerals nest deeply; walk the chain instead of recursing.
		for t.Kind == TermInc {
			t = t.Left()
		}
		return IsValue(t)
	default:
		return false
	}
}
