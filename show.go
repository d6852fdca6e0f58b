package cirno

import "strings"

// Render produces the display string of a value: strings unchanged, "true",
// "false", "unit", "O" for zero and "(S <n>)" for an increment of n.
func Render(v *Term) (string, error) {
	s, err := render(v)
	if err != nil {
		return "", err
	}
	return s, nil
}

func render(v *Term) (string, *StuckError) {
	depth := 0
	for v.Kind == TermInc {
		depth++
		v = v.Left()
	}

	var base string
	switch v.Kind {
	case TermString:
		base = v.Str
	case TermBool:
		if v.Bool {
			base = "true"
		} else {
			base = "false"
		}
	case TermUnit:
		base = "unit"
	case TermZero:
		base = "O"
	default:
		return "", stuck("show", "String, Bool, Unit or a numeral", v)
	}
	if depth == 0 {
		return base, nil
	}
	return strings.Repeat("(S ", depth) + base + strings.Repeat(")", depth), nil
}
