package cirno

import "context"

// ctxCheckInterval is how many transitions Run takes between context checks.
const ctxCheckInterval = 1024

type frameKind int

const (
	frameAppArg     frameKind = iota // operator in progress; a = operand term
	frameAppApply                    // operand in progress; a = operator value
	frameIf                          // condition in progress; a = then, b = else
	framePrintln
	frameConcatRight // left in progress; a = right term
	frameConcatJoin  // right in progress; a = left value
	frameSeq         // left in progress; a = right term
	frameShow
	frameIsNil
	frameFirst
	frameSecond
	frameIsZero
	framePred
	frameConsTail  // head in progress; a = tail term
	frameConsBuild // tail in progress; a = head value
	frameInc
	frameNumeral // n = increments still to wrap around the value
)

// frame is one pending continuation on the machine's stack.
type frame struct {
	kind frameKind
	a, b *Term
	n    int
}

// unaryFrames maps single-operand kinds to the frame that finishes them.
var unaryFrames = map[Kind]frameKind{
	TermPrintln: framePrintln,
	TermShow:    frameShow,
	TermIsNil:   frameIsNil,
	TermFirst:   frameFirst,
	TermSecond:  frameSecond,
	TermIsZero:  frameIsZero,
	TermPred:    framePred,
	TermInc:     frameInc,
}

// Machine evaluates a term with an explicit continuation stack instead of
// Go recursion. It computes the same result and emits the same output as
// Eval, but runs loops in constant stack depth, can be stepped one
// transition at a time, and stops on a step budget or a cancelled context.
type Machine struct {
	out       Output
	stack     []frame
	control   *Term
	returning bool // control holds a value travelling back up the stack
	done      bool
	err       error
	steps     int
	fuel      int
	maxDepth  int
}

type MachineOption func(*Machine)

// WithFuel limits the machine to n transitions. Zero means no limit.
func WithFuel(n int) MachineOption {
	return func(m *Machine) { m.fuel = n }
}

func NewMachine(out Output, t *Term, opts ...MachineOption) *Machine {
	if out == nil {
		out = Discard
	}
	m := &Machine{out: out, control: t}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run evaluates t on a fresh machine until it finishes.
func Run(ctx context.Context, out Output, t *Term, opts ...MachineOption) (*Term, error) {
	return NewMachine(out, t, opts...).Run(ctx)
}

// Steps returns the number of transitions taken so far.
func (m *Machine) Steps() int { return m.steps }

// Depth returns the number of pending continuation frames.
func (m *Machine) Depth() int { return len(m.stack) }

// MaxDepth returns the deepest the continuation stack has been.
func (m *Machine) MaxDepth() int { return m.maxDepth }

// Done reports whether the machine has produced its result.
func (m *Machine) Done() bool { return m.done }

// Result returns the final value, or nil before the machine is done.
func (m *Machine) Result() *Term {
	if !m.done {
		return nil
	}
	return m.control
}

// Step performs a single transition. Once the machine is done or stuck,
// further calls return the same outcome. Running out of fuel is not sticky:
// the machine can be resumed after AddFuel.
func (m *Machine) Step() (bool, error) {
	if m.done || m.err != nil {
		return m.done, m.err
	}
	if m.fuel > 0 && m.steps >= m.fuel {
		return false, ErrFuelExhausted
	}
	m.steps++

	var err *StuckError
	if m.returning {
		err = m.resume()
	} else {
		err = m.reduce()
	}
	if err != nil {
		m.err = err
		return false, err
	}
	if len(m.stack) > m.maxDepth {
		m.maxDepth = len(m.stack)
	}
	return m.done, nil
}

// AddFuel extends the step budget by n transitions.
func (m *Machine) AddFuel(n int) {
	if m.fuel > 0 {
		m.fuel += n
	}
}

// Run steps the machine until it is done, stuck, out of fuel or ctx is
// cancelled.
func (m *Machine) Run(ctx context.Context) (*Term, error) {
	for !m.done {
		if m.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, err := m.Step(); err != nil {
			return nil, err
		}
	}
	return m.control, nil
}

func (m *Machine) push(f frame) {
	m.stack = append(m.stack, f)
}

func (m *Machine) pop() frame {
	f := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return f
}

// descend makes t the next term to reduce.
func (m *Machine) descend(t *Term) {
	m.control = t
	m.returning = false
}

// give hands the value v to the innermost pending frame.
func (m *Machine) give(v *Term) {
	m.control = v
	m.returning = true
}

func (m *Machine) giveOr(v *Term, err *StuckError) *StuckError {
	if err != nil {
		return err
	}
	m.give(v)
	return nil
}

// reduce starts evaluating the control term.
func (m *Machine) reduce() *StuckError {
	t := m.control
	if IsValue(t) {
		m.give(t)
		return nil
	}

	switch t.Kind {
	case TermApp:
		m.push(frame{kind: frameAppArg, a: t.Right()})
		m.descend(t.Left())
	case TermIf:
		m.push(frame{kind: frameIf, a: t.Right(), b: t.Third()})
		m.descend(t.Left())
	case TermConcat:
		m.push(frame{kind: frameConcatRight, a: t.Right()})
		m.descend(t.Left())
	case TermSeq:
		m.push(frame{kind: frameSeq, a: t.Right()})
		m.descend(t.Left())
	case TermCons:
		m.push(frame{kind: frameConsTail, a: t.Right()})
		m.descend(t.Left())
	case TermWhen, TermUnless, TermAnd, TermOr, TermNot, TermWhile:
		m.descend(desugar(t))
	case TermNumeral:
		// One increment per transition, so fuel bounds large literals.
		if t.Num < 0 {
			return stuck("numeral", "a non-negative literal", t)
		}
		if t.Num > 0 {
			m.push(frame{kind: frameNumeral, n: t.Num})
		}
		m.give(Zero())
	default:
		kind, ok := unaryFrames[t.Kind]
		if !ok {
			return stuck("eval", "a known term", t)
		}
		m.push(frame{kind: kind})
		m.descend(t.Left())
	}
	return nil
}

// resume feeds the value in control to the innermost frame.
func (m *Machine) resume() *StuckError {
	v := m.control
	if len(m.stack) == 0 {
		m.done = true
		return nil
	}

	f := m.pop()
	switch f.kind {
	case frameAppArg:
		m.push(frame{kind: frameAppApply, a: v})
		m.descend(f.a)
	case frameAppApply:
		next, val := apply(f.a, v)
		if next != nil {
			m.descend(next)
		} else {
			m.give(val)
		}
	case frameIf:
		b, err := truth(v)
		if err != nil {
			return err
		}
		if b {
			m.descend(f.a)
		} else {
			m.descend(f.b)
		}
	case framePrintln:
		return m.giveOr(emit(m.out, v))
	case frameConcatRight:
		m.push(frame{kind: frameConcatJoin, a: v})
		m.descend(f.a)
	case frameConcatJoin:
		return m.giveOr(concat(f.a, v))
	case frameSeq:
		m.descend(f.a)
	case frameShow:
		return m.giveOr(show(v))
	case frameIsNil:
		m.give(Bool(v.Kind == TermNil))
	case frameFirst:
		return m.giveOr(first(v))
	case frameSecond:
		return m.giveOr(second(v))
	case frameIsZero:
		m.give(Bool(v.Kind == TermZero))
	case framePred:
		return m.giveOr(pred(v))
	case frameConsTail:
		m.push(frame{kind: frameConsBuild, a: v})
		m.descend(f.a)
	case frameConsBuild:
		m.give(Cons(f.a, v))
	case frameInc:
		m.give(Inc(v))
	case frameNumeral:
		if f.n > 1 {
			m.push(frame{kind: frameNumeral, n: f.n - 1})
		}
		m.give(Inc(v))
	}
	return nil
}
