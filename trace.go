package cirno

import (
	"context"
	"errors"
	"time"
)

// Trace captures one evaluation from source to result: the entry source,
// every message printed, and the result or error. Evaluation has no other
// inputs, so replaying Entry reproduces the run.
type Trace struct {
	ID        int64    // assigned by a store; zero until saved
	Entry     string   // source text that was evaluated
	Output    []string // println messages, in order
	Result    string   // canonical form of the result; empty on error
	Error     string   // non-empty on parse, stuck, fuel or cancellation errors
	Steps     int      // machine transitions taken
	Timestamp string   // RFC 3339, UTC
}

// Failed reports whether the evaluation ended in an error.
func (t *Trace) Failed() bool { return t.Error != "" }

// Evaluate parses src as a program and runs it on a Machine, forwarding
// output to out (which may be nil) while recording it in the trace. The
// returned error is also recorded in Trace.Error.
func Evaluate(ctx context.Context, src string, out Output, opts ...MachineOption) (*Trace, *Term, error) {
	tr := &Trace{
		Entry:     src,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	term, err := ParseAll(src)
	if err != nil {
		tr.Error = "parse: " + err.Error()
		return tr, nil, err
	}

	rec := OutputFunc(func(msg string) { tr.Output = append(tr.Output, msg) })
	m := NewMachine(Tee(rec, out), term, opts...)
	val, err := m.Run(ctx)
	tr.Steps = m.Steps()
	if err != nil {
		tr.Error = err.Error()
		var se *StuckError
		if errors.As(err, &se) {
			tr.Error = "stuck: " + se.Error()
		}
		return tr, nil, err
	}
	tr.Result = val.String()
	return tr, val, nil
}
