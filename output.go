package cirno

import (
	"fmt"
	"io"
)

// Output receives the messages a program prints. Eval calls Println
// synchronously, in program order, once per println node reduced.
type Output interface {
	Println(msg string)
}

// OutputFunc adapts a function to Output.
type OutputFunc func(msg string)

func (f OutputFunc) Println(msg string) { f(msg) }

// Discard drops every message.
var Discard Output = OutputFunc(func(string) {})

// Buffer collects messages in memory.
type Buffer struct {
	Lines []string
}

func (b *Buffer) Println(msg string) {
	b.Lines = append(b.Lines, msg)
}

// Reset drops collected messages.
func (b *Buffer) Reset() {
	b.Lines = nil
}

// Console writes each message followed by a newline. Write errors are
// remembered in Err and further messages are dropped.
type Console struct {
	W   io.Writer
	Err error
}

func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) Println(msg string) {
	if c.Err != nil {
		return
	}
	_, c.Err = fmt.Fprintln(c.W, msg)
}

type tee []Output

func (t tee) Println(msg string) {
	for _, o := range t {
		o.Println(msg)
	}
}

// Tee forwards each message to every non-nil output, in order.
func Tee(outs ...Output) Output {
	var t tee
	for _, o := range outs {
		if o != nil {
			t = append(t, o)
		}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}
