package cirno

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateRecordsOutputAndResult(t *testing.T) {
	passthrough := &Buffer{}
	tr, val, err := Evaluate(context.Background(), `(println "hi") (println (show 2)) (show 3)`, passthrough)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(val, Str("(S (S (S O)))")) {
		t.Fatalf("unexpected value %s", val)
	}
	if tr.Result != `"(S (S (S O)))"` {
		t.Fatalf("unexpected result %q", tr.Result)
	}
	if strings.Join(tr.Output, "|") != "hi|(S (S O))" {
		t.Fatalf("unexpected trace output %q", tr.Output)
	}
	if strings.Join(passthrough.Lines, "|") != "hi|(S (S O))" {
		t.Fatalf("output not forwarded: %q", passthrough.Lines)
	}
	if tr.Failed() || tr.Steps == 0 {
		t.Fatalf("unexpected trace state: %+v", tr)
	}
	if _, err := time.Parse(time.RFC3339, tr.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", tr.Timestamp, err)
	}
}

func TestEvaluateParseError(t *testing.T) {
	tr, val, err := Evaluate(context.Background(), `(if true)`, nil)
	if err == nil || val != nil {
		t.Fatal("expected parse error")
	}
	if !tr.Failed() || !strings.HasPrefix(tr.Error, "parse: ") {
		t.Fatalf("unexpected trace error %q", tr.Error)
	}
	if tr.Entry != `(if true)` {
		t.Fatalf("unexpected entry %q", tr.Entry)
	}
}

func TestEvaluateStuck(t *testing.T) {
	tr, _, err := Evaluate(context.Background(), `(println "before") (pred O)`, nil)
	var se *StuckError
	if !errors.As(err, &se) {
		t.Fatalf("expected stuck error, got %v", err)
	}
	if tr.Error != "stuck: pred: expected Inc, got O" {
		t.Fatalf("unexpected trace error %q", tr.Error)
	}
	if len(tr.Output) != 1 || tr.Output[0] != "before" || tr.Result != "" {
		t.Fatalf("unexpected trace %+v", tr)
	}
}

func TestEvaluateFuel(t *testing.T) {
	tr, _, err := Evaluate(context.Background(), `(while true unit)`, nil, WithFuel(100))
	if !errors.Is(err, ErrFuelExhausted) {
		t.Fatalf("expected fuel exhaustion, got %v", err)
	}
	if tr.Error != ErrFuelExhausted.Error() || tr.Steps != 100 {
		t.Fatalf("unexpected trace %+v", tr)
	}
}

func TestEvaluateFuelBoundsLargeNumeral(t *testing.T) {
	tr, _, err := Evaluate(context.Background(), `(show 3000000)`, nil, WithFuel(10))
	if !errors.Is(err, ErrFuelExhausted) {
		t.Fatalf("expected fuel exhaustion, got %v", err)
	}
	if tr.Steps != 10 {
		t.Fatalf("expected 10 steps, got %d", tr.Steps)
	}
}
