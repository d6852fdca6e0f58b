package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	cirno "github.com/dgu123/Cirno"
	"github.com/dgu123/Cirno/transcript"
	"github.com/peterh/liner"
)

const helpText = `REPL commands:
  :help    Show this help
  :quit    Exit the REPL
Anything else is read as one cirno term, e.g. (println (show 3))`

type runner struct {
	store *transcript.Store
	fuel  int
	out   *cirno.Console
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	os.Exit(run())
}

func run() int {
	expr := flag.String("e", "", "evaluate `expr` and exit")
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("cirno: ")

	fuel, err := strconv.Atoi(envOr("CIRNO_FUEL", "0"))
	if err != nil || fuel < 0 {
		log.Printf("invalid CIRNO_FUEL %q", os.Getenv("CIRNO_FUEL"))
		return 2
	}

	r := &runner{fuel: fuel, out: cirno.NewConsole(os.Stdout)}
	if path := os.Getenv("CIRNO_TRANSCRIPT"); path != "" {
		store, err := transcript.Open(path)
		if err != nil {
			log.Printf("open transcript: %v", err)
			return 1
		}
		defer store.Close()
		r.store = store
	}

	if *expr == "" && flag.NArg() == 0 {
		return r.repl()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *expr != "" && flag.NArg() == 0:
		return r.eval(ctx, *expr)
	case *expr == "" && flag.NArg() == 1:
		src, err := readSource(flag.Arg(0))
		if err != nil {
			log.Printf("read program: %v", err)
			return 1
		}
		return r.eval(ctx, src)
	default:
		fmt.Fprintln(os.Stderr, "usage: cirno [-e expr | file]")
		return 2
	}
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// eval runs one program, prints its result and returns an exit status.
func (r *runner) eval(ctx context.Context, src string) int {
	var opts []cirno.MachineOption
	if r.fuel > 0 {
		opts = append(opts, cirno.WithFuel(r.fuel))
	}

	tr, val, err := cirno.Evaluate(ctx, src, r.out, opts...)
	if r.store != nil {
		if _, serr := r.store.Save(context.WithoutCancel(ctx), tr); serr != nil {
			log.Printf("save trace: %v", serr)
		}
	}
	if r.out.Err != nil {
		log.Printf("write output: %v", r.out.Err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", tr.Error)
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	fmt.Println(val)
	return 0
}

func (r *runner) repl() int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := envOr("CIRNO_HISTORY", filepath.Join(home, ".cirno_history"))
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("cirno REPL. Type :help for commands.")
	for {
		line, err := ln.Prompt("cirno> ")
		if errors.Is(err, io.EOF) {
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			log.Printf("read line: %v", err)
			return 1
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return 0
		case ":help":
			fmt.Println(helpText)
			continue
		}
		ln.AppendHistory(line)

		// Ctrl-C while a term runs cancels that term only.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		r.eval(ctx, line)
		stop()
	}
}
