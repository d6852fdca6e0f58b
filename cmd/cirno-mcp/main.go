package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	cirno "github.com/dgu123/Cirno"
	"github.com/dgu123/Cirno/transcript"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultFuel = 1000000

type handlers struct {
	fuel  int
	store *transcript.Store // nil when no transcript is configured
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// jsonResult turns v into an MCP text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func traceView(tr *cirno.Trace) map[string]any {
	v := map[string]any{
		"entry":     tr.Entry,
		"output":    tr.Output,
		"steps":     tr.Steps,
		"timestamp": tr.Timestamp,
	}
	if tr.Output == nil {
		v["output"] = []string{}
	}
	if tr.ID != 0 {
		v["id"] = tr.ID
	}
	if tr.Failed() {
		v["error"] = tr.Error
	} else {
		v["result"] = tr.Result
	}
	return v
}

func (h *handlers) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fuel := request.GetInt("fuel", h.fuel)
	if fuel <= 0 || fuel > h.fuel {
		fuel = h.fuel
	}

	tr, _, _ := cirno.Evaluate(ctx, expr, nil, cirno.WithFuel(fuel))
	if h.store != nil {
		if _, err := h.store.Save(context.WithoutCancel(ctx), tr); err != nil {
			log.Printf("save trace: %v", err)
		}
	}
	if tr.Failed() {
		res, err := jsonResult(traceView(tr))
		if err != nil {
			return nil, err
		}
		res.IsError = true
		return res, nil
	}
	return jsonResult(traceView(tr))
}

func (h *handlers) handleParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := cirno.Parse(expr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"canonical": t.String(),
		"kind":      t.Kind.String(),
		"value":     cirno.IsValue(t),
	})
}

func (h *handlers) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return mcp.NewToolResultError("no transcript configured (set CIRNO_TRANSCRIPT)"), nil
	}
	traces, err := h.store.Recent(ctx, request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views := make([]map[string]any, len(traces))
	for i, tr := range traces {
		views[i] = traceView(tr)
	}
	return jsonResult(views)
}

func main() {
	fuel, err := strconv.Atoi(envOr("CIRNO_FUEL", strconv.Itoa(defaultFuel)))
	if err != nil || fuel <= 0 {
		log.Fatalf("invalid CIRNO_FUEL %q", os.Getenv("CIRNO_FUEL"))
	}
	h := &handlers{fuel: fuel}

	if path := os.Getenv("CIRNO_TRANSCRIPT"); path != "" {
		store, err := transcript.Open(path)
		if err != nil {
			log.Fatalf("open transcript: %v", err)
		}
		defer store.Close()
		h.store = store
		log.Printf("recording traces to %s", path)
	}

	s := server.NewMCPServer(
		"cirno",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("cirno_eval",
			mcp.WithDescription("Evaluate a cirno program. Returns printed output and the result term."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description(`One or more terms, e.g. (println (show 3)) or (K "a" "b")`),
			),
			mcp.WithNumber("fuel",
				mcp.Description("Maximum evaluation steps; capped by the server's CIRNO_FUEL"),
			),
		),
		h.handleEval,
	)

	s.AddTool(
		mcp.NewTool("cirno_parse",
			mcp.WithDescription("Parse a term and return its canonical form and whether it is already a value."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("A single cirno term"),
			),
		),
		h.handleParse,
	)

	s.AddTool(
		mcp.NewTool("cirno_traces",
			mcp.WithDescription("List recent evaluations recorded in the transcript, newest first."),
			mcp.WithNumber("limit",
				mcp.Description("Number of traces to return (default 10)"),
			),
		),
		h.handleTraces,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
