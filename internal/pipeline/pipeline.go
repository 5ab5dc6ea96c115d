// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the three generation stages and adapts their
// failures into a uniform RunResult. The Engine is the single boundary
// adapters need to understand: stage error types never escape it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/geo-engine/internal/gather"
	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/internal/planner"
	"github.com/pdiddy/geo-engine/internal/synthesize"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// QueryPlanner produces a SubQueryPlan for a keyword.
type QueryPlanner interface {
	Plan(ctx context.Context, keyword, sourceText string) (types.SubQueryPlan, error)
}

// ContextGatherer produces one snippet per sub-query, preserving order.
type ContextGatherer interface {
	Gather(ctx context.Context, subQueries []string) ([]types.SearchSnippet, error)
}

// AnswerSynthesizer produces the final validated FanOutResult.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, keyword string, plan types.SubQueryPlan,
		snippets []types.SearchSnippet) (types.FanOutResult, error)
}

// Engine runs the fan-out pipeline: Plan -> Gather -> Synthesize. Engines are
// stateless across runs; distinct runs may execute concurrently.
type Engine struct {
	planner     QueryPlanner
	gatherer    ContextGatherer
	synthesizer AnswerSynthesizer
	progress    io.Writer
}

// NewEngine wires an Engine from explicit stage implementations. progress
// receives one line per stage transition; nil discards it.
func NewEngine(p QueryPlanner, g ContextGatherer, s AnswerSynthesizer, progress io.Writer) *Engine {
	if progress == nil {
		progress = io.Discard
	}
	return &Engine{planner: p, gatherer: g, synthesizer: s, progress: progress}
}

// New wires an Engine with the default stage implementations over one shared
// generation backend.
func New(backend genai.Backend, cfg types.PipelineConfig, progress io.Writer) *Engine {
	return NewEngine(
		planner.New(backend, cfg.Planner),
		gather.New(backend, cfg.Gather),
		synthesize.New(backend, cfg.Synthesis),
		progress,
	)
}

// Run executes one pipeline run for the keyword. It never returns an error:
// every stage failure, of any kind, is flattened into Failure(message). A
// blank keyword fails fast before any generation call.
func (e *Engine) Run(ctx context.Context, keyword, sourceText string) types.RunResult {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return types.Failure((&InputError{Field: "keyword"}).Error())
	}

	fmt.Fprintf(e.progress, "planning %q\n", keyword)
	plan, err := e.planner.Plan(ctx, keyword, sourceText)
	if err != nil {
		return types.Failure(err.Error())
	}

	fmt.Fprintf(e.progress, "gathering %d snippets\n", len(plan.SubQueries))
	snippets, err := e.gatherer.Gather(ctx, plan.SubQueries)
	if err != nil {
		return types.Failure(err.Error())
	}

	fmt.Fprintf(e.progress, "synthesizing %d answer blocks\n", len(plan.SubQueries))
	result, err := e.synthesizer.Synthesize(ctx, keyword, plan, snippets)
	if err != nil {
		return types.Failure(err.Error())
	}

	fmt.Fprintf(e.progress, "done\n")
	return types.Success(result)
}
