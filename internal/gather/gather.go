// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gather produces one short synthetic context snippet per sub-query.
// It is a deliberate simulation layer standing in for a real search
// integration: a retrieval backend can replace it later without touching the
// rest of the pipeline, because downstream stages only see SearchSnippets.
package gather

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/pkg/types"
)

const defaultFanOutLimit = 3

// snippetSystemPrompt fixes the simulation task for the model.
const snippetSystemPrompt = `You are a search result simulator.
Given one search query, write a single short, plausible, self-contained
informational snippet, as if summarizing a real search result for that query.

SNIPPET RULES:
- 2-4 sentences, factual in tone.
- Include concrete specifics (numbers, prices, limits, percentages) where the
  topic plausibly has them.
- No introductions, no conclusions, no meta commentary about being a snippet.`

var snippetUserTmpl = template.Must(template.New("snippet").Parse(`Search query: "{{.SubQuery}}"

Write the snippet.`))

// snippetSchema declares the single-field output shape.
var snippetSchema = genai.Schema{
	Name: "search_snippet",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"snippet": map[string]any{
				"type":        "string",
				"description": "A short self-contained informational snippet answering the query.",
			},
		},
		"required": []string{"snippet"},
	},
}

// Gatherer fans snippet generation out over the sub-queries.
type Gatherer struct {
	backend genai.Backend
	cfg     types.GatherConfig
}

// New builds a Gatherer.
func New(backend genai.Backend, cfg types.GatherConfig) *Gatherer {
	return &Gatherer{backend: backend, cfg: cfg}
}

// snippetResponse mirrors snippetSchema for decoding.
type snippetResponse struct {
	Snippet string `json:"snippet"`
}

// Gather generates one snippet per sub-query. Calls are independent and run
// concurrently, bounded by the configured fan-out limit; results are written
// by index so the returned order always matches the input order. The batch is
// all-or-nothing: the first failure cancels the remaining calls and the whole
// batch returns a *genai.GenerationError.
func (g *Gatherer) Gather(ctx context.Context, subQueries []string) ([]types.SearchSnippet, error) {
	if len(subQueries) == 0 {
		return nil, genai.Errorf("gather", "no sub-queries to gather context for")
	}

	snippets := make([]types.SearchSnippet, len(subQueries))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.fanOutLimit())

	for i, q := range subQueries {
		eg.Go(func() error {
			snippet, err := g.gatherOne(gctx, q)
			if err != nil {
				return err
			}
			snippets[i] = snippet
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return snippets, nil
}

// gatherOne issues a single snippet call for one sub-query.
func (g *Gatherer) gatherOne(ctx context.Context, subQuery string) (types.SearchSnippet, error) {
	var buf bytes.Buffer
	if err := snippetUserTmpl.Execute(&buf, struct{ SubQuery string }{SubQuery: subQuery}); err != nil {
		return types.SearchSnippet{}, genai.Errorf("gather", "rendering prompt: %v", err)
	}

	raw, err := g.backend.Generate(ctx, genai.Request{
		System: snippetSystemPrompt,
		User:   buf.String(),
		Schema: snippetSchema,
	})
	if err != nil {
		return types.SearchSnippet{}, err
	}

	var resp snippetResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.SearchSnippet{}, genai.Errorf("gather", "parsing snippet response for %q: %v", subQuery, err)
	}
	if strings.TrimSpace(resp.Snippet) == "" {
		return types.SearchSnippet{}, genai.Errorf("gather", "empty snippet for %q", subQuery)
	}

	return types.SearchSnippet{SubQuery: subQuery, Content: resp.Snippet}, nil
}

func (g *Gatherer) fanOutLimit() int {
	if g.cfg.FanOutLimit > 0 {
		return g.cfg.FanOutLimit
	}
	return defaultFanOutLimit
}
