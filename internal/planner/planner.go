// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner decomposes a target keyword into a main search intent and
// 3-5 distinct sub-queries covering different angles. It is the first stage
// of the fan-out pipeline; its plan drives both gathering and synthesis.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/pkg/types"
)

const defaultSourceTextCap = 4000

// planSystemPrompt fixes the planning task for the model.
const planSystemPrompt = `You are a top-tier GEO (Generative Engine Optimization) research strategist.
Your task is to decompose a target keyword into 'Fan-Out' sub-queries.

FAN-OUT RESEARCH PRINCIPLES:
- Produce a single main search intent and 3-5 distinct sub-queries.
- Each sub-query must cover a different angle on the keyword; avoid repetitive
  integration/feature variations of the same question.
- Cluster sub-queries under the same SERP intent and prioritize high-volume
  variations ("price", "integration", "security", "alternatives").
- Each sub-query must map to a single problem or decision point.`

// planUserTmpl embeds the keyword and, when present, a truncated excerpt of
// the source text.
var planUserTmpl = template.Must(template.New("plan").Parse(`Target Keyword: "{{.Keyword}}"
{{if .SourceText}}
Content to Analyze:
---
{{.SourceText}}
---

Find 3-5 sub-queries (Fan-Out) related to this keyword that users might ask
but are not answered as clear snippets in the content above.
{{- else}}
Find 3-5 sub-queries (Fan-Out) related to this keyword that users might ask.
{{- end}}
State the overarching search intent behind the keyword as main_intent.`))

// planSchema declares the expected output shape, including the sub-query
// count bounds, so the service performs first-pass structural enforcement.
var planSchema = genai.Schema{
	Name: "sub_query_plan",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"main_intent": map[string]any{
				"type":        "string",
				"description": "The overarching search intent behind the keyword.",
			},
			"sub_queries": map[string]any{
				"type":        "array",
				"description": "3-5 distinct fan-out sub-queries covering different angles.",
				"items":       map[string]any{"type": "string"},
				"minItems":    types.MinSubQueries,
				"maxItems":    types.MaxSubQueries,
			},
		},
		"required": []string{"main_intent", "sub_queries"},
	},
}

// Planner produces SubQueryPlans via the structured generation service.
type Planner struct {
	backend genai.Backend
	cfg     types.PlannerConfig
}

// New builds a Planner.
func New(backend genai.Backend, cfg types.PlannerConfig) *Planner {
	return &Planner{backend: backend, cfg: cfg}
}

// planResponse mirrors planSchema for decoding.
type planResponse struct {
	MainIntent string   `json:"main_intent"`
	SubQueries []string `json:"sub_queries"`
}

// Plan generates a SubQueryPlan for the keyword. sourceText may be empty;
// longer text is truncated silently at the configured cap. One attempt per
// call: a service failure, an undecodable payload, or a sub-query count
// outside [3,5] returns a *genai.GenerationError.
func (p *Planner) Plan(ctx context.Context, keyword, sourceText string) (types.SubQueryPlan, error) {
	user, err := renderPlanPrompt(keyword, truncate(sourceText, p.sourceTextCap()))
	if err != nil {
		return types.SubQueryPlan{}, genai.Errorf("plan", "rendering prompt: %v", err)
	}

	raw, err := p.backend.Generate(ctx, genai.Request{
		System: planSystemPrompt,
		User:   user,
		Schema: planSchema,
	})
	if err != nil {
		return types.SubQueryPlan{}, err
	}

	var resp planResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.SubQueryPlan{}, genai.Errorf("plan", "parsing plan response: %v", err)
	}

	// Defense in depth: the schema already declares the count bounds, but the
	// service's enforcement is not trusted alone.
	plan, err := types.NewSubQueryPlan(resp.MainIntent, resp.SubQueries)
	if err != nil {
		return types.SubQueryPlan{}, genai.Errorf("plan", "plan violates schema: %v", err)
	}
	return plan, nil
}

func (p *Planner) sourceTextCap() int {
	if p.cfg.SourceTextCap > 0 {
		return p.cfg.SourceTextCap
	}
	return defaultSourceTextCap
}

// truncate caps text at max characters, appending a marker when anything was
// dropped. Truncation is silent by contract, not an error.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "... (content truncated)"
}

func renderPlanPrompt(keyword, sourceText string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Keyword    string
		SourceText string
	}{Keyword: strings.TrimSpace(keyword), SourceText: strings.TrimSpace(sourceText)}
	if err := planUserTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
