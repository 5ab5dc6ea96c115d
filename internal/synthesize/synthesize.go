// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize produces the final FanOutResult: a strategic analysis
// summary plus one GEO-compliant answer block per sub-query. The service is
// asked to self-enforce the output schema, and every block is then
// re-validated locally; structural decode failures and content-rule failures
// are kept as separate error kinds because they call for different remedies.
package synthesize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// synthesisSystemPrompt fixes the GEO authoring rules for the model.
const synthesisSystemPrompt = `You are a top-tier GEO (Generative Engine Optimization) expert.
Your task is to write 'Answer Blocks' for a set of fan-out sub-queries using
the research snippets provided.

GEO RULES:
1. AI models (ChatGPT, Google AI) only read 'Answer Blocks'.
2. Each block must be able to stand alone (Standalone).
3. Never write 'Intro' or 'Conclusion' sentences. Provide the direct answer.
4. Lead each block with the most concrete, numeric-or-factual claim available
   in its snippet (Price, Limit, Percentage). Snippet first, elaboration after.
5. Use the 'Because / Therefore' logical structure: claim, then justification.
6. Never open a block with an ambiguous referent (it, this, these, those,
   they, he, she). Name the subject explicitly.
7. Each block's content must be between 40 and 80 words, in a single paragraph.
8. Repeat the sub-query's subject in the heading.

LMP (Language Model Pipeline) SIMULATION:
- Score every block 0-100 for relevance. If the text does not fully answer the
  question, lower the score.
- Score the supporting snippet 0-100 for source quality: concrete and specific
  scores high, vague scores low.

INTENT:
- Label each block with the intent category that best matches the sub-query's
  apparent goal: 'Definition', 'Comparison', 'Limitations', or 'How-to'.`

// synthesisUserTmpl embeds the keyword, the main intent, and each sub-query
// with its gathered snippet.
var synthesisUserTmpl = template.Must(template.New("synthesis").Parse(`Target Keyword: "{{.Keyword}}"
Main Search Intent: {{.MainIntent}}

Research snippets per sub-query:
{{range .Snippets}}
Sub-query: "{{.SubQuery}}"
Snippet: {{.Content}}
{{end}}
Write one Answer Block per sub-query above, strictly following the GEO rules,
and a brief analysis_summary explaining why these fan-out queries were
selected. Set each block's target_query to its sub-query verbatim.`))

// synthesisSchema declares the full result shape: summary plus 3-5 blocks
// with closed-label intents and bounded scores.
var synthesisSchema = genai.Schema{
	Name: "fan_out_result",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"analysis_summary": map[string]any{
				"type":        "string",
				"description": "A brief strategic summary of why these fan-out queries were selected.",
			},
			"blocks": map[string]any{
				"type":     "array",
				"minItems": types.MinSubQueries,
				"maxItems": types.MaxSubQueries,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"heading": map[string]any{
							"type":        "string",
							"description": "The heading to be used as H2 or H3 in the blog post.",
						},
						"target_query": map[string]any{
							"type":        "string",
							"description": "The fan-out sub-query this block answers, verbatim.",
						},
						"content": map[string]any{
							"type":        "string",
							"description": "The snippet text containing the direct answer, 40-80 words.",
						},
						"intent_category": map[string]any{
							"type": "string",
							"enum": []string{"Definition", "Comparison", "Limitations", "How-to"},
						},
						"source_quality_score": map[string]any{
							"type":        "integer",
							"minimum":     types.MinScore,
							"maximum":     types.MaxScore,
							"description": "How concrete and specific the supporting snippet is (0-100).",
						},
						"relevance_score": map[string]any{
							"type":        "integer",
							"minimum":     types.MinScore,
							"maximum":     types.MaxScore,
							"description": "LMP relevance score: how fully the content answers the question (0-100).",
						},
					},
					"required": []string{"heading", "target_query", "content",
						"intent_category", "source_quality_score", "relevance_score"},
				},
			},
		},
		"required": []string{"analysis_summary", "blocks"},
	},
}

// Synthesizer builds FanOutResults from plans and gathered snippets.
type Synthesizer struct {
	backend genai.Backend
	cfg     types.SynthesisConfig
}

// New builds a Synthesizer.
func New(backend genai.Backend, cfg types.SynthesisConfig) *Synthesizer {
	return &Synthesizer{backend: backend, cfg: cfg}
}

// resultResponse and blockResponse mirror synthesisSchema for decoding.
type resultResponse struct {
	AnalysisSummary string          `json:"analysis_summary"`
	Blocks          []blockResponse `json:"blocks"`
}

type blockResponse struct {
	Heading            string `json:"heading"`
	TargetQuery        string `json:"target_query"`
	Content            string `json:"content"`
	IntentCategory     string `json:"intent_category"`
	SourceQualityScore int    `json:"source_quality_score"`
	RelevanceScore     int    `json:"relevance_score"`
}

// Synthesize requests one combined structured response and re-validates every
// domain invariant locally. A service failure or undecodable payload returns
// a *genai.GenerationError; a payload that decodes but violates a content
// rule (word count, ambiguous opener, score range, category, uniqueness, or a
// block count that does not match the plan) returns a *types.ValidationError.
func (s *Synthesizer) Synthesize(ctx context.Context, keyword string, plan types.SubQueryPlan,
	snippets []types.SearchSnippet) (types.FanOutResult, error) {

	user, err := renderSynthesisPrompt(keyword, plan, snippets)
	if err != nil {
		return types.FanOutResult{}, genai.Errorf("synthesize", "rendering prompt: %v", err)
	}

	raw, err := s.backend.Generate(ctx, genai.Request{
		System: synthesisSystemPrompt,
		User:   user,
		Schema: synthesisSchema,
	})
	if err != nil {
		return types.FanOutResult{}, err
	}

	var resp resultResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.FanOutResult{}, genai.Errorf("synthesize", "parsing synthesis response: %v", err)
	}

	return s.validate(keyword, plan, resp)
}

// validate converts the decoded response into a FanOutResult, enforcing every
// invariant through the type constructors. The service's own schema
// enforcement is not trusted alone.
func (s *Synthesizer) validate(keyword string, plan types.SubQueryPlan, resp resultResponse) (types.FanOutResult, error) {
	if got, want := len(resp.Blocks), len(plan.SubQueries); got != want {
		return types.FanOutResult{}, &types.ValidationError{
			Field:  "blocks",
			Reason: fmt.Sprintf("expected one answer block per sub-query (%d), received %d", want, got),
		}
	}

	openers := s.cfg.AmbiguousOpeners
	blocks := make([]types.AnswerBlock, 0, len(resp.Blocks))
	for _, b := range resp.Blocks {
		block, err := types.NewAnswerBlock(b.Heading, b.TargetQuery, b.Content,
			types.IntentCategory(b.IntentCategory), b.SourceQualityScore, b.RelevanceScore, openers)
		if err != nil {
			return types.FanOutResult{}, err
		}
		blocks = append(blocks, block)
	}

	return types.NewFanOutResult(keyword, resp.AnalysisSummary, blocks, openers)
}

func renderSynthesisPrompt(keyword string, plan types.SubQueryPlan, snippets []types.SearchSnippet) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Keyword    string
		MainIntent string
		Snippets   []types.SearchSnippet
	}{Keyword: keyword, MainIntent: plan.MainIntent, Snippets: snippets}
	if err := synthesisUserTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
