// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// stage stubs track invocations so fail-fast behavior is observable.

type stubPlanner struct {
	plan  types.SubQueryPlan
	err   error
	calls int
}

func (s *stubPlanner) Plan(_ context.Context, _, _ string) (types.SubQueryPlan, error) {
	s.calls++
	if s.err != nil {
		return types.SubQueryPlan{}, s.err
	}
	return s.plan, nil
}

type stubGatherer struct {
	err   error
	calls int
}

func (s *stubGatherer) Gather(_ context.Context, subQueries []string) ([]types.SearchSnippet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	snippets := make([]types.SearchSnippet, len(subQueries))
	for i, q := range subQueries {
		snippets[i] = types.SearchSnippet{SubQuery: q, Content: "snippet about " + q}
	}
	return snippets, nil
}

type stubSynthesizer struct {
	result types.FanOutResult
	err    error
	calls  int
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, _ types.SubQueryPlan,
	_ []types.SearchSnippet) (types.FanOutResult, error) {
	s.calls++
	if s.err != nil {
		return types.FanOutResult{}, s.err
	}
	return s.result, nil
}

func words(first string, n int) string {
	parts := make([]string, n)
	parts[0] = first
	for i := 1; i < n; i++ {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func validResult(keyword string, subQueries []string) types.FanOutResult {
	blocks := make([]types.AnswerBlock, len(subQueries))
	for i, q := range subQueries {
		blocks[i] = types.AnswerBlock{
			Heading:            "Answer for " + q,
			TargetQuery:        q,
			Content:            words("Lithium-ion", 55),
			IntentCategory:     types.IntentDefinition,
			SourceQualityScore: 70,
			RelevanceScore:     85,
		}
	}
	return types.FanOutResult{
		MainKeyword:     keyword,
		AnalysisSummary: "queries cover storage, transport, and failure modes",
		Blocks:          blocks,
	}
}

func TestRunSuccess(t *testing.T) {
	keyword := "lithium battery safety"
	subQueries := []string{
		"lithium battery storage temperature",
		"lithium battery fire causes",
		"lithium battery transport rules",
	}

	p := &stubPlanner{plan: types.SubQueryPlan{MainIntent: "safety guidance", SubQueries: subQueries}}
	g := &stubGatherer{}
	s := &stubSynthesizer{result: validResult(keyword, subQueries)}

	var progress bytes.Buffer
	engine := NewEngine(p, g, s, &progress)

	res := engine.Run(context.Background(), keyword, "")
	if !res.Succeeded() {
		t.Fatalf("run failed: %s", res.Message)
	}
	if res.Result.AnalysisSummary == "" {
		t.Error("analysis summary is empty")
	}
	if got := len(res.Result.Blocks); got < types.MinSubQueries || got > types.MaxSubQueries {
		t.Errorf("block count %d outside [%d,%d]", got, types.MinSubQueries, types.MaxSubQueries)
	}
	if len(res.Result.Blocks) != len(subQueries) {
		t.Errorf("block count %d != sub-query count %d", len(res.Result.Blocks), len(subQueries))
	}
	if err := res.Result.Validate(nil); err != nil {
		t.Errorf("successful result fails re-validation: %v", err)
	}
	if p.calls != 1 || g.calls != 1 || s.calls != 1 {
		t.Errorf("stage calls = %d/%d/%d, want 1/1/1", p.calls, g.calls, s.calls)
	}
	for _, line := range []string{"planning", "gathering", "synthesizing", "done"} {
		if !strings.Contains(progress.String(), line) {
			t.Errorf("progress output missing %q", line)
		}
	}
}

func TestRunBlankKeywordFailsFast(t *testing.T) {
	for _, keyword := range []string{"", "   ", "\t\n"} {
		p := &stubPlanner{}
		g := &stubGatherer{}
		s := &stubSynthesizer{}
		engine := NewEngine(p, g, s, nil)

		res := engine.Run(context.Background(), keyword, "")
		if res.Succeeded() {
			t.Fatalf("blank keyword %q produced success", keyword)
		}
		if res.Message != "keyword is required" {
			t.Errorf("message %q, want %q", res.Message, "keyword is required")
		}
		if p.calls+g.calls+s.calls != 0 {
			t.Errorf("stages invoked for blank keyword: %d/%d/%d", p.calls, g.calls, s.calls)
		}
	}
}

func TestRunPlannerFailure(t *testing.T) {
	p := &stubPlanner{err: genai.Errorf("plan", "model unavailable")}
	g := &stubGatherer{}
	s := &stubSynthesizer{}
	engine := NewEngine(p, g, s, nil)

	res := engine.Run(context.Background(), "jotform", "")
	if res.Succeeded() {
		t.Fatal("run succeeded despite planner failure")
	}
	if !strings.Contains(res.Message, "model unavailable") {
		t.Errorf("failure message %q does not carry the cause", res.Message)
	}
	if g.calls != 0 || s.calls != 0 {
		t.Error("downstream stages ran after planner failure")
	}
}

func TestRunGathererFailure(t *testing.T) {
	p := &stubPlanner{plan: types.SubQueryPlan{MainIntent: "i", SubQueries: []string{"a", "b", "c"}}}
	g := &stubGatherer{err: genai.Errorf("gather", "timeout")}
	s := &stubSynthesizer{}
	engine := NewEngine(p, g, s, nil)

	res := engine.Run(context.Background(), "jotform", "")
	if res.Succeeded() {
		t.Fatal("run succeeded despite gatherer failure")
	}
	if s.calls != 0 {
		t.Error("synthesizer ran after gatherer failure")
	}
}

func TestRunValidationFailureIsNeverPartial(t *testing.T) {
	p := &stubPlanner{plan: types.SubQueryPlan{MainIntent: "i", SubQueries: []string{"a", "b", "c"}}}
	g := &stubGatherer{}
	s := &stubSynthesizer{err: &types.ValidationError{
		Field: "relevance_score", Reason: "must be between 0-100, got 150"}}
	engine := NewEngine(p, g, s, nil)

	res := engine.Run(context.Background(), "jotform", "")
	if res.Succeeded() {
		t.Fatal("run succeeded despite validation failure")
	}
	if res.Result != nil {
		t.Error("failure result carries a partial FanOutResult")
	}
	if !strings.Contains(res.Message, "relevance_score") {
		t.Errorf("failure message %q does not carry the invariant", res.Message)
	}
}
