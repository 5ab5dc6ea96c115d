// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the geo-engine pipeline.
// Domain values (SubQueryPlan, AnswerBlock, FanOutResult) carry their
// invariants in constructors: a value that fails validation is never
// returned, only a *ValidationError.
package types

import (
	"fmt"
	"strings"
)

// IntentCategory classifies the user goal behind a fan-out sub-query.
type IntentCategory string

const (
	IntentDefinition  IntentCategory = "Definition"
	IntentComparison  IntentCategory = "Comparison"
	IntentLimitations IntentCategory = "Limitations"
	IntentHowTo       IntentCategory = "How-to"
)

// IntentCategories lists the closed set of accepted categories in a stable order.
var IntentCategories = []IntentCategory{
	IntentDefinition,
	IntentComparison,
	IntentLimitations,
	IntentHowTo,
}

// validIntents is the membership set for IntentCategory values.
var validIntents = map[IntentCategory]bool{
	IntentDefinition:  true,
	IntentComparison:  true,
	IntentLimitations: true,
	IntentHowTo:       true,
}

// Bounds for plan size, block content length, and block scores.
const (
	MinSubQueries   = 3
	MaxSubQueries   = 5
	MinContentWords = 40
	MaxContentWords = 80
	MinScore        = 0
	MaxScore        = 100
)

// DefaultAmbiguousOpeners is the closed word list rejected as the first token
// of block content. A snippet that opens with one of these cannot stand alone
// when lifted out of context by an answer engine. Checked case-insensitively
// against the first token only; callers may substitute their own list.
var DefaultAmbiguousOpeners = []string{"it", "this", "these", "those", "they", "he", "she"}

// ValidationError reports a domain invariant violation in content the
// generation service returned. It is distinct from a generation failure: the
// payload decoded fine, the values are unacceptable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SubQueryPlan is the output of the planning stage: an overarching search
// intent plus 3-5 distinct sub-queries covering different angles on the
// keyword. Immutable after construction.
type SubQueryPlan struct {
	MainIntent string   `json:"main_intent" yaml:"main_intent"`
	SubQueries []string `json:"sub_queries" yaml:"sub_queries"`
}

// NewSubQueryPlan validates and constructs a SubQueryPlan.
func NewSubQueryPlan(mainIntent string, subQueries []string) (SubQueryPlan, error) {
	p := SubQueryPlan{MainIntent: mainIntent, SubQueries: subQueries}
	if err := p.Validate(); err != nil {
		return SubQueryPlan{}, err
	}
	return p, nil
}

// Validate checks the plan invariants. It is a pure predicate: calling it on
// an accepted plan always succeeds.
func (p SubQueryPlan) Validate() error {
	if strings.TrimSpace(p.MainIntent) == "" {
		return validationErrorf("main_intent", "cannot be blank")
	}
	if n := len(p.SubQueries); n < MinSubQueries || n > MaxSubQueries {
		return validationErrorf("sub_queries", "expected between %d-%d sub-queries, received %d",
			MinSubQueries, MaxSubQueries, n)
	}
	for i, q := range p.SubQueries {
		if strings.TrimSpace(q) == "" {
			return validationErrorf("sub_queries", "sub-query %d is blank", i)
		}
	}
	return nil
}

// SearchSnippet associates one sub-query with a short synthetic context
// passage standing in for a real search result. Snippets are owned by the
// run and discarded after synthesis.
type SearchSnippet struct {
	SubQuery string `json:"sub_query" yaml:"sub_query"`
	Content  string `json:"content" yaml:"content"`
}

// AnswerBlock is one self-contained, validated unit of generated content
// answering one sub-query.
type AnswerBlock struct {
	Heading            string         `json:"heading" yaml:"heading"`
	TargetQuery        string         `json:"target_query" yaml:"target_query"`
	Content            string         `json:"content" yaml:"content"`
	IntentCategory     IntentCategory `json:"intent_category" yaml:"intent_category"`
	SourceQualityScore int            `json:"source_quality_score" yaml:"source_quality_score"`
	RelevanceScore     int            `json:"relevance_score" yaml:"relevance_score"`
}

// NewAnswerBlock validates and constructs an AnswerBlock. The heading is
// trimmed. A nil openers list selects DefaultAmbiguousOpeners.
func NewAnswerBlock(heading, targetQuery, content string, category IntentCategory,
	sourceQuality, relevance int, openers []string) (AnswerBlock, error) {
	b := AnswerBlock{
		Heading:            strings.TrimSpace(heading),
		TargetQuery:        targetQuery,
		Content:            content,
		IntentCategory:     category,
		SourceQualityScore: sourceQuality,
		RelevanceScore:     relevance,
	}
	if err := b.Validate(openers); err != nil {
		return AnswerBlock{}, err
	}
	return b, nil
}

// Validate checks every AnswerBlock invariant: non-blank heading and target
// query, content word count in [40,80], no ambiguous opener, category
// membership, and both scores in [0,100]. Pure predicate.
func (b AnswerBlock) Validate(openers []string) error {
	if strings.TrimSpace(b.Heading) == "" {
		return validationErrorf("heading", "cannot be blank")
	}
	if strings.TrimSpace(b.TargetQuery) == "" {
		return validationErrorf("target_query", "cannot be blank")
	}
	if !validIntents[b.IntentCategory] {
		return validationErrorf("intent_category", "%q is not supported; valid options: %v",
			b.IntentCategory, IntentCategories)
	}
	words := strings.Fields(b.Content)
	if n := len(words); n < MinContentWords || n > MaxContentWords {
		return validationErrorf("content", "block length does not meet GEO standards (%d words); must be between %d-%d",
			n, MinContentWords, MaxContentWords)
	}
	if opener, ok := ambiguousOpener(words[0], openers); ok {
		return validationErrorf("content", "starts with ambiguous pronoun %q; name the subject explicitly", opener)
	}
	if b.SourceQualityScore < MinScore || b.SourceQualityScore > MaxScore {
		return validationErrorf("source_quality_score", "must be between %d-%d, got %d",
			MinScore, MaxScore, b.SourceQualityScore)
	}
	if b.RelevanceScore < MinScore || b.RelevanceScore > MaxScore {
		return validationErrorf("relevance_score", "must be between %d-%d, got %d",
			MinScore, MaxScore, b.RelevanceScore)
	}
	return nil
}

// ambiguousOpener reports whether the first token of content matches the
// opener list, case-insensitively. Trailing punctuation on the token is
// ignored so "It's" and "This," are still caught.
func ambiguousOpener(firstToken string, openers []string) (string, bool) {
	if openers == nil {
		openers = DefaultAmbiguousOpeners
	}
	token := strings.ToLower(strings.TrimRight(firstToken, ",.;:!?"))
	token = strings.TrimSuffix(token, "'s")
	token = strings.TrimSuffix(token, "’s")
	for _, o := range openers {
		if token == strings.ToLower(o) {
			return o, true
		}
	}
	return "", false
}

// FanOutResult is the terminal artifact of a successful run: a strategic
// analysis summary plus one validated answer block per sub-query. Not
// mutated after construction.
type FanOutResult struct {
	MainKeyword     string        `json:"main_keyword" yaml:"main_keyword"`
	AnalysisSummary string        `json:"analysis_summary" yaml:"analysis_summary"`
	Blocks          []AnswerBlock `json:"blocks" yaml:"blocks"`
}

// NewFanOutResult validates and constructs a FanOutResult.
func NewFanOutResult(mainKeyword, analysisSummary string, blocks []AnswerBlock, openers []string) (FanOutResult, error) {
	r := FanOutResult{
		MainKeyword:     mainKeyword,
		AnalysisSummary: analysisSummary,
		Blocks:          blocks,
	}
	if err := r.Validate(openers); err != nil {
		return FanOutResult{}, err
	}
	return r, nil
}

// Validate checks the result invariants: non-empty summary, 3-5 blocks, every
// block valid, and no two blocks answering the same sub-query (target query
// and heading uniqueness, case-insensitive). Pure predicate.
func (r FanOutResult) Validate(openers []string) error {
	if strings.TrimSpace(r.AnalysisSummary) == "" {
		return validationErrorf("analysis_summary", "cannot be blank")
	}
	if n := len(r.Blocks); n < MinSubQueries || n > MaxSubQueries {
		return validationErrorf("blocks", "expected between %d-%d answer blocks, received %d",
			MinSubQueries, MaxSubQueries, n)
	}
	seenQueries := make(map[string]bool, len(r.Blocks))
	seenHeadings := make(map[string]bool, len(r.Blocks))
	for i, b := range r.Blocks {
		if err := b.Validate(openers); err != nil {
			return validationErrorf("blocks", "block %d: %v", i, err)
		}
		q := strings.ToLower(strings.TrimSpace(b.TargetQuery))
		if seenQueries[q] {
			return validationErrorf("blocks", "duplicate target query %q", b.TargetQuery)
		}
		seenQueries[q] = true
		h := strings.ToLower(strings.TrimSpace(b.Heading))
		if seenHeadings[h] {
			return validationErrorf("blocks", "duplicate heading %q", b.Heading)
		}
		seenHeadings[h] = true
	}
	return nil
}
