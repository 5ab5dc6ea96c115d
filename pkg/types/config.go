// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GenerationConfig holds shared settings for calls to the structured
// generation service.
type GenerationConfig struct {
	// Model is the generation model identifier (e.g. "gpt-4o-2024-08-06").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-call request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxOutputTokens bounds the response size (default 4096).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`

	// MaxRetries is the number of backoff retries on HTTP 429. Zero disables
	// retries; the pipeline itself never re-asks after a failed call.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PlannerConfig holds settings for the query planning stage.
type PlannerConfig struct {
	// SourceTextCap is the character budget for source text embedded in the
	// planning prompt. Longer text is truncated silently (default 4000).
	SourceTextCap int `json:"source_text_cap" yaml:"source_text_cap"`
}

// GatherConfig holds settings for the context gathering stage.
type GatherConfig struct {
	// FanOutLimit bounds concurrent snippet calls to respect upstream rate
	// limits (default 3).
	FanOutLimit int `json:"fan_out_limit" yaml:"fan_out_limit"`
}

// SynthesisConfig holds settings for the answer synthesis stage.
type SynthesisConfig struct {
	// AmbiguousOpeners overrides the default rejected first-token word list.
	// Empty uses DefaultAmbiguousOpeners.
	AmbiguousOpeners []string `json:"ambiguous_openers,omitempty" yaml:"ambiguous_openers,omitempty"`
}

// HistoryConfig holds settings for the optional run-history store.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig holds settings for the HTTP adapter.
type ServerConfig struct {
	// Addr is the listen address (default ":8123").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Planner    PlannerConfig    `json:"planner" yaml:"planner"`
	Gather     GatherConfig     `json:"gather" yaml:"gather"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
