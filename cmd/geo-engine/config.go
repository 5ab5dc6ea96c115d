// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/geo-engine/internal/genai"
	"github.com/pdiddy/geo-engine/internal/pipeline"
	"github.com/pdiddy/geo-engine/pkg/types"
)

func init() {
	viper.SetDefault("generation.model", "gpt-4o-2024-08-06")
	viper.SetDefault("generation.timeout", 60*time.Second)
	viper.SetDefault("generation.max_output_tokens", 4096)
	viper.SetDefault("generation.max_retries", 0)
	viper.SetDefault("planner.source_text_cap", 4000)
	viper.SetDefault("gather.fan_out_limit", 3)
	viper.SetDefault("server.addr", ":8123")
}

// loadConfig assembles the pipeline configuration from viper, with the API
// key falling back to the openai-api-key secret file.
func loadConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Generation: types.GenerationConfig{
			Model:           viper.GetString("generation.model"),
			APIKey:          loadedSecrets.Value("openai-api-key", viper.GetString("generation.api_key")),
			Timeout:         viper.GetDuration("generation.timeout"),
			MaxOutputTokens: viper.GetInt("generation.max_output_tokens"),
			MaxRetries:      viper.GetInt("generation.max_retries"),
		},
		Planner: types.PlannerConfig{
			SourceTextCap: viper.GetInt("planner.source_text_cap"),
		},
		Gather: types.GatherConfig{
			FanOutLimit: viper.GetInt("gather.fan_out_limit"),
		},
		Synthesis: types.SynthesisConfig{
			AmbiguousOpeners: viper.GetStringSlice("synthesis.ambiguous_openers"),
		},
		History: types.HistoryConfig{
			Path: viper.GetString("history.path"),
		},
		Server: types.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
	}
}

// newEngine wires the default pipeline over the OpenAI backend.
func newEngine(cfg types.PipelineConfig, progress io.Writer) (*pipeline.Engine, error) {
	if cfg.Generation.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set generation.api_key in the config file or .secrets/openai-api-key")
	}
	backend := genai.NewOpenAIBackend(cfg.Generation)
	return pipeline.New(backend, cfg, progress), nil
}
