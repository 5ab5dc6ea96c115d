// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunStatus is the outcome tag of a pipeline run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// RunResult is the adapted output the orchestrator hands to callers: either a
// complete validated FanOutResult or a failure message. There is no partial
// success, and callers never see stage-specific error types.
type RunResult struct {
	Status RunStatus `json:"status" yaml:"status"`

	// Result is set only when Status is RunSuccess.
	Result *FanOutResult `json:"result,omitempty" yaml:"result,omitempty"`

	// Message is set only when Status is RunFailure.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Success wraps a validated FanOutResult.
func Success(result FanOutResult) RunResult {
	return RunResult{Status: RunSuccess, Result: &result}
}

// Failure wraps a failure message.
func Failure(message string) RunResult {
	return RunResult{Status: RunFailure, Message: message}
}

// Succeeded reports whether the run produced a complete result.
func (r RunResult) Succeeded() bool {
	return r.Status == RunSuccess && r.Result != nil
}
