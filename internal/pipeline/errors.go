// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// InputError reports a missing or blank required input, detected before any
// generation call. The caller recovers by resubmitting corrected input.
//
// The other two failure kinds in a run are *genai.GenerationError (the
// service failed or returned an unparseable payload) and
// *types.ValidationError (the payload parsed but the content breaks a domain
// rule). All three are flattened to RunResult.Failure at the Engine boundary.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return e.Field + " is required"
}
