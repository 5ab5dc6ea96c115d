// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/geo-engine/internal/history"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// stubRunner returns a canned RunResult and records invocations.
type stubRunner struct {
	result types.RunResult
	calls  int
}

func (s *stubRunner) Run(_ context.Context, _, _ string) types.RunResult {
	s.calls++
	return s.result
}

func successResult() types.RunResult {
	return types.Success(types.FanOutResult{
		MainKeyword:     "jotform",
		AnalysisSummary: "summary",
		Blocks:          make([]types.AnswerBlock, 3),
	})
}

func postFanOut(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/fanout", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	handler := New(&stubRunner{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFanOutSuccess(t *testing.T) {
	runner := &stubRunner{result: successResult()}
	handler := New(runner, nil).Handler()

	rec := postFanOut(t, handler, map[string]string{"keyword": "jotform"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)

	var result types.FanOutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "jotform", result.MainKeyword)
	assert.Len(t, result.Blocks, 3)
}

func TestFanOutBlankKeyword(t *testing.T) {
	runner := &stubRunner{result: successResult()}
	handler := New(runner, nil).Handler()

	for _, keyword := range []string{"", "   "} {
		rec := postFanOut(t, handler, map[string]string{"keyword": keyword})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"keyword is required"}`, rec.Body.String())
	}
	// The pipeline is never invoked for missing input.
	assert.Zero(t, runner.calls)
}

func TestFanOutPipelineFailure(t *testing.T) {
	runner := &stubRunner{result: types.Failure("generation failed (plan): boom")}
	handler := New(runner, nil).Handler()

	rec := postFanOut(t, handler, map[string]string{"keyword": "jotform"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"generation failed (plan): boom"}`, rec.Body.String())
}

func TestFanOutInvalidBody(t *testing.T) {
	handler := New(&stubRunner{}, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/fanout", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFanOutRecordsHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	runner := &stubRunner{result: successResult()}
	handler := New(runner, store).Handler()

	rec := postFanOut(t, handler, map[string]string{"keyword": "jotform"})
	require.Equal(t, http.StatusOK, rec.Code)

	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "jotform", runs[0].Keyword)
	assert.Equal(t, "success", runs[0].Status)
	assert.Equal(t, 3, runs[0].BlockCount)
}
