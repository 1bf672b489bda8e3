package plan

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psst-builder-api/internal/workflow/port"
)

func newTestDocumentGenerator(m port.TextModel) *DocumentGenerator {
	return NewDocumentGenerator(m, DocumentGeneratorConfig{
		Model:           "gemini-3-pro-preview",
		MaxOutputTokens: 32768,
		ThinkingBudget:  16000,
		Timeout:         time.Second,
	})
}

func testPayload(t *testing.T) PromptPayload {
	t.Helper()
	p, err := BuildDocumentPrompt(sampleInfo())
	require.NoError(t, err)
	return p
}

func TestDocumentGenerator_Success(t *testing.T) {
	model := &fakeTextModel{respond: textReply(sampleDocumentJSON(t))}
	gen := newTestDocumentGenerator(model)

	doc, err := gen.Generate(context.Background(), testPayload(t))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.NotEmpty(t, doc.Summary.Introduction)

	req := model.last
	require.NotNil(t, req)
	assert.Equal(t, "gemini-3-pro-preview", req.Model)
	assert.Equal(t, 32768, req.MaxOutputTokens)
	assert.Equal(t, 16000, req.ThinkingBudget)
	assert.Contains(t, req.SystemInstruction, "초기창업패키지")
	assert.Contains(t, req.Prompt, "Acme")
	assert.Equal(t, DocumentSchema(), req.ResponseSchema)
}

func TestDocumentGenerator_ErrorClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"401", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusUnauthorized, Message: "unauthorized"}, IsAuth},
		{"403", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusForbidden, Status: "PERMISSION_DENIED"}, IsAuth},
		{"404 entity not found", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusNotFound, Message: "Requested entity was not found."}, IsAuth},
		{"400 invalid key", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusBadRequest, Reason: "API_KEY_INVALID", Message: "API key not valid"}, IsAuth},
		{"400 other", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusBadRequest, Status: "INVALID_ARGUMENT", Message: "bad request"}, IsService},
		{"429", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusTooManyRequests, Message: "quota"}, IsService},
		{"500", &port.ProviderError{Provider: "gemini", StatusCode: http.StatusInternalServerError, Message: "internal"}, IsService},
		{"missing credential", port.ErrCredentialUnavailable, IsAuth},
		{"unstructured auth message", errors.New("Requested entity was not found"), IsAuth},
		{"network", errors.New("dial tcp: connection refused"), IsService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeTextModel{respond: textFailure(tc.err)}
			_, err := newTestDocumentGenerator(model).Generate(context.Background(), testPayload(t))
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected classification: %v", err)
			assert.Equal(t, 1, model.Calls(), "must not retry")
		})
	}
}

func TestDocumentGenerator_MalformedNotRetried(t *testing.T) {
	full := sampleDocumentJSON(t)
	model := &fakeTextModel{respond: func(context.Context, *port.TextRequest) (*port.TextResponse, error) {
		// 截断在结构中间，无法修复出完整文档
		return &port.TextResponse{Text: full[:len(full)/3], Truncated: true, FinishReason: "MAX_TOKENS"}, nil
	}}

	_, err := newTestDocumentGenerator(model).Generate(context.Background(), testPayload(t))
	merr := requireMalformed(t, err)
	assert.Contains(t, strings.Join(merr.Issues, "\n"), "truncated")
	assert.Equal(t, RecoveryReduceInput, Recovery(err))
	assert.Equal(t, 1, model.Calls())
}

func TestDocumentGenerator_Timeout(t *testing.T) {
	model := &fakeTextModel{respond: func(ctx context.Context, _ *port.TextRequest) (*port.TextResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	gen := NewDocumentGenerator(model, DocumentGeneratorConfig{Timeout: 30 * time.Millisecond})

	start := time.Now()
	_, err := gen.Generate(context.Background(), testPayload(t))
	require.Error(t, err)
	assert.True(t, IsService(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
