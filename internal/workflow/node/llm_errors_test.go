package node

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"psst-builder-api/internal/workflow/port"
)

func TestClassifyLLMError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ""},
		{"credential unavailable", fmt.Errorf("call: %w", port.ErrCredentialUnavailable), ErrorClassAuth},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrorClassService},
		{"canceled", context.Canceled, ErrorClassService},
		{"401", &port.ProviderError{StatusCode: 401, Message: "unauthorized"}, ErrorClassAuth},
		{"403", &port.ProviderError{StatusCode: 403, Status: "PERMISSION_DENIED"}, ErrorClassAuth},
		{"404 entity not found", &port.ProviderError{StatusCode: 404, Message: "Requested entity was not found."}, ErrorClassAuth},
		{"400 invalid key", &port.ProviderError{StatusCode: 400, Status: "INVALID_ARGUMENT", Reason: "API_KEY_INVALID"}, ErrorClassAuth},
		{"400 bad request", &port.ProviderError{StatusCode: 400, Status: "INVALID_ARGUMENT", Message: "bad request"}, ErrorClassService},
		{"429", &port.ProviderError{StatusCode: 429, Status: "RESOURCE_EXHAUSTED"}, ErrorClassService},
		{"503", &port.ProviderError{StatusCode: 503, Status: "UNAVAILABLE"}, ErrorClassService},
		{"wrapped provider error", fmt.Errorf("node: %w", &port.ProviderError{StatusCode: 401}), ErrorClassAuth},
		{"message only", errors.New("API key not valid. Please pass a valid API key."), ErrorClassAuth},
		{"unknown", errors.New("connection reset by peer"), ErrorClassService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyLLMError(tc.err))
		})
	}
}
