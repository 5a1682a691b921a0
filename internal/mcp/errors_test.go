package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_AppErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"index not found", apperrors.ErrIndexNotFound, ErrCodeIndexNotFound},
		{"corrupt index", apperrors.New(apperrors.ErrCodeCorruptIndex, "bad segment", nil), ErrCodeIndexNotFound},
		{"schema mismatch", apperrors.SchemaError("missing field content", nil), ErrCodeSchemaMismatch},
		{"metadata not found", apperrors.MetadataNotFound("ml-primer"), ErrCodeMetadataNotFound},
		{"no results", apperrors.ErrNoResults, ErrCodeNoResults},
		{"validation", apperrors.ValidationError("offset must not be negative", nil), ErrCodeInvalidParams},
		{"search stage", apperrors.SearchError("index scan", "go", errors.New("boom")), ErrCodeInternalError},
		{"wrapped", fmt.Errorf("serve: %w", apperrors.MetadataNotFound("x")), ErrCodeMetadataNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)

			require.NotNil(t, result)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestMapError_ContextErrors(t *testing.T) {
	// Given: a search stage that failed because the request was canceled
	err := apperrors.SearchError("index scan", "go", context.Canceled)

	// When: mapping the error
	result := MapError(err)

	// Then: the cancellation wins over the stage
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "canceled")

	result = MapError(context.DeadlineExceeded)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "timed out")
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := apperrors.New(apperrors.ErrCodeIndexNotFound, "index not found", nil).
		WithSuggestion("Run 'blogsearch index' first.")

	result := MapError(err)

	assert.Equal(t, "index not found Run 'blogsearch index' first.", result.Message)
}

func TestMapError_PassesThroughMCPError(t *testing.T) {
	orig := NewInvalidParamsError("query parameter is required")

	assert.Same(t, orig, MapError(orig))
}

func TestMapError_UnknownError(t *testing.T) {
	result := MapError(errors.New("something odd"))

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
	assert.NotContains(t, result.Message, "something odd")
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("search_code")

	assert.Equal(t, "MCP error -32601: Tool 'search_code' not found.", err.Error())
	assert.Equal(t, ErrCodeMethodNotFound, NewResourceNotFoundError("x://y").Code)
}
