// Package mcp exposes article search over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// Custom MCP error codes for blogsearch.
const (
	// ErrCodeIndexNotFound indicates no usable index exists.
	ErrCodeIndexNotFound = -32001

	// ErrCodeMetadataNotFound indicates an indexed article has no front matter.
	ErrCodeMetadataNotFound = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeNoResults indicates a lucky search found nothing.
	ErrCodeNoResults = -32004

	// ErrCodeSchemaMismatch indicates the index was built with another layout.
	ErrCodeSchemaMismatch = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	if appErr, ok := apperrors.As(err); ok {
		return mapAppError(appErr)
	}
	return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapAppError(e *apperrors.Error) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s %s", e.Message, e.Suggestion)
	}

	switch e.Code {
	case apperrors.ErrCodeIndexNotFound, apperrors.ErrCodeCorruptIndex:
		return &MCPError{Code: ErrCodeIndexNotFound, Message: message}
	case apperrors.ErrCodeSchemaMismatch:
		return &MCPError{Code: ErrCodeSchemaMismatch, Message: message}
	case apperrors.ErrCodeMetadataNotFound:
		return &MCPError{Code: ErrCodeMetadataNotFound, Message: message}
	case apperrors.ErrCodeNoResults:
		return &MCPError{Code: ErrCodeNoResults, Message: message}
	}

	switch e.Category {
	case apperrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case apperrors.CategorySchema:
		return &MCPError{Code: ErrCodeSchemaMismatch, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
