package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a successful tool result so the calling model sees the
// details instead of a transport error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for actionable errors the caller can fix (missing client, bad id).
//
// Do NOT use this for system failures (database connection errors,
// internal server errors) - those should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "unresolved_field",
//	    "Client is required. ...",
//	    map[string]any{"field": "client", "candidates": []string{"Beta Inc"}},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewIntakeErrorResult converts case intake errors the caller can act on into
// a tool result. Returns nil for anything else; the caller should return a Go
// error instead.
func NewIntakeErrorResult(err error) *mcp.CallToolResult {
	var precondition *services.PreconditionError
	if errors.As(err, &precondition) {
		return NewErrorResult("precondition_failed", precondition.Reason)
	}

	var unresolved *services.UnresolvedFieldError
	if errors.As(err, &unresolved) {
		candidates := unresolved.Candidates
		if candidates == nil {
			candidates = []string{}
		}
		details := map[string]any{
			"field":      unresolved.Field,
			"candidates": candidates,
		}
		if unresolved.Extracted != "" {
			details["extracted"] = unresolved.Extracted
		}
		return NewErrorResultWithDetails("unresolved_field", unresolved.Error(), details)
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidEntityType):
		return NewErrorResult("invalid_lookup_type", "type must be one of clients, courts, case-types, case-statuses")
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error())
	}
	return nil
}

// inputErrorPatterns are substrings of errors caused by caller input rather
// than server failure.
var inputErrorPatterns = []string{
	"is required",
	"invalid",
	"not found",
	"must be",
}

// IsInputError returns true if the error appears to be caused by user input
// rather than a server failure. Such errors are logged at DEBUG level.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	if NewIntakeErrorResult(err) != nil {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range inputErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
