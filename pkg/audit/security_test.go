package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func userContext(firmID uuid.UUID, userID string) context.Context {
	claims := &auth.Claims{FirmID: firmID.String()}
	claims.Subject = userID
	return context.WithValue(context.Background(), auth.ClaimsKey, claims)
}

func decodeEvent(t *testing.T, fields map[string]any) SecurityEvent {
	t.Helper()
	eventJSON, ok := fields["event_json"].(string)
	require.True(t, ok, "event_json should be a string")

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(eventJSON), &event))
	return event
}

func TestScreenPrompt(t *testing.T) {
	firmID := uuid.New()

	tests := []struct {
		name    string
		prompt  string
		flagged bool
	}{
		{"ordinary prompt", "This is a normal description with spaces", false},
		{"quote injection", "' OR '1'='1", true},
		{"drop table", "'; DROP TABLE cases--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, recorded := setupTestLogger(t)
			auditor := NewSecurityAuditor(logger)

			got := auditor.ScreenPrompt(userContext(firmID, "user-1"), firmID, tt.prompt)
			assert.Equal(t, tt.flagged, got)

			if !tt.flagged {
				assert.Equal(t, 0, recorded.Len())
				return
			}

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
			assert.Equal(t, "security_audit", logs[0].LoggerName)

			fields := logs[0].ContextMap()
			assert.Equal(t, firmID.String(), fields["firm_id"])
			assert.Equal(t, "user-1", fields["user_id"])
			assert.NotEmpty(t, fields["fingerprint"])

			event := decodeEvent(t, fields)
			assert.Equal(t, EventSQLInjectionAttempt, event.EventType)
			assert.Equal(t, "critical", event.Severity)
		})
	}
}

func TestLogIntakeResolved(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	firmID := uuid.New()

	auditor.LogIntakeResolved(userContext(firmID, "user-2"), firmID, IntakeResolvedDetails{
		CaseID: "CASE-000001", ClientID: 1, CourtID: 2, CaseTypeID: 3, CaseStatusID: 4,
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)

	fields := logs[0].ContextMap()
	assert.Equal(t, "CASE-000001", fields["case_id"])
	assert.Equal(t, "user-2", fields["user_id"])

	event := decodeEvent(t, fields)
	assert.Equal(t, EventCaseIntakeResolved, event.EventType)
	assert.Equal(t, firmID, event.FirmID)
	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), details["case_status_id"])
}

func TestLogIntakeFailed(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	firmID := uuid.New()

	auditor.LogIntakeFailed(context.Background(), firmID, IntakeFailedDetails{
		Field:     "client",
		Extracted: "Acme Corp",
		Reason:    "unresolved_field",
		Prompt:    "Create a case\nfor client Acme Corp",
	})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)

	fields := logs[0].ContextMap()
	assert.Equal(t, "client", fields["field"])
	assert.Equal(t, "", fields["user_id"])

	event := decodeEvent(t, fields)
	assert.Equal(t, EventCaseIntakeFailed, event.EventType)
	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Create a case for client Acme Corp", details["prompt"])
	assert.Equal(t, "Acme Corp", details["extracted"])
}
