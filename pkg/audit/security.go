// Package audit provides security audit logging for SIEM consumption.
// Case intake outcomes and suspicious prompts are logged as structured JSON
// events under the "security_audit" logger.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection fingerprints an intake prompt.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventCaseIntakeResolved is logged when intake created a case.
	EventCaseIntakeResolved SecurityEventType = "case_intake_resolved"
	// EventCaseIntakeFailed is logged when intake stopped on an unresolved field or precondition.
	EventCaseIntakeFailed SecurityEventType = "case_intake_failed"
)

// SecurityEvent is one auditable event with the context needed for SIEM analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	FirmID    uuid.UUID         `json:"firm_id"`
	UserID    string            `json:"user_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// PromptInjectionDetails describes a prompt that libinjection flagged.
type PromptInjectionDetails struct {
	Prompt      string `json:"prompt"`
	Fingerprint string `json:"fingerprint"`
}

// IntakeResolvedDetails describes a successful intake.
type IntakeResolvedDetails struct {
	CaseID       string `json:"case_id"`
	ClientID     int64  `json:"client_id"`
	CourtID      int64  `json:"court_id"`
	CaseTypeID   int64  `json:"case_type_id"`
	CaseStatusID int64  `json:"case_status_id"`
}

// IntakeFailedDetails describes an intake that did not create a case.
type IntakeFailedDetails struct {
	Field     string `json:"field,omitempty"`
	Extracted string `json:"extracted,omitempty"`
	Reason    string `json:"reason"`
	Prompt    string `json:"prompt"`
}

// IntakeAuditor records case intake events.
type IntakeAuditor interface {
	// ScreenPrompt reports whether the prompt carries a SQL injection
	// fingerprint, logging an event when it does. It never blocks intake.
	ScreenPrompt(ctx context.Context, firmID uuid.UUID, prompt string) bool
	LogIntakeResolved(ctx context.Context, firmID uuid.UUID, details IntakeResolvedDetails)
	LogIntakeFailed(ctx context.Context, firmID uuid.UUID, details IntakeFailedDetails)
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor under the "security_audit" namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

var _ IntakeAuditor = (*SecurityAuditor)(nil)

// ScreenPrompt runs libinjection over the prompt. Prompts are stored as case
// text, never executed, so a hit is logged at ERROR level for alerting only.
func (a *SecurityAuditor) ScreenPrompt(ctx context.Context, firmID uuid.UUID, prompt string) bool {
	isSQLi, fingerprint := libinjection.IsSQLi(prompt)
	if !isSQLi {
		return false
	}

	details := PromptInjectionDetails{
		Prompt:      logging.TruncateForLog(prompt),
		Fingerprint: fingerprint,
	}
	event := a.newEvent(ctx, EventSQLInjectionAttempt, firmID, details, "critical")

	a.logger.Error("SQL injection pattern in intake prompt",
		zap.String("event_json", event.json()),
		zap.String("firm_id", firmID.String()),
		zap.String("fingerprint", fingerprint),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	)
	return true
}

// LogIntakeResolved records a created case.
func (a *SecurityAuditor) LogIntakeResolved(ctx context.Context, firmID uuid.UUID, details IntakeResolvedDetails) {
	event := a.newEvent(ctx, EventCaseIntakeResolved, firmID, details, "info")

	a.logger.Info("Case intake resolved",
		zap.String("event_json", event.json()),
		zap.String("firm_id", firmID.String()),
		zap.String("case_id", details.CaseID),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	)
}

// LogIntakeFailed records an intake that stopped before creating a case.
// These are usually user errors, so the level is WARN.
func (a *SecurityAuditor) LogIntakeFailed(ctx context.Context, firmID uuid.UUID, details IntakeFailedDetails) {
	details.Prompt = logging.TruncateForLog(details.Prompt)
	event := a.newEvent(ctx, EventCaseIntakeFailed, firmID, details, "warning")

	a.logger.Warn("Case intake failed",
		zap.String("event_json", event.json()),
		zap.String("firm_id", firmID.String()),
		zap.String("field", details.Field),
		zap.String("reason", details.Reason),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, firmID uuid.UUID, details any, severity string) SecurityEvent {
	return SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		FirmID:    firmID,
		UserID:    auth.GetUserIDFromContext(ctx),
		Details:   details,
		Severity:  severity,
	}
}

// json serializes the event for the event_json field. Marshaling known types
// cannot fail, so the error is ignored.
func (e SecurityEvent) json() string {
	data, _ := json.Marshal(e)
	return string(data)
}
