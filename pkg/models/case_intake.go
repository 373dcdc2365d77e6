package models

import (
	"github.com/google/uuid"
)

// MatchTier is the precedence level that produced a lookup match.
type MatchTier string

const (
	TierOverride    MatchTier = "override"
	TierExact       MatchTier = "exact"
	TierSubstring   MatchTier = "substring"
	TierWordOverlap MatchTier = "word_overlap"
	TierNone        MatchTier = "none"
)

// MatchResult is the outcome of resolving one field. Tier is TierNone exactly
// when EntityID is nil.
type MatchResult struct {
	EntityID    *int64    `json:"entity_id"`
	MatchedName *string   `json:"matched_name"`
	Tier        MatchTier `json:"tier"`
}

// NoMatch returns the TierNone result.
func NoMatch() MatchResult {
	return MatchResult{Tier: TierNone}
}

// MatchOf returns a result pointing at entity with the given tier.
func MatchOf(entity *NamedEntity, tier MatchTier) MatchResult {
	if entity == nil || tier == TierNone {
		return NoMatch()
	}
	id := entity.ID
	name := entity.DisplayName()
	return MatchResult{EntityID: &id, MatchedName: &name, Tier: tier}
}

// Matched reports whether the result points at an entity.
func (m MatchResult) Matched() bool {
	return m.EntityID != nil
}

// ID returns the matched entity id or 0.
func (m MatchResult) ID() int64 {
	if m.EntityID == nil {
		return 0
	}
	return *m.EntityID
}

// CaseHints is the structured output of the AI extraction step. Suggested*
// fields are candidate names; Raw carries every field the model returned so it
// can be passed through to callers untouched.
type CaseHints struct {
	SuggestedClient   string         `json:"suggested_client,omitempty"`
	SuggestedCourt    string         `json:"suggested_court,omitempty"`
	SuggestedCaseType string         `json:"suggested_case_type,omitempty"`
	Title             string         `json:"title,omitempty"`
	Description       string         `json:"description,omitempty"`
	Priority          string         `json:"priority,omitempty"`
	Raw               map[string]any `json:"-"`
}

// Hint returns the suggested name for a lookup type ("" for case status).
func (h *CaseHints) Hint(t EntityType) string {
	if h == nil {
		return ""
	}
	switch t {
	case EntityClient:
		return h.SuggestedClient
	case EntityCourt:
		return h.SuggestedCourt
	case EntityCaseType:
		return h.SuggestedCaseType
	default:
		return ""
	}
}

// IntakeOverrides are directly supplied entity ids that bypass text matching.
type IntakeOverrides struct {
	ClientID     *int64 `json:"client_id,omitempty"`
	CourtID      *int64 `json:"court_id,omitempty"`
	CaseTypeID   *int64 `json:"case_type_id,omitempty"`
	CaseStatusID *int64 `json:"case_status_id,omitempty"`
}

// For returns the override id for a lookup type, if any.
func (o IntakeOverrides) For(t EntityType) *int64 {
	switch t {
	case EntityClient:
		return o.ClientID
	case EntityCourt:
		return o.CourtID
	case EntityCaseType:
		return o.CaseTypeID
	case EntityCaseStatus:
		return o.CaseStatusID
	default:
		return nil
	}
}

// IntakeOptions are the optional inputs of a case intake call.
type IntakeOptions struct {
	IntakeOverrides
	UserID string `json:"user_id,omitempty"`
}

// FieldResolution records how a single field was resolved.
type FieldResolution struct {
	Field     EntityType  `json:"field"`
	Candidate string      `json:"candidate,omitempty"` // Hint or extracted name used for matching
	Source    string      `json:"source,omitempty"`    // hint, pattern:<rule>, fallback, mention, override, default
	Match     MatchResult `json:"match"`
	// Available names, filled only for unresolved fields
	Available []string `json:"available,omitempty"`
}

// Unmatched returns the candidate that was tried but matched nothing, or "".
func (f *FieldResolution) Unmatched() string {
	if f == nil || f.Match.Matched() {
		return ""
	}
	return f.Candidate
}

// Resolution holds the per-field outcome of resolving an intake prompt.
type Resolution struct {
	FirmID  uuid.UUID                       `json:"firm_id"`
	Prompt  string                          `json:"prompt"`
	Hints   *CaseHints                      `json:"hints,omitempty"`
	Fields  map[EntityType]*FieldResolution `json:"fields"`
	Missing EntityType                      `json:"missing,omitempty"`
}

// Field returns the resolution for a field, never nil.
func (r *Resolution) Field(t EntityType) *FieldResolution {
	if r.Fields == nil {
		r.Fields = make(map[EntityType]*FieldResolution)
	}
	f, ok := r.Fields[t]
	if !ok {
		f = &FieldResolution{Field: t, Match: NoMatch()}
		r.Fields[t] = f
	}
	return f
}

// Resolved reports whether all four fields hold an entity id.
func (r *Resolution) Resolved() bool {
	for _, t := range AllEntityTypes {
		if f, ok := r.Fields[t]; !ok || !f.Match.Matched() {
			return false
		}
	}
	return true
}

// ResolvedCaseEntities are the four ids handed to case creation.
type ResolvedCaseEntities struct {
	ClientID     int64 `json:"client_id"`
	CourtID      int64 `json:"court_id"`
	CaseTypeID   int64 `json:"case_type_id"`
	CaseStatusID int64 `json:"case_status_id"`
}

// Entities returns the resolved ids. Only meaningful when Resolved() is true.
func (r *Resolution) Entities() ResolvedCaseEntities {
	return ResolvedCaseEntities{
		ClientID:     r.Field(EntityClient).Match.ID(),
		CourtID:      r.Field(EntityCourt).Match.ID(),
		CaseTypeID:   r.Field(EntityCaseType).Match.ID(),
		CaseStatusID: r.Field(EntityCaseStatus).Match.ID(),
	}
}

// CaseIntakeResult is returned by a successful intake.
type CaseIntakeResult struct {
	Success       bool           `json:"success"`
	Case          *CaseView      `json:"case"`
	ExtractedInfo map[string]any `json:"extracted_info"`
	Resolution    *Resolution    `json:"resolution,omitempty"`
	Message       string         `json:"message"`
}
