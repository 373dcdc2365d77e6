package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Case priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// NormalizePriority maps free-form priority text to low/medium/high.
// Unknown or empty values become medium.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityLow, "minor":
		return PriorityLow
	case PriorityHigh, "urgent", "critical":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// FormatCaseID renders the firm-scoped case reference for counter value n.
func FormatCaseID(n int64) string {
	return fmt.Sprintf("CASE-%06d", n)
}

// FormatCaseNumber renders the docket style number for counter value n.
func FormatCaseNumber(year int, n int64) string {
	return fmt.Sprintf("%d/%06d", year, n)
}

// Case is a legal case record. Stored in the cases table.
type Case struct {
	ID           int64      `json:"id"`
	FirmID       uuid.UUID  `json:"firm_id"`
	CaseID       string     `json:"case_id"`     // Firm-scoped reference, e.g. CASE-000042
	CaseNumber   string     `json:"case_number"` // Docket style number, e.g. 2026/000042
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ClientID     int64      `json:"client_id"`
	CourtID      int64      `json:"court_id"`
	CaseTypeID   int64      `json:"case_type_id"`
	CaseStatusID int64      `json:"case_status_id"`
	Priority     string     `json:"priority"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Populated on reads that join the lookup tables
	Client     *EntityRef `json:"client"`
	Court      *EntityRef `json:"court"`
	CaseType   *EntityRef `json:"case_type"`
	CaseStatus *EntityRef `json:"case_status"`
}

// CaseView is the public shape of a case returned from intake.
type CaseView struct {
	ID          int64      `json:"id"`
	CaseID      string     `json:"case_id"`
	CaseNumber  string     `json:"case_number"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Client      *EntityRef `json:"client"`
	Court       *EntityRef `json:"court"`
	CaseType    *EntityRef `json:"case_type"`
	CaseStatus  *EntityRef `json:"case_status"`
	Priority    string     `json:"priority"`
}

// View returns the public shape of the case.
func (c *Case) View() *CaseView {
	if c == nil {
		return nil
	}
	return &CaseView{
		ID:          c.ID,
		CaseID:      c.CaseID,
		CaseNumber:  c.CaseNumber,
		Title:       c.Title,
		Description: c.Description,
		Client:      c.Client,
		Court:       c.Court,
		CaseType:    c.CaseType,
		CaseStatus:  c.CaseStatus,
		Priority:    c.Priority,
	}
}
