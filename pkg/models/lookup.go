package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
)

// EntityType identifies one of the firm-scoped lookup tables a case points at.
type EntityType string

const (
	EntityClient     EntityType = "client"
	EntityCourt      EntityType = "court"
	EntityCaseType   EntityType = "case_type"
	EntityCaseStatus EntityType = "case_status"
)

// AllEntityTypes lists lookup types in validation order.
var AllEntityTypes = []EntityType{EntityClient, EntityCaseType, EntityCaseStatus, EntityCourt}

// entityTypeInfo holds the storage and display details for an EntityType.
type entityTypeInfo struct {
	table   string
	label   string
	urlName string
}

var entityTypes = map[EntityType]entityTypeInfo{
	EntityClient:     {table: "clients", label: "client", urlName: "clients"},
	EntityCourt:      {table: "courts", label: "court", urlName: "courts"},
	EntityCaseType:   {table: "case_types", label: "case type", urlName: "case-types"},
	EntityCaseStatus: {table: "case_statuses", label: "case status", urlName: "case-statuses"},
}

// Valid reports whether t is a known lookup type.
func (t EntityType) Valid() bool {
	_, ok := entityTypes[t]
	return ok
}

// Table returns the database table holding entities of this type.
func (t EntityType) Table() string {
	return entityTypes[t].table
}

// Label returns the human-readable singular name ("case type").
func (t EntityType) Label() string {
	return entityTypes[t].label
}

// URLName returns the path segment used by the lookup API ("case-types").
func (t EntityType) URLName() string {
	return entityTypes[t].urlName
}

// ParseEntityType accepts an API path segment ("case-types") or the type
// itself ("case_type").
func ParseEntityType(s string) (EntityType, error) {
	for t, info := range entityTypes {
		if s == string(t) || s == info.urlName {
			return t, nil
		}
	}
	return "", apperrors.ErrInvalidEntityType
}

// EntityStatus is the lifecycle status of a lookup entity.
type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s EntityStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// NamedEntity is the shared shape of clients, courts, case types and case statuses.
// Only active entities are matched by case intake or listed as candidates.
type NamedEntity struct {
	ID        int64         `json:"id"`
	FirmID    uuid.UUID     `json:"firm_id"`
	Type      EntityType    `json:"type"`
	Name      LocalizedName `json:"name"`
	Status    EntityStatus  `json:"status"`
	CreatedBy *uuid.UUID    `json:"created_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DisplayName returns the resolved display name of the entity.
func (e *NamedEntity) DisplayName() string {
	if e == nil {
		return UnknownName
	}
	return e.Name.Resolve("")
}

// IsActive reports whether the entity can take part in matching.
func (e *NamedEntity) IsActive() bool {
	return e != nil && e.Status == StatusActive
}

// EntityRef is the compact {id, name} form embedded in case responses.
type EntityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RefOf returns the EntityRef for an entity, or nil.
func RefOf(e *NamedEntity) *EntityRef {
	if e == nil {
		return nil
	}
	return &EntityRef{ID: e.ID, Name: e.DisplayName()}
}
