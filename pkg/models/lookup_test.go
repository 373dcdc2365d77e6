package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in   string
		want EntityType
	}{
		{in: "clients", want: EntityClient},
		{in: "client", want: EntityClient},
		{in: "courts", want: EntityCourt},
		{in: "case-types", want: EntityCaseType},
		{in: "case_type", want: EntityCaseType},
		{in: "case-statuses", want: EntityCaseStatus},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntityType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseEntityType("judges")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEntityType)
}

func TestEntityType_Metadata(t *testing.T) {
	assert.Equal(t, "case_statuses", EntityCaseStatus.Table())
	assert.Equal(t, "case status", EntityCaseStatus.Label())
	assert.Equal(t, "case-statuses", EntityCaseStatus.URLName())
	assert.False(t, EntityType("judge").Valid())
	assert.Equal(t, []EntityType{EntityClient, EntityCaseType, EntityCaseStatus, EntityCourt}, AllEntityTypes)
}

func TestNamedEntity_Helpers(t *testing.T) {
	var nilEntity *NamedEntity
	assert.Equal(t, UnknownName, nilEntity.DisplayName())
	assert.False(t, nilEntity.IsActive())
	assert.Nil(t, RefOf(nil))

	e := &NamedEntity{ID: 12, Name: LocalizedNames(map[string]string{"en": "Acme"}), Status: StatusActive}
	assert.True(t, e.IsActive())
	assert.Equal(t, &EntityRef{ID: 12, Name: "Acme"}, RefOf(e))
}

func TestMatchResult_Invariant(t *testing.T) {
	none := NoMatch()
	assert.Equal(t, TierNone, none.Tier)
	assert.False(t, none.Matched())
	assert.Equal(t, int64(0), none.ID())

	e := &NamedEntity{ID: 3, Name: PlainName("Acme")}
	m := MatchOf(e, TierExact)
	require.True(t, m.Matched())
	assert.Equal(t, int64(3), m.ID())
	assert.Equal(t, "Acme", *m.MatchedName)

	assert.False(t, MatchOf(e, TierNone).Matched())
	assert.False(t, MatchOf(nil, TierExact).Matched())
}

func TestResolution_Resolved(t *testing.T) {
	r := &Resolution{}
	assert.False(t, r.Resolved())

	for i, typ := range AllEntityTypes {
		r.Field(typ).Match = MatchOf(&NamedEntity{ID: int64(i + 1), Name: PlainName("x")}, TierExact)
	}
	require.True(t, r.Resolved())

	assert.Equal(t, ResolvedCaseEntities{ClientID: 1, CaseTypeID: 2, CaseStatusID: 3, CourtID: 4}, r.Entities())
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, NormalizePriority(" Urgent "))
	assert.Equal(t, PriorityLow, NormalizePriority("low"))
	assert.Equal(t, PriorityMedium, NormalizePriority(""))
	assert.Equal(t, PriorityMedium, NormalizePriority("whenever"))
}

func TestFormatCaseIdentifiers(t *testing.T) {
	assert.Equal(t, "CASE-000042", FormatCaseID(42))
	assert.Equal(t, "CASE-1234567", FormatCaseID(1234567))
	assert.Equal(t, "2026/000042", FormatCaseNumber(2026, 42))
}
