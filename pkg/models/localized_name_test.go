package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedName_Resolve(t *testing.T) {
	tests := []struct {
		name string
		in   LocalizedName
		want string
	}{
		{name: "plain string is trimmed", in: PlainName("  Acme Corp "), want: "Acme Corp"},
		{name: "blank plain string", in: PlainName("   "), want: UnknownName},
		{name: "zero value", in: LocalizedName{}, want: UnknownName},
		{name: "english preferred", in: LocalizedNames(map[string]string{"en": "Riyadh Court", "ar": "محكمة الرياض"}), want: "Riyadh Court"},
		{name: "arabic when english missing", in: LocalizedNames(map[string]string{"ar": "شركة"}), want: "شركة"},
		{name: "arabic when english blank", in: LocalizedNames(map[string]string{"en": " ", "ar": "شركة"}), want: "شركة"},
		{name: "empty map", in: LocalizedNames(map[string]string{}), want: UnknownName},
		{name: "other locales ignored", in: LocalizedNames(map[string]string{"fr": "Cour"}), want: UnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Resolve(""))
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestLocalizedName_ResolvePreferredLocale(t *testing.T) {
	name := LocalizedNames(map[string]string{"en": "Riyadh Court", "ar": "محكمة الرياض"})

	assert.Equal(t, "محكمة الرياض", name.Resolve(LocaleArabic))
	assert.Equal(t, "Riyadh Court", name.Resolve(LocaleEnglish))
	assert.Equal(t, "Riyadh Court", name.Resolve("fr"))
	assert.Equal(t, "Acme", PlainName("Acme").Resolve(LocaleArabic))
}

func TestLocalizedName_UnmarshalJSON(t *testing.T) {
	var plain LocalizedName
	require.NoError(t, json.Unmarshal([]byte(`"Acme Corp"`), &plain))
	assert.False(t, plain.IsLocalized())
	assert.Equal(t, "Acme Corp", plain.Resolve(""))

	var localized LocalizedName
	require.NoError(t, json.Unmarshal([]byte(`{"ar":"شركة"}`), &localized))
	assert.True(t, localized.IsLocalized())
	assert.Equal(t, "شركة", localized.Resolve(""))
	assert.Equal(t, "", localized.Locale(LocaleEnglish))

	var empty LocalizedName
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.Equal(t, UnknownName, empty.Resolve(""))
	assert.True(t, empty.IsEmpty())

	var null LocalizedName
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.True(t, null.IsEmpty())

	var numeric LocalizedName
	require.NoError(t, json.Unmarshal([]byte(`1984`), &numeric))
	assert.Equal(t, "1984", numeric.Resolve(""))

	var broken LocalizedName
	assert.Error(t, json.Unmarshal([]byte(`{"en":`), &broken))
}

func TestLocalizedName_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(PlainName("Acme"))
	require.NoError(t, err)
	assert.JSONEq(t, `"Acme"`, string(data))

	data, err = json.Marshal(LocalizedNames(map[string]string{"en": "Court", "ar": "محكمة"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"en":"Court","ar":"محكمة"}`, string(data))

	data, err = json.Marshal(NamedEntity{ID: 4, Name: PlainName("X"), Status: StatusActive})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"X"`)
}

func TestLocalizedNames_CopiesInput(t *testing.T) {
	locales := map[string]string{"en": "Original"}
	name := LocalizedNames(locales)
	locales["en"] = "Changed"

	assert.Equal(t, "Original", name.Resolve(""))
}
