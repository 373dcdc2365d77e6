package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-counsel/pkg/jsonutil"
)

// Supported name locales.
const (
	LocaleEnglish = "en"
	LocaleArabic  = "ar"
)

// UnknownName is displayed when an entity carries no usable name.
const UnknownName = "Unknown"

// LocalizedName is the name of a lookup entity. It is either a plain string or a
// locale-keyed map such as {"en": "Riyadh Commercial Court", "ar": "..."}.
// Stored as JSONB; the zero value is a name with no content.
type LocalizedName struct {
	plain     string
	locales   map[string]string
	localized bool
}

// PlainName returns a LocalizedName holding a plain string.
func PlainName(name string) LocalizedName {
	return LocalizedName{plain: name}
}

// LocalizedNames returns a LocalizedName holding a locale map.
func LocalizedNames(locales map[string]string) LocalizedName {
	copied := make(map[string]string, len(locales))
	for k, v := range locales {
		copied[k] = v
	}
	return LocalizedName{locales: copied, localized: true}
}

// IsLocalized reports whether the name is a locale map.
func (n LocalizedName) IsLocalized() bool {
	return n.localized
}

// Locale returns the raw value stored for a locale (empty for plain names).
func (n LocalizedName) Locale(locale string) string {
	return n.locales[locale]
}

// String returns the display name; see Resolve.
func (n LocalizedName) String() string {
	return n.Resolve("")
}

// Resolve returns the comparable display string for the name.
// Plain names are returned trimmed. Locale maps return the preferred locale when
// present and non-empty, then English, then Arabic. Anything else is UnknownName.
// Every comparison and every diagnostic goes through this method.
func (n LocalizedName) Resolve(preferred string) string {
	if !n.localized {
		if trimmed := strings.TrimSpace(n.plain); trimmed != "" {
			return trimmed
		}
		return UnknownName
	}

	order := []string{LocaleEnglish, LocaleArabic}
	if preferred != "" && preferred != LocaleEnglish {
		order = append([]string{preferred}, order...)
	}

	for _, locale := range order {
		if value := strings.TrimSpace(n.locales[locale]); value != "" {
			return value
		}
	}
	return UnknownName
}

// MarshalJSON writes plain names as JSON strings and localized names as objects.
func (n LocalizedName) MarshalJSON() ([]byte, error) {
	if n.localized {
		locales := n.locales
		if locales == nil {
			locales = map[string]string{}
		}
		return json.Marshal(locales)
	}
	return json.Marshal(n.plain)
}

// UnmarshalJSON accepts either a JSON string or a locale object.
func (n *LocalizedName) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = LocalizedName{}
		return nil
	}

	switch trimmed[0] {
	case '{':
		locales, err := jsonutil.FlexibleStringMap(trimmed)
		if err != nil {
			return fmt.Errorf("invalid localized name: %w", err)
		}
		*n = LocalizedName{locales: locales, localized: true}
		return nil
	case '"':
		var plain string
		if err := json.Unmarshal(trimmed, &plain); err != nil {
			return fmt.Errorf("invalid name: %w", err)
		}
		*n = LocalizedName{plain: plain}
		return nil
	default:
		// Numbers and booleans sometimes arrive from AI-assisted imports
		*n = LocalizedName{plain: jsonutil.FlexibleStringValue(trimmed)}
		return nil
	}
}

// IsEmpty reports whether the name has no usable value, i.e. Resolve falls back
// to UnknownName.
func (n LocalizedName) IsEmpty() bool {
	if !n.localized {
		return strings.TrimSpace(n.plain) == ""
	}
	return strings.TrimSpace(n.locales[LocaleEnglish]) == "" &&
		strings.TrimSpace(n.locales[LocaleArabic]) == ""
}
