// Package intake resolves free-text case descriptions against a firm's lookup
// entities (clients, courts, case types). It holds the pure parts of case intake:
// candidate extraction from the prompt and tiered name matching. Nothing here
// touches the database; callers pass in the active entities for the firm.
package intake

import (
	"strings"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// WordOverlapThreshold is the minimum share of candidate words that must find a
// counterpart in the entity name for the word-overlap tier. Inclusive.
const WordOverlapThreshold = 0.5

// tierMatcher tests a normalized candidate against a normalized entity name.
type tierMatcher func(candidate, name string) bool

// matchTiers are tried in order. A tier scans the whole entity list before the
// next tier is tried, so an exact match anywhere beats a substring match earlier
// in the list.
var matchTiers = []struct {
	tier    models.MatchTier
	matches tierMatcher
}{
	{tier: models.TierExact, matches: exactMatch},
	{tier: models.TierSubstring, matches: substringMatch},
	{tier: models.TierWordOverlap, matches: wordOverlapMatch},
}

// Match returns the best entity for candidate using exact, then substring, then
// word-overlap matching. Entities are scanned in the order given (database
// order); within a tier the first hit wins. Names are compared by DisplayName,
// so a nameless entity compares as UnknownName. Inactive entities are never
// matched. Returns TierNone when nothing qualifies.
func Match(candidate string, entities []*models.NamedEntity) models.MatchResult {
	normalized := normalize(candidate)
	if normalized == "" {
		return models.NoMatch()
	}

	for _, t := range matchTiers {
		if entity := firstMatching(normalized, entities, t.matches); entity != nil {
			return models.MatchOf(entity, t.tier)
		}
	}

	return models.NoMatch()
}

// firstMatching returns the first matchable entity accepted by the tier.
func firstMatching(candidate string, entities []*models.NamedEntity, matches tierMatcher) *models.NamedEntity {
	for _, entity := range entities {
		if !entity.IsActive() {
			continue
		}
		if matches(candidate, normalize(entity.DisplayName())) {
			return entity
		}
	}
	return nil
}

func exactMatch(candidate, name string) bool {
	return candidate == name
}

func substringMatch(candidate, name string) bool {
	if candidate == "" || name == "" {
		return false
	}
	return strings.Contains(candidate, name) || strings.Contains(name, candidate)
}

func wordOverlapMatch(candidate, name string) bool {
	matched, ratio := WordOverlap(candidate, name)
	return matched > 0 && ratio >= WordOverlapThreshold
}

// NamesOverlap reports whether either name contains the other, ignoring case and
// surrounding whitespace. Empty names never overlap.
func NamesOverlap(a, b string) bool {
	return substringMatch(normalize(a), normalize(b))
}

// WordOverlap counts the candidate words that have a counterpart among the name
// words (equal, or one containing the other) and returns the count together with
// its share of the candidate word count.
func WordOverlap(candidate, name string) (int, float64) {
	candidateWords := strings.Fields(normalize(candidate))
	nameWords := strings.Fields(normalize(name))
	if len(candidateWords) == 0 || len(nameWords) == 0 {
		return 0, 0
	}

	matched := 0
	for _, cw := range candidateWords {
		for _, nw := range nameWords {
			if cw == nw || strings.Contains(cw, nw) || strings.Contains(nw, cw) {
				matched++
				break
			}
		}
	}

	return matched, float64(matched) / float64(len(candidateWords))
}

// FindMentioned returns the first active entity whose display name appears
// inside text, or nil.
func FindMentioned(text string, entities []*models.NamedEntity) *models.NamedEntity {
	haystack := normalize(text)
	if haystack == "" {
		return nil
	}
	for _, entity := range entities {
		if !entity.IsActive() {
			continue
		}
		if strings.Contains(haystack, normalize(entity.DisplayName())) {
			return entity
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
