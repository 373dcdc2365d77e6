package intake

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// nameRun is a run of capitalized words ("Acme Corp", "Al-Noor Holdings").
const nameRun = `[A-Z][\w&'\-]*(?:[ \t]+[A-Z][\w&'\-]*)*`

// clientTerminator ends a client name: period, comma, "against", "in" or end of text.
const clientTerminator = `(?:\s*[.,]|\s+(?:against|in)\b|\s*$)`

// Rule is one extraction pattern. Group 1 of Pattern is the candidate.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Accept rejects captures that matched the pattern but are not names.
	Accept func(capture string) bool
	// StopWords truncate the capture at the first word equal to one of them,
	// ignoring case, since capitalized keywords are swallowed by nameRun.
	StopWords []string
}

// genericForStoplist guards the catch-all "for <Name>" rule.
var genericForStoplist = map[string]bool{
	"case": true, "client": true, "court": true, "file": true, "new": true, "the": true,
}

// ClientRules are tried in order; the first rule producing a candidate wins.
var ClientRules = []Rule{
	{
		Name:      "for_client",
		Pattern:   regexp.MustCompile(`(?i:\bfor\s+client)\s+(` + nameRun + `)` + clientTerminator),
		StopWords: []string{"against", "in"},
	},
	{
		Name:      "client",
		Pattern:   regexp.MustCompile(`(?i:\bclient)\s+(` + nameRun + `)` + clientTerminator),
		StopWords: []string{"against", "in"},
	},
	{
		Name:      "my_client",
		Pattern:   regexp.MustCompile(`(?i:\bmy\s+client)\s+(` + nameRun + `)` + clientTerminator),
		StopWords: []string{"against", "in"},
	},
	{
		Name:      "for",
		Pattern:   regexp.MustCompile(`(?i:\bfor)\s+(` + nameRun + `)` + clientTerminator),
		StopWords: []string{"against", "in"},
		Accept: func(capture string) bool {
			words := strings.Fields(capture)
			return len(words) > 0 && !genericForStoplist[strings.ToLower(words[0])]
		},
	},
}

// CourtRules are tried in order; the first rule producing a candidate wins.
var CourtRules = []Rule{
	{
		Name:    "in_court",
		Pattern: regexp.MustCompile(`(?i:\bin)\s+((?:(?i:the)\s+)?` + nameRun + `)`),
		Accept: func(capture string) bool {
			return strings.Contains(capture, "Court")
		},
	},
	{
		Name:    "file_in",
		Pattern: regexp.MustCompile(`(?i:\bfile\s+in)\s+([^.,\n]+)`),
	},
}

// RulesFor returns the extraction rules for a lookup type. Only clients and
// courts are extracted from prompt text.
func RulesFor(field models.EntityType) []Rule {
	switch field {
	case models.EntityClient:
		return ClientRules
	case models.EntityCourt:
		return CourtRules
	default:
		return nil
	}
}

// Extraction is a candidate recovered from prompt text.
type Extraction struct {
	Candidate string
	Rule      string
}

// Extract applies the field's rules in order to prompt and returns the first
// cleaned, non-empty candidate. There is no scoring across rules.
func Extract(prompt string, field models.EntityType) (Extraction, bool) {
	for _, rule := range RulesFor(field) {
		if candidate, ok := rule.apply(prompt); ok {
			return Extraction{Candidate: candidate, Rule: rule.Name}, true
		}
	}
	return Extraction{}, false
}

// apply returns the first capture of the rule that survives guards and cleanup.
func (r Rule) apply(prompt string) (string, bool) {
	for _, m := range r.Pattern.FindAllStringSubmatch(prompt, -1) {
		if len(m) < 2 {
			continue
		}
		capture := truncateAtStopWord(m[1], r.StopWords)
		if r.Accept != nil && !r.Accept(capture) {
			continue
		}
		if cleaned := Clean(capture); cleaned != "" {
			return cleaned, true
		}
	}
	return "", false
}

func truncateAtStopWord(capture string, stopWords []string) string {
	if len(stopWords) == 0 {
		return capture
	}
	words := strings.Fields(capture)
	for i, w := range words {
		for _, stop := range stopWords {
			if strings.EqualFold(w, stop) {
				return strings.Join(words[:i], " ")
			}
		}
	}
	return capture
}

var (
	leadingTokenPattern        = regexp.MustCompile(`^(?i:(?:file\s+in|for|client|the|my|in|at)\s+)`)
	trailingPunctuationPattern = regexp.MustCompile(`[\s.,;]+$`)
)

// Clean strips one leading article/prefix token (for, client, the, my, in,
// file in, at) and trailing . , ; runs, then trims. Returns "" when nothing is left.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = leadingTokenPattern.ReplaceAllString(s, "")
	s = trailingPunctuationPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// phrasePattern finds one- or two-word capitalized phrases. A capital inside a
// word starts a new phrase ("McDonald" yields "Mc" and "Donald").
var phrasePattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)

// phraseStoplist holds capitalized words that are never client names on their own.
var phraseStoplist = map[string]bool{
	"create": true, "case": true, "file": true, "court": true, "client": true,
	"new": true, "high": true, "medium": true, "low": true, "priority": true,
	"against": true, "corporation": true, "company": true, "ltd": true, "inc": true,
}

// ProbeClientPhrase is the last-resort client extraction. It scans prompt for
// capitalized phrases, skips those that are a stoplisted word, and returns the
// first phrase, unchanged, that overlaps (NamesOverlap) one of the known client
// names.
func ProbeClientPhrase(prompt string, clientNames []string) (string, bool) {
	for _, phrase := range phrasePattern.FindAllString(prompt, -1) {
		if phraseStoplist[strings.ToLower(phrase)] {
			continue
		}
		for _, name := range clientNames {
			if NamesOverlap(phrase, name) {
				return phrase, true
			}
		}
	}
	return "", false
}
