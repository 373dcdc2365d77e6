package services

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// PreconditionError is returned before any resolution work when the request
// itself is unusable (no requester, empty prompt). It is not retryable.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "case intake precondition failed: " + e.Reason
}

// examplePhrasings are shown to the user in UnresolvedFieldError messages.
var examplePhrasings = map[models.EntityType]string{
	models.EntityClient:     "for client Acme Corp",
	models.EntityCourt:      "file in Riyadh Commercial Court",
	models.EntityCaseType:   "a contract dispute case",
	models.EntityCaseStatus: "with case_status_id 1",
}

// UnresolvedFieldError reports the first field, in validation order, that
// could not be resolved. Candidates are the active names the firm has for the
// field; Extracted is the name found in the prompt that matched none of them.
type UnresolvedFieldError struct {
	Field      models.EntityType
	Candidates []string
	Extracted  string
}

func (e *UnresolvedFieldError) Error() string {
	label := e.Field.Label()

	available := "none"
	if len(e.Candidates) > 0 {
		available = strings.Join(e.Candidates, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is required. Please specify %s in your description (e.g., %q). ",
		capitalize(label), label, examplePhrasings[e.Field])
	fmt.Fprintf(&b, "\n\nAvailable %s: %s. ", inflection.Plural(label), available)
	if e.Extracted != "" {
		fmt.Fprintf(&b, "\n\nNote: I extracted '%s' as the %s name, but couldn't find a matching %s in your database. Please use one of the available names above.",
			e.Extracted, label, label)
	}
	return b.String()
}

// PersistenceError wraps a failure of the case creation step. The prompt and
// options are kept for logs; the wrapped error keeps its meaning.
type PersistenceError struct {
	Prompt  string
	Options models.IntakeOptions
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to create case: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
