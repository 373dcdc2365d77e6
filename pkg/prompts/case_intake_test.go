package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCaseIntakePrompt(t *testing.T) {
	prompt := BuildCaseIntakePrompt("  Create a contract dispute case for client Acme Corp  ", KnownNames{
		Clients:   []string{"Acme Corp", "Beta Inc"},
		CaseTypes: []string{"Contract Dispute"},
	})

	assert.Contains(t, prompt, "## Description\n\nCreate a contract dispute case for client Acme Corp\n\n")
	assert.Contains(t, prompt, "## Known clients\n\n- Acme Corp\n- Beta Inc\n")
	assert.Contains(t, prompt, "## Known case types\n\n- Contract Dispute\n")
	assert.NotContains(t, prompt, "Known courts")

	for _, field := range []string{"suggested_client", "suggested_court", "suggested_case_type", "title", "description", "priority"} {
		assert.Contains(t, prompt, `"`+field+`"`)
	}
}

func TestBuildCaseIntakePrompt_NoKnownNames(t *testing.T) {
	prompt := BuildCaseIntakePrompt("New case", KnownNames{})

	assert.NotContains(t, prompt, "Known")
	assert.Contains(t, prompt, "## Response Format")
}
