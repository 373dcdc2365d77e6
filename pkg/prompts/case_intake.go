package prompts

import (
	"fmt"
	"strings"
)

// CaseIntakeSystemMessage frames the hint extraction call. The model only
// extracts; matching against firm records happens afterwards in code.
const CaseIntakeSystemMessage = `You extract structured fields from a lawyer's free-text description of a new legal case.
Respond with a single JSON object and nothing else. Do not invent names that are not in the text.`

// KnownNames lists active lookup names shown to the model so it can copy
// spelling from the firm's records. Any list may be empty.
type KnownNames struct {
	Clients   []string
	Courts    []string
	CaseTypes []string
}

// BuildCaseIntakePrompt creates the user prompt for case hint extraction.
// It includes the description, the known names, and the JSON response format.
func BuildCaseIntakePrompt(description string, known KnownNames) string {
	var prompt strings.Builder

	prompt.WriteString("# Case Intake\n\n")
	prompt.WriteString("Extract the client, court, case type and case details from the description below.\n\n")

	prompt.WriteString("## Description\n\n")
	prompt.WriteString(strings.TrimSpace(description))
	prompt.WriteString("\n\n")

	writeNames(&prompt, "Known clients", known.Clients)
	writeNames(&prompt, "Known courts", known.Courts)
	writeNames(&prompt, "Known case types", known.CaseTypes)

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- Use the exact spelling of a known name when the description refers to it.\n")
	prompt.WriteString("- If the description names a client, court or case type that is not known, copy it as written.\n")
	prompt.WriteString("- Use null for any field the description does not mention.\n")
	prompt.WriteString("- priority is one of low, medium, high. Use high for urgent matters, otherwise null.\n")
	prompt.WriteString("- title is a short case title (under 80 characters), or null.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "suggested_client": "client name or null",
  "suggested_court": "court name or null",
  "suggested_case_type": "case type or null",
  "title": "short title or null",
  "description": "one or two sentence summary or null",
  "priority": "low | medium | high | null"
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}

func writeNames(b *strings.Builder, heading string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s\n\n", heading))
	for _, n := range names {
		b.WriteString(fmt.Sprintf("- %s\n", n))
	}
	b.WriteString("\n")
}
