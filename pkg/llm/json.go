package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when a completion carries no decodable object.
var ErrNoJSONObject = errors.New("no JSON object in completion")

var (
	reasoningBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>`)
	codeFence      = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// ExtractObject returns the first well-formed JSON object in a completion.
// A leading <think> block is dropped and a fenced block, when present, is
// searched before the rest of the text.
func ExtractObject(completion string) (string, error) {
	text := reasoningBlock.ReplaceAllString(completion, "")

	var searched []string
	if m := codeFence.FindStringSubmatch(text); m != nil {
		searched = append(searched, m[1])
	}
	searched = append(searched, text)

	for _, s := range searched {
		for offset := 0; offset < len(s); {
			obj, next := scanObject(s, offset)
			if next < 0 {
				break
			}
			if obj != "" && json.Valid([]byte(obj)) {
				return obj, nil
			}
			offset = next
		}
	}
	return "", ErrNoJSONObject
}

// scanObject finds the object that opens at or after offset. It returns the
// object text (empty when braces never balance) and where to resume scanning,
// or -1 when no '{' remains.
func scanObject(s string, offset int) (string, int) {
	rel := strings.IndexByte(s[offset:], '{')
	if rel < 0 {
		return "", -1
	}
	start := offset + rel

	depth := 0
	quoted := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case quoted && c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], i + 1
			}
		}
	}
	return "", start + 1
}

// DecodeObject extracts the first JSON object of a completion into T.
func DecodeObject[T any](completion string) (T, error) {
	var out T
	obj, err := ExtractObject(completion)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return out, err
	}
	return out, nil
}
