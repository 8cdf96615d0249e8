package parser

import (
	"encoding/json"
	"strings"

	"github.com/apex/log"

	"damage-analyze-service/models"
)

// ParseFailureMessage is the diagnostic carried by the fallback payload
// when the model's reply cannot be recovered as JSON.
const ParseFailureMessage = "Failed to parse LLM response"

// Payload is the raw, pre-validation shape decoded from an LLM reply.
// A reply may carry an error key instead of (or alongside) damages.
type Payload struct {
	Damages []models.DamageFinding `json:"damages"`
	Error   string                 `json:"error,omitempty"`
}

// ExtractJSONFromMarkdown narrows a model reply down to its JSON
// candidate: the interior of the first fenced code block when present,
// then the span from the earliest '{' to the last '}'.
func ExtractJSONFromMarkdown(response string) string {
	candidate := response

	// Look for a code block with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(candidate, startMarker)
	if startIdx != -1 {
		rest := candidate[startIdx+len(startMarker):]
		endIdx := strings.Index(rest, endMarker)
		if endIdx != -1 {
			content := rest[:endIdx]

			// Remove the language identifier if present (e.g., "json")
			lines := strings.Split(strings.TrimSpace(content), "\n")
			if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
				content = strings.Join(lines[1:], "\n")
			}

			candidate = content
		}
	}

	// Narrow to the first '{' .. last '}' span
	braceStart := strings.Index(candidate, "{")
	braceEnd := strings.LastIndex(candidate, "}")
	if braceStart != -1 && braceEnd != -1 && braceEnd > braceStart {
		candidate = candidate[braceStart : braceEnd+1]
	}

	return strings.TrimSpace(candidate)
}

// ParsePayload recovers a payload from the model's raw text reply. It is
// total: any input, including empty strings and pure prose, yields a
// well-formed payload. Unparseable replies degrade to the fixed fallback
// and are logged for operator visibility.
func ParsePayload(response string) Payload {
	candidate := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var payload Payload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		log.Errorf("failed to parse LLM response: %v, raw text: %q", err, response)
		return Payload{Damages: []models.DamageFinding{}, Error: ParseFailureMessage}
	}

	if payload.Damages == nil {
		payload.Damages = []models.DamageFinding{}
	}

	return payload
}
