package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"stackfast/internal/models"
)

type analysisPayload struct {
	Features     []string `json:"features"`
	Technologies []string `json:"technologies"`
	Complexity   string   `json:"complexity"`
}

var lineRegex = regexp.MustCompile(`(?i)^\s*(?:[-*]|\d+\.)?\s*(FEATURES?|TECH(?:NOLOGY|NOLOGIES)?|COMPLEXITY)\s*:\s*(.*)$`)

// ParseAnalysis reads a model answer. JSON is preferred; answers made of
// "FEATURE: ...", "TECH: ..." and "COMPLEXITY: ..." lines are accepted too.
func ParseAnalysis(raw string) (models.ProjectAnalysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.ProjectAnalysis{}, fmt.Errorf("%w: empty answer", ErrUnusableAnalysis)
	}

	if payload, ok := parseJSON(raw); ok {
		return normalize(payload)
	}
	if payload, ok := parseLines(raw); ok {
		return normalize(payload)
	}
	return models.ProjectAnalysis{}, fmt.Errorf("%w: no JSON object or known fields in answer", ErrUnusableAnalysis)
}

func parseJSON(raw string) (analysisPayload, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return analysisPayload{}, false
	}
	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return analysisPayload{}, false
	}
	return payload, true
}

func parseLines(raw string) (analysisPayload, bool) {
	var payload analysisPayload
	found := false
	for _, line := range strings.Split(raw, "\n") {
		matches := lineRegex.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}
		found = true
		value := strings.TrimSpace(matches[2])
		switch key := strings.ToUpper(matches[1]); {
		case strings.HasPrefix(key, "FEATURE"):
			payload.Features = append(payload.Features, splitList(value)...)
		case strings.HasPrefix(key, "TECH"):
			payload.Technologies = append(payload.Technologies, splitList(value)...)
		case key == "COMPLEXITY":
			payload.Complexity = value
		}
	}
	return payload, found
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalize trims and de-duplicates the lists and defaults a missing or
// unknown complexity to Moderate. A payload with nothing in it is unusable.
func normalize(p analysisPayload) (models.ProjectAnalysis, error) {
	result := models.ProjectAnalysis{
		Features:     uniqueTrimmed(p.Features),
		Technologies: uniqueTrimmed(p.Technologies),
		Complexity:   models.ComplexityModerate,
	}
	complexity, err := models.ParseComplexity(p.Complexity)
	if err == nil {
		result.Complexity = complexity
	}
	if len(result.Features) == 0 && len(result.Technologies) == 0 && err != nil {
		return models.ProjectAnalysis{}, fmt.Errorf("%w: answer carries no fields", ErrUnusableAnalysis)
	}
	return result, nil
}

func uniqueTrimmed(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
