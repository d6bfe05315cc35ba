package models

import (
	"fmt"
	"strings"
)

// Complexity classifies how demanding a project idea is.
type Complexity string

const (
	ComplexityLow      Complexity = "Low"
	ComplexityModerate Complexity = "Moderate"
	ComplexityHigh     Complexity = "High"
)

// ParseComplexity matches s against the known complexities, ignoring case.
func ParseComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ComplexityLow, nil
	case "moderate", "medium":
		return ComplexityModerate, nil
	case "high":
		return ComplexityHigh, nil
	}
	return "", fmt.Errorf("unknown complexity %q", s)
}

// ProjectAnalysis is the structured reading of a free-text project idea.
type ProjectAnalysis struct {
	Features     []string   `json:"features"`
	Technologies []string   `json:"technologies"`
	Complexity   Complexity `json:"complexity"`
}

// NeutralAnalysis is used whenever the analysis service cannot answer.
func NeutralAnalysis() ProjectAnalysis {
	return ProjectAnalysis{
		Features:     []string{},
		Technologies: []string{},
		Complexity:   ComplexityModerate,
	}
}

// SkillProfile is the user's self-assessed experience.
type SkillProfile int

const (
	SkillBeginner SkillProfile = 1
	SkillModerate SkillProfile = 2
	SkillExpert   SkillProfile = 3
)

// Normalize maps out-of-range values to SkillModerate.
func (s SkillProfile) Normalize() SkillProfile {
	if s < SkillBeginner || s > SkillExpert {
		return SkillModerate
	}
	return s
}

func (s SkillProfile) String() string {
	switch s {
	case SkillBeginner:
		return "Beginner"
	case SkillModerate:
		return "Moderate"
	case SkillExpert:
		return "Expert"
	}
	return fmt.Sprintf("SkillProfile(%d)", int(s))
}
