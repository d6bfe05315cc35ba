package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of tool categories known to the catalog.
type Category string

const (
	CategoryLanguageModel  Category = "Language Model"
	CategoryCodeGeneration Category = "Code Generation"
	CategoryDatabase       Category = "Database"
	CategoryDeployment     Category = "Deployment Platform"
	CategoryOther          Category = "Other"
)

// Categories lists every category in catalog order.
var Categories = []Category{
	CategoryLanguageModel,
	CategoryCodeGeneration,
	CategoryDatabase,
	CategoryDeployment,
	CategoryOther,
}

// ParseCategory matches name against the known categories, ignoring case.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// ParseCategories parses every name, stopping at the first unknown one.
func ParseCategories(names []string) ([]Category, error) {
	out := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SkillLevel is the effort a tool asks of its user, on the 1..3 skill scale.
type SkillLevel struct {
	Setup int `json:"setup" yaml:"setup"`
	Daily int `json:"daily" yaml:"daily"`
}

// ToolProfile describes one catalog entry.
type ToolProfile struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Category     Category          `json:"category" yaml:"category"`
	SkillLevel   SkillLevel        `json:"skillLevel" yaml:"skill_level"`
	Strengths    []string          `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Integrations []string          `json:"integrations,omitempty" yaml:"integrations,omitempty"`
	Popularity   float64           `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	Extensions   map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Validate reports the first structural problem with the profile.
func (t ToolProfile) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tool id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tool %s: name is required", t.ID)
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return fmt.Errorf("tool %s: %w", t.ID, err)
	}
	if t.Popularity < 0 || t.Popularity > 100 {
		return fmt.Errorf("tool %s: popularity %.1f out of range 0..100", t.ID, t.Popularity)
	}
	for _, effort := range []int{t.SkillLevel.Setup, t.SkillLevel.Daily} {
		if effort < int(SkillBeginner) || effort > int(SkillExpert) {
			return fmt.Errorf("tool %s: skill effort %d out of range 1..3", t.ID, effort)
		}
	}
	return nil
}

// ScoredTool is a profile annotated with its suitability for one request.
// Index is the position of the tool in catalog order and breaks score ties.
type ScoredTool struct {
	Tool  ToolProfile
	Score float64
	Index int
}
