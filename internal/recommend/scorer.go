package recommend

import (
	"cmp"
	"slices"
	"strings"

	"stackfast/config"
	"stackfast/internal/models"
)

// Weights scale each scoring factor.
type Weights struct {
	Popularity  float64
	Skill       float64
	Integration float64
	Technology  float64
	Feature     float64
}

// WeightsFromConfig copies the configured weights.
func WeightsFromConfig(cfg config.WeightsConfig) Weights {
	return Weights{
		Popularity:  cfg.Popularity,
		Skill:       cfg.Skill,
		Integration: cfg.Integration,
		Technology:  cfg.Technology,
		Feature:     cfg.Feature,
	}
}

// ScoringContext is everything a score depends on besides the tool itself.
type ScoringContext struct {
	Skill     models.SkillProfile
	Analysis  models.ProjectAnalysis
	Preferred []models.ToolProfile
}

// Scorer ranks candidate tools.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Rank scores every tool and sorts best first. Equal scores keep the input
// order, so callers pass tools in catalog order.
func (s *Scorer) Rank(sc ScoringContext, tools []models.ToolProfile) []models.ScoredTool {
	scored := make([]models.ScoredTool, 0, len(tools))
	for i, tool := range tools {
		scored = append(scored, models.ScoredTool{Tool: tool, Score: s.Score(sc, tool), Index: i})
	}
	slices.SortStableFunc(scored, func(a, b models.ScoredTool) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return scored
}

// Score computes the suitability of one tool.
func (s *Scorer) Score(sc ScoringContext, tool models.ToolProfile) float64 {
	w := s.weights
	total := tool.Popularity / 100 * w.Popularity

	skill := int(sc.Skill.Normalize())
	for _, effort := range []int{tool.SkillLevel.Setup, tool.SkillLevel.Daily} {
		if effort <= skill {
			total += w.Skill
		} else {
			total -= w.Skill * float64(effort-skill)
		}
	}

	for _, p := range sc.Preferred {
		if containsFold(tool.Integrations, p.ID) || containsFold(p.Integrations, tool.ID) {
			total += w.Integration
		}
	}

	for _, tech := range sc.Analysis.Technologies {
		if matchesTechnology(tool, tech) {
			total += w.Technology
		}
	}

	for _, feature := range sc.Analysis.Features {
		if mentionsFeature(tool.Strengths, feature) {
			total += w.Feature
		}
	}
	return total
}

func containsFold(items []string, target string) bool {
	return slices.ContainsFunc(items, func(item string) bool {
		return strings.EqualFold(strings.TrimSpace(item), target)
	})
}

func matchesTechnology(tool models.ToolProfile, tech string) bool {
	tech = strings.TrimSpace(tech)
	if tech == "" {
		return false
	}
	return strings.EqualFold(tool.ID, tech) ||
		strings.EqualFold(tool.Name, tech) ||
		containsFold(tool.Strengths, tech) ||
		containsFold(tool.Integrations, tech)
}

// mentionsFeature reports whether a strength and the feature overlap as
// case-insensitive substrings in either direction.
func mentionsFeature(strengths []string, feature string) bool {
	feature = strings.ToLower(strings.TrimSpace(feature))
	if feature == "" {
		return false
	}
	for _, strength := range strengths {
		s := strings.ToLower(strings.TrimSpace(strength))
		if s == "" {
			continue
		}
		if strings.Contains(s, feature) || strings.Contains(feature, s) {
			return true
		}
	}
	return false
}
