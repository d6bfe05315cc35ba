package recommend

import (
	"slices"
	"strings"

	"stackfast/internal/models"
)

// SplitPreferences separates the tools the user asked for from the rest.
// Both lists keep the order of candidates. Preferred ids that match no
// candidate are returned in request order.
func SplitPreferences(candidates []models.ToolProfile, preferredIDs []string) (preferred, remaining []models.ToolProfile, unknown []string) {
	wanted := make(map[string]bool, len(preferredIDs))
	for _, id := range preferredIDs {
		wanted[id] = true
	}

	matched := make(map[string]bool, len(preferredIDs))
	for _, tool := range candidates {
		if wanted[tool.ID] {
			preferred = append(preferred, tool)
			matched[tool.ID] = true
			continue
		}
		remaining = append(remaining, tool)
	}

	for _, id := range preferredIDs {
		if !matched[id] {
			unknown = append(unknown, id)
		}
	}
	return preferred, remaining, unknown
}

// CompleteCategories appends, for every category the accumulator lacks, the
// first ranked tool of that category not already in the accumulator. ranked
// must be sorted best first. Categories with no candidate are returned as
// missing and left unfilled.
func CompleteCategories(acc []models.ToolProfile, ranked []models.ScoredTool, categories []models.Category) ([]models.ToolProfile, []models.Category) {
	var missing []models.Category
	for _, category := range categories {
		if hasCategory(acc, category) {
			continue
		}
		pick, ok := bestOf(ranked, category, acc)
		if !ok {
			missing = append(missing, category)
			continue
		}
		acc = append(acc, pick)
	}
	return acc, missing
}

func hasCategory(tools []models.ToolProfile, category models.Category) bool {
	return slices.ContainsFunc(tools, func(t models.ToolProfile) bool {
		return t.Category == category
	})
}

func bestOf(ranked []models.ScoredTool, category models.Category, acc []models.ToolProfile) (models.ToolProfile, bool) {
	for _, candidate := range ranked {
		if candidate.Tool.Category != category {
			continue
		}
		taken := slices.ContainsFunc(acc, func(t models.ToolProfile) bool {
			return t.ID == candidate.Tool.ID
		})
		if !taken {
			return candidate.Tool, true
		}
	}
	return models.ToolProfile{}, false
}

// Deduplicate keeps the first occurrence of every tool id.
func Deduplicate(tools []models.ToolProfile) []models.ToolProfile {
	out := make([]models.ToolProfile, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if seen[tool.ID] {
			continue
		}
		seen[tool.ID] = true
		out = append(out, tool)
	}
	return out
}

// orderCatalog puts an unordered catalog into catalog order: category order
// first, then tool id.
func orderCatalog(tools []models.ToolProfile) []models.ToolProfile {
	rank := make(map[models.Category]int, len(models.Categories))
	for i, c := range models.Categories {
		rank[c] = i
	}
	ordered := slices.Clone(tools)
	slices.SortStableFunc(ordered, func(a, b models.ToolProfile) int {
		if ra, rb := rank[a.Category], rank[b.Category]; ra != rb {
			return ra - rb
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ordered
}

// cleanIDs trims the requested ids and drops blanks and repeats.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
