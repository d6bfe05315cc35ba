package recommend

import (
	"fmt"
	"strings"

	"stackfast/internal/models"
)

const maxSummaryFeatures = 3

// buildSummary describes the stack in one or two sentences.
func buildSummary(stack []models.ToolProfile, analysis models.ProjectAnalysis) string {
	if len(stack) == 0 {
		return "No tools could be recommended from the current catalog."
	}

	var sb strings.Builder
	noun := "tools"
	if len(stack) == 1 {
		noun = "tool"
	}
	fmt.Fprintf(&sb, "Recommended a stack of %d %s for a %s-complexity project", len(stack), noun, strings.ToLower(string(analysis.Complexity)))

	features := analysis.Features
	if len(features) > maxSummaryFeatures {
		features = features[:maxSummaryFeatures]
	}
	if len(features) > 0 {
		fmt.Fprintf(&sb, " covering %s", joinList(features))
	}

	names := make([]string, 0, len(stack))
	for _, tool := range stack {
		names = append(names, tool.Name)
	}
	fmt.Fprintf(&sb, ": %s.", strings.Join(names, ", "))
	return sb.String()
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// addStackWarnings records the advisories that depend on the final stack.
func addStackWarnings(t *Tracker, stack []models.ToolProfile, skill models.SkillProfile, analysis models.ProjectAnalysis) {
	if analysis.Complexity == models.ComplexityHigh && skill == models.SkillBeginner {
		t.AddWarning(models.WarningComplexity,
			"This project is rated High complexity for a Beginner profile; plan a smaller first milestone.")
	}

	for _, tool := range stack {
		switch {
		case tool.SkillLevel.Setup > int(skill):
			t.AddWarning(models.WarningSkillGap,
				fmt.Sprintf("%s expects %s-level setup effort; your profile is %s.", tool.Name, models.SkillProfile(tool.SkillLevel.Setup), skill))
		case tool.SkillLevel.Daily > int(skill):
			t.AddWarning(models.WarningSkillGap,
				fmt.Sprintf("%s expects %s-level daily effort; your profile is %s.", tool.Name, models.SkillProfile(tool.SkillLevel.Daily), skill))
		}
	}
}
