package models

// BlueprintRequest defines the body of a recommendation request.
type BlueprintRequest struct {
	ProjectIdea      string       `json:"projectIdea"`
	SkillProfile     SkillProfile `json:"skillProfile"`
	PreferredToolIDs []string     `json:"preferredToolIds"`
}

// Warning is an advisory message attached to a recommendation.
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Warning types.
const (
	WarningMissingCategory     = "missing_category"
	WarningUnknownPreference   = "unknown_preference"
	WarningAnalysisUnavailable = "analysis_unavailable"
	WarningSkillGap            = "skill_gap"
	WarningComplexity          = "complexity"
)

// BlueprintResult is the output of the selection pipeline.
type BlueprintResult struct {
	Summary          string        `json:"summary"`
	RecommendedStack []ToolProfile `json:"recommendedStack"`
	Warnings         []Warning     `json:"warnings"`
}

// BlueprintResponse is returned by the recommendation endpoint.
type BlueprintResponse struct {
	ID string `json:"id,omitempty"`
	BlueprintResult
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
