package models

import "time"

// Blueprint is a persisted recommendation.
type Blueprint struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	ProjectIdea      string          `json:"projectIdea"`
	SkillProfile     SkillProfile    `json:"skillProfile"`
	PreferredToolIDs []string        `json:"preferredToolIds"`
	Analysis         ProjectAnalysis `json:"analysis"`
	Result           BlueprintResult `json:"result"`
	CreatedAt        time.Time       `json:"createdAt"`
}
