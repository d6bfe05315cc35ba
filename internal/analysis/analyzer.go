package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"stackfast/internal/llm"
	"stackfast/internal/models"
)

// ErrUnusableAnalysis is returned when the model answered but nothing in the
// answer could be read as a project analysis.
var ErrUnusableAnalysis = errors.New("unusable project analysis")

const systemPrompt = "You are a software architecture expert. Respond ONLY with JSON."

const promptTemplate = `Project idea:
"""
%s
"""
---
Extract the product features, the technologies explicitly mentioned and the overall complexity.
MANDATORY output format, JSON only:
{"features": ["..."], "technologies": ["..."], "complexity": "Low|Moderate|High"}
`

// Analyzer turns a free-text project idea into a structured analysis.
type Analyzer interface {
	Analyze(ctx context.Context, projectIdea string) (models.ProjectAnalysis, error)
}

// LLMAnalyzer asks a language model for the analysis.
type LLMAnalyzer struct {
	client      llm.Client
	maxFeatures int
}

// NewLLMAnalyzer creates an analyzer backed by client.
func NewLLMAnalyzer(client llm.Client) *LLMAnalyzer {
	return &LLMAnalyzer{client: client, maxFeatures: 12}
}

// Analyze sends the idea to the model and parses its answer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, projectIdea string) (models.ProjectAnalysis, error) {
	idea := strings.TrimSpace(projectIdea)
	if idea == "" {
		return models.ProjectAnalysis{}, fmt.Errorf("%w: empty project idea", ErrUnusableAnalysis)
	}

	raw, err := a.client.Request(ctx, systemPrompt, fmt.Sprintf(promptTemplate, idea))
	if err != nil {
		return models.ProjectAnalysis{}, fmt.Errorf("analysis request: %w", err)
	}

	result, err := ParseAnalysis(raw)
	if err != nil {
		logrus.WithError(err).Debugf("Raw analysis answer: %.200s", raw)
		return models.ProjectAnalysis{}, err
	}
	if len(result.Features) > a.maxFeatures {
		result.Features = result.Features[:a.maxFeatures]
	}
	logrus.WithFields(logrus.Fields{
		"features":     len(result.Features),
		"technologies": len(result.Technologies),
		"complexity":   result.Complexity,
	}).Info("Project analysis complete")
	return result, nil
}
