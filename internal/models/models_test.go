package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" language model ")
	require.NoError(t, err)
	assert.Equal(t, CategoryLanguageModel, c)

	_, err = ParseCategory("Spreadsheet")
	assert.Error(t, err)

	cats, err := ParseCategories([]string{"Database", "Deployment Platform"})
	require.NoError(t, err)
	assert.Equal(t, []Category{CategoryDatabase, CategoryDeployment}, cats)
}

func TestToolProfileValidate(t *testing.T) {
	valid := ToolProfile{
		ID:         "postgres",
		Name:       "PostgreSQL",
		Category:   CategoryDatabase,
		SkillLevel: SkillLevel{Setup: 2, Daily: 2},
		Popularity: 90,
	}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(*ToolProfile)
	}{
		{name: "missing id", mutate: func(p *ToolProfile) { p.ID = "" }},
		{name: "missing name", mutate: func(p *ToolProfile) { p.Name = " " }},
		{name: "unknown category", mutate: func(p *ToolProfile) { p.Category = "Spreadsheet" }},
		{name: "popularity too high", mutate: func(p *ToolProfile) { p.Popularity = 101 }},
		{name: "setup effort zero", mutate: func(p *ToolProfile) { p.SkillLevel.Setup = 0 }},
		{name: "daily effort too high", mutate: func(p *ToolProfile) { p.SkillLevel.Daily = 4 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestParseComplexity(t *testing.T) {
	for in, want := range map[string]Complexity{"low": ComplexityLow, "Medium": ComplexityModerate, " HIGH ": ComplexityHigh} {
		got, err := ParseComplexity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseComplexity("extreme")
	assert.Error(t, err)
}

func TestSkillProfileNormalize(t *testing.T) {
	assert.Equal(t, SkillBeginner, SkillBeginner.Normalize())
	assert.Equal(t, SkillExpert, SkillExpert.Normalize())
	assert.Equal(t, SkillModerate, SkillProfile(0).Normalize())
	assert.Equal(t, SkillModerate, SkillProfile(7).Normalize())
	assert.Equal(t, "Expert", SkillExpert.String())
}

func TestNeutralAnalysis(t *testing.T) {
	a := NeutralAnalysis()
	assert.Empty(t, a.Features)
	assert.Empty(t, a.Technologies)
	assert.NotNil(t, a.Features)
	assert.Equal(t, ComplexityModerate, a.Complexity)
}
