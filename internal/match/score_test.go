package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

func TestTokenize_KeepsCompoundTokens(t *testing.T) {
	t.Parallel()
	got := Tokenize("C++ and Node.js, also C# (v2)")
	assert.Equal(t, []string{"c++", "and", "node.js", "also", "c#", "v2"}, got)
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	t.Parallel()
	got := Tokenize("a b go R")
	assert.Equal(t, []string{"go"}, got)
}

func TestScore_EmptyRecordNoJobDescription(t *testing.T) {
	t.Parallel()
	res := Score(domain.ResumeRecord{}, "")
	assert.Equal(t, 50, res.Score)
	require.NotEmpty(t, res.Reasons)
}

func TestScore_CompletenessAccumulates(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{
		Contact: domain.Contact{Email: "j@x.io", Phone: "555-123-4567"},
		Skills:  []string{"Go", "SQL", "Docker"},
		Experience: []domain.ExperienceEntry{
			{Title: "Engineer"},
			{Title: "Senior Engineer"},
		},
	}
	res := Score(rec, "  ")
	// 50 + 10 email + 5 phone + 6 skills + 10 experience.
	assert.Equal(t, 81, res.Score)
}

func TestScore_CompletenessCaps(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{
		Contact: domain.Contact{Email: "j@x.io", Phone: "555-123-4567"},
		Skills:  make([]string, 30),
	}
	for i := range rec.Skills {
		rec.Skills[i] = "skill"
	}
	for i := 0; i < 10; i++ {
		rec.Experience = append(rec.Experience, domain.ExperienceEntry{})
	}
	res := Score(rec, "")
	assert.Equal(t, 100, res.Score)
}

func TestScore_FullOverlapIsHundred(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{Skills: []string{"python", "sql"}}
	res := Score(rec, "python sql python")
	assert.Equal(t, 100, res.Score)
	assert.Contains(t, res.Reasons, "Token overlap 2 / 2")
	assert.Contains(t, res.Reasons, "No seniority bonus")
}

func TestScore_PartialOverlapFloors(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{Skills: []string{"python", "sql", "docker"}}
	res := Score(rec, "we want python developers")
	// 1 of 3 distinct tokens, floored.
	assert.Equal(t, 33, res.Score)
	assert.Contains(t, res.Reasons, "Token overlap 1 / 3")
}

func TestScore_SeniorityBonus(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{
		Skills:  []string{"go"},
		Summary: "optimization production scale",
	}
	res := Score(rec, "go production scale optimiz lead")
	// Overlap: go, production, scale = 3 of 4 distinct resume tokens -> 75.
	// Bonus: production, scale, optimiz (stem hit on "optimization") -> +6.
	assert.Equal(t, 81, res.Score)
	assert.Contains(t, res.Reasons, "Seniority bonus applied")
}

func TestScore_BonusNeverExceedsHundred(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{
		Skills: []string{"lead", "production", "scale", "performance", "architecture"},
	}
	res := Score(rec, "lead production scale performance architecture")
	assert.Equal(t, 100, res.Score)
}

func TestScore_BulletsContributeTokens(t *testing.T) {
	t.Parallel()
	rec := domain.ResumeRecord{
		Experience: []domain.ExperienceEntry{
			{Bullets: []string{"built kafka pipelines"}},
		},
	}
	res := Score(rec, "kafka pipelines experience")
	assert.Contains(t, res.Reasons, "Token overlap 2 / 3")
	assert.Equal(t, 66, res.Score)
}

func TestScore_ZeroResumeTokensWithJobDescription(t *testing.T) {
	t.Parallel()
	res := Score(domain.ResumeRecord{Contact: domain.Contact{Email: "j@x.io"}}, "python sql")
	assert.Equal(t, 50, res.Score)
	assert.Contains(t, res.Reasons, "Token overlap 0 / 0")
}
