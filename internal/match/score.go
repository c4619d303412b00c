// Package match scores a validated resume against a job description with a
// token-overlap heuristic and a seniority-signal bonus.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// tokenRe keeps "+ # . -" as internal characters so tokens like "c++" and
// "node.js" survive tokenization.
var tokenRe = regexp.MustCompile(`[a-zA-Z+#.-]{2,}`)

// seniorityHints are score-boosting signals counted when a term is a job
// description token and also occurs anywhere in the resume's lowercase text.
// "optimiz" is a deliberate stem so it hits optimize/optimized/optimization.
var seniorityHints = []string{
	"lead", "mentor", "ownership", "production",
	"scale", "performance", "optimiz", "architecture",
}

const (
	neutralScore    = 50
	emailBonus      = 10
	phoneBonus      = 5
	perSkill        = 2
	skillCap        = 20
	perExperience   = 5
	experienceCap   = 15
	perSeniorityHit = 2
)

// Tokenize lowercases and extracts tokens of length >= 2.
func Tokenize(text string) []string {
	raw := tokenRe.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, w := range raw {
		out[i] = strings.ToLower(w)
	}
	return out
}

func tokenSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, t := range Tokenize(text) {
		set[t] = true
	}
	return set
}

// Score rates a resume 0-100 against a job description. With an empty job
// description it falls back to a completeness score driven by contact info,
// skill count and experience count.
func Score(rec domain.ResumeRecord, jobDescription string) domain.MatchResult {
	if strings.TrimSpace(jobDescription) == "" {
		return completenessScore(rec)
	}
	return overlapScore(rec, jobDescription)
}

func completenessScore(rec domain.ResumeRecord) domain.MatchResult {
	score := neutralScore
	reasons := []string{"No job description supplied"}
	if rec.Contact.Email != "" {
		score += emailBonus
		reasons = append(reasons, "Email present")
	}
	if rec.Contact.Phone != "" {
		score += phoneBonus
		reasons = append(reasons, "Phone present")
	}
	if n := len(rec.Skills); n > 0 {
		score += min(n*perSkill, skillCap)
		reasons = append(reasons, fmt.Sprintf("%d skills listed", n))
	}
	if n := len(rec.Experience); n > 0 {
		score += min(n*perExperience, experienceCap)
		reasons = append(reasons, fmt.Sprintf("%d experience entries", n))
	}
	return domain.MatchResult{Score: min(score, 100), Reasons: reasons}
}

func overlapScore(rec domain.ResumeRecord, jobDescription string) domain.MatchResult {
	jdTokens := tokenSet(jobDescription)
	resumeTokens := tokenSet(resumeTokenText(rec))

	overlap := 0
	for t := range resumeTokens {
		if jdTokens[t] {
			overlap++
		}
	}

	bonusHits := 0
	blob := strings.ToLower(resumeBlobText(rec))
	for _, hint := range seniorityHints {
		if jdTokens[hint] && strings.Contains(blob, hint) {
			bonusHits++
		}
	}

	reasons := []string{fmt.Sprintf("Token overlap %d / %d", overlap, len(resumeTokens))}
	if bonusHits > 0 {
		reasons = append(reasons, "Seniority bonus applied")
	} else {
		reasons = append(reasons, "No seniority bonus")
	}

	if len(resumeTokens) == 0 {
		return domain.MatchResult{Score: neutralScore, Reasons: reasons}
	}
	base := overlap * 100 / len(resumeTokens)
	score := min(base+bonusHits*perSeniorityHit, 100)
	return domain.MatchResult{Score: score, Reasons: reasons}
}

// resumeTokenText feeds the overlap ratio: skills, summary and bullets.
func resumeTokenText(rec domain.ResumeRecord) string {
	parts := []string{strings.Join(rec.Skills, " "), rec.Summary}
	for _, exp := range rec.Experience {
		parts = append(parts, strings.Join(exp.Bullets, " "))
	}
	return strings.Join(parts, " ")
}

// resumeBlobText feeds the seniority substring check.
func resumeBlobText(rec domain.ResumeRecord) string {
	parts := []string{rec.Summary, strings.Join(rec.Skills, " ")}
	for _, exp := range rec.Experience {
		parts = append(parts, strings.Join(exp.Bullets, " "))
	}
	return strings.Join(parts, " ")
}
