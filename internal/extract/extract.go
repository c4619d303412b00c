// Package extract implements the heuristic resume field extractor.
//
// Extraction never fails: a field that cannot be found is simply absent from
// the produced candidate record. The output is untyped and untrusted; it must
// pass through the schema validator before anything downstream consumes it.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
	"github.com/fairyhunter13/resume-ranker/pkg/textx"
)

const summaryMaxLen = 500

// Extract parses raw resume text into an untyped candidate record.
func Extract(rawText string) domain.CandidateRecord {
	secs := splitSections(rawText)
	cand := domain.CandidateRecord{
		"contact":        extractContact(rawText),
		"skills":         extractSkills(rawText, secs),
		"experience":     extractExperience(secs),
		"education":      extractEducation(secs),
		"certifications": extractCertifications(secs),
		"languages":      extractLanguages(rawText),
	}
	if s, ok := extractSummary(secs); ok {
		cand["summary"] = s
	}
	return cand
}

// PopulatedFieldCount reports how many top-level candidate fields actually
// carry content. Every extraction produces the same key set, so key count
// alone cannot distinguish an empty extraction from a full one.
func PopulatedFieldCount(cand domain.CandidateRecord) int {
	n := 0
	for _, v := range cand {
		switch t := v.(type) {
		case map[string]any:
			if len(t) > 0 {
				n++
			}
		case []any:
			if len(t) > 0 {
				n++
			}
		case []string:
			if len(t) > 0 {
				n++
			}
		case string:
			if strings.TrimSpace(t) != "" {
				n++
			}
		}
	}
	return n
}

// extractContact pulls email, phone, social handles, full name and location.
// Only found fields are present in the returned map.
func extractContact(text string) map[string]any {
	contact := map[string]any{}
	if m := emailRe.FindString(text); m != "" {
		contact["email"] = m
	}
	if v, _, ok := firstMatch(phoneStrategies, text); ok {
		contact["phone"] = v
	}
	if m := linkedinRe.FindStringSubmatch(text); m != nil {
		contact["linkedin"] = "https://linkedin.com/in/" + m[1]
	}
	if m := githubRe.FindStringSubmatch(text); m != nil {
		contact["github"] = "https://github.com/" + m[1]
	}
	if name, ok := extractFullName(text); ok {
		contact["fullName"] = name
	}
	if v, _, ok := firstMatch(locationStrategies, text); ok {
		contact["location"] = v
	}
	return contact
}

// extractFullName scans only the first 5 lines. A line qualifies when it has
// no digits, none of the characters "@+().", and splits into 2 to 4 purely
// alphabetic tokens. The first qualifying line wins.
func extractFullName(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@+().0123456789") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			for _, r := range w {
				if !unicode.IsLetter(r) {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
		if ok {
			return line, true
		}
	}
	return "", false
}

// extractSkills merges two passes into a deduplicated ordered list:
// vocabulary whole-word matches first, then items split out of a labeled
// skills section (title-cased, at most three words).
func extractSkills(text string, secs sections) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, 16)
	seen := map[string]bool{}
	for _, t := range currentSkillTerms() {
		if t.re.MatchString(lower) {
			key := strings.ToLower(t.canonical)
			if !seen[key] {
				seen[key] = true
				found = append(found, t.canonical)
			}
		}
	}
	body := secs.get(sectionSkills)
	if body == "" {
		return found
	}
	for _, item := range splitListItems(body) {
		skill := titleCase(strings.TrimSpace(item))
		if skill == "" || len(strings.Fields(skill)) > 3 {
			continue
		}
		key := strings.ToLower(skill)
		if !seen[key] {
			seen[key] = true
			found = append(found, skill)
		}
	}
	return found
}

// splitListItems splits labeled-section text on commas, bullets and newlines.
func splitListItems(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', '•', '·', '-', '\n':
			return true
		}
		return false
	})
}

// titleCase uppercases the first letter of each word and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// extractExperience matches "<title> <company> <year>-<year|Present>" triples
// inside the experience section. Bullet extraction from free text is not
// attempted at this layer; every entry carries an empty bullets list.
func extractExperience(secs sections) []any {
	body := secs.get(sectionExperience)
	entries := []any{}
	if body == "" {
		return entries
	}
	for _, m := range experienceRe.FindAllStringSubmatch(body, -1) {
		end := m[4]
		if end == "Current" {
			end = "Present"
		}
		entries = append(entries, map[string]any{
			"title":     strings.Trim(strings.TrimSpace(m[1]), ","),
			"company":   strings.Trim(strings.TrimSpace(m[2]), ",."),
			"startDate": m[3],
			"endDate":   end,
			"bullets":   []any{},
		})
	}
	return entries
}

// extractEducation tries the ordered degree strategies inside the education
// section; an entry is emitted only when at least three capture groups hit.
func extractEducation(secs sections) []any {
	body := secs.get(sectionEducation)
	entries := []any{}
	if body == "" {
		return entries
	}
	for _, strat := range degreeStrategies {
		for _, m := range strat.re.FindAllStringSubmatch(body, -1) {
			if capturedGroups(m) < 3 {
				continue
			}
			e := strat.build(m)
			entry := map[string]any{
				"degree":      strings.TrimSpace(e.degree),
				"institution": strings.TrimSpace(e.institution),
			}
			if f := strings.TrimSpace(e.field); f != "" {
				entry["field"] = f
			}
			if y := strings.TrimSpace(e.year); y != "" {
				entry["endDate"] = y
			}
			entries = append(entries, entry)
		}
		if len(entries) > 0 {
			break
		}
	}
	return entries
}

// extractSummary collapses whitespace and truncates to 500 characters with an
// ellipsis marker.
func extractSummary(secs sections) (string, bool) {
	body := textx.CollapseSpaces(secs.get(sectionSummary))
	if body == "" {
		return "", false
	}
	if r := []rune(body); len(r) > summaryMaxLen {
		body = string(r[:summaryMaxLen]) + "..."
	}
	return body, true
}

// extractCertifications keeps delimiter-split items between 6 and 99
// characters long.
func extractCertifications(secs sections) []string {
	out := []string{}
	for _, item := range splitListItems(secs.get(sectionCertifications)) {
		c := strings.TrimSpace(item)
		// Bounds count characters, not bytes, so multi-byte names measure right.
		if n := utf8.RuneCountInString(c); n > 5 && n < 100 {
			out = append(out, c)
		}
	}
	return out
}

// extractLanguages matches the fixed human-language vocabulary whole-word.
func extractLanguages(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, t := range langTerms {
		if t.re.MatchString(lower) {
			out = append(out, t.canonical)
		}
	}
	return out
}
