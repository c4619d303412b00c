package extract

import (
	"regexp"
	"strings"
)

// patternStrategy is one entry in an ordered first-match-wins chain.
// Precedence is the slice order: strategies are tried in sequence and the
// chain short-circuits on the first one that matches anywhere in the text.
type patternStrategy struct {
	name string
	re   *regexp.Regexp
}

// firstMatch runs the chain and returns the whole match of the winning
// strategy together with the strategy name.
func firstMatch(chain []patternStrategy, text string) (value, strategy string, ok bool) {
	for _, s := range chain {
		if m := s.re.FindString(text); m != "" {
			return strings.TrimSpace(m), s.name, true
		}
	}
	return "", "", false
}

// Phone: most to least specific. No cross-pattern merging.
var phoneStrategies = []patternStrategy{
	{"international", regexp.MustCompile(`\+?\d{1,3}[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)},
	{"area-code", regexp.MustCompile(`\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)},
	{"dashed", regexp.MustCompile(`\d{3}[\s.-]\d{3}[\s.-]\d{4}`)},
}

// Location: "City, ST [ZIP]" shapes, first match wins.
var locationStrategies = []patternStrategy{
	{"city-st-zip", regexp.MustCompile(`([A-Z][A-Za-z ]*),[ \t]*([A-Z]{2})[ \t]*\d{5}`)},
	{"city-st", regexp.MustCompile(`([A-Z][A-Za-z ]*),[ \t]*([A-Z]{2})\b`)},
	{"city-state-zip", regexp.MustCompile(`([A-Z][A-Za-z ]*),[ \t]*([A-Z][A-Za-z ]*)[ \t]*\d{5}`)},
}

var (
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/in/([a-zA-Z0-9-]+)`)
	githubRe   = regexp.MustCompile(`(?i)github\.com/([a-zA-Z0-9-]+)`)

	// <title phrase> <company phrase> <year>-<year|Present>
	experienceRe = regexp.MustCompile(`([A-Za-z][A-Za-z ,&]*)[ \t]+([A-Za-z][A-Za-z ,&.]*)[ \t]+(\d{4})\s*[-–]\s*(\d{4}|Present|Current)`)
)

const degreeAlt = `Bachelor|Master|PhD|Doctor|Associate|B\.?[AS]|M\.?[AS]|M\.?B\.?A|Ph\.?D`

// degreeEntry is the normalized result of one education pattern match.
type degreeEntry struct {
	degree      string
	field       string
	institution string
	year        string
}

// degreeStrategy captures education entries in one keyword order; the two
// strategies cover degree-then-institution and its mirror. A strategy only
// emits an entry when at least three capture groups are non-empty.
type degreeStrategy struct {
	name string
	re   *regexp.Regexp
	// build maps a submatch slice onto a degreeEntry.
	build func(m []string) degreeEntry
}

var degreeStrategies = []degreeStrategy{
	{
		name: "degree-first",
		re:   regexp.MustCompile(`(` + degreeAlt + `)[ \t]+(?:of[ \t]+|in[ \t]+)?([A-Za-z][A-Za-z ]*?),?[ \t]+([A-Za-z&,. ]*?(?:University|College|Institute))(?:[^\n]*?(\d{4}))?`),
		build: func(m []string) degreeEntry {
			return degreeEntry{degree: m[1], field: m[2], institution: m[3], year: m[4]}
		},
	},
	{
		name: "institution-first",
		re:   regexp.MustCompile(`([A-Za-z&,. ]*?(?:University|College|Institute))[^\n]*?(` + degreeAlt + `)([^\n]*?(\d{4}))?`),
		build: func(m []string) degreeEntry {
			return degreeEntry{institution: m[1], degree: m[2], year: m[4]}
		},
	},
}

// capturedGroups counts non-empty capture groups in a submatch slice.
func capturedGroups(m []string) int {
	n := 0
	for _, g := range m[1:] {
		if strings.TrimSpace(g) != "" {
			n++
		}
	}
	return n
}
