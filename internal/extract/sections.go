package extract

import (
	"strings"
)

// sectionKind enumerates the heading families the extractor understands.
// Section boundaries are an explicit state machine over heading keywords:
// the first occurrence of a heading opens its section, the next recognized
// heading (of any kind) closes it, and a repeated heading kind never
// re-opens a section that was already captured.
type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionSummary
	sectionExperience
	sectionEducation
	sectionSkills
	sectionCertifications
	sectionLanguages
	sectionProjects
)

// headingKeyword maps a lowercase heading phrase to its section kind.
// Longer phrases are listed first so "work experience" is not shadowed
// by "experience".
type headingKeyword struct {
	phrase string
	kind   sectionKind
}

var headingKeywords = []headingKeyword{
	{"professional experience", sectionExperience},
	{"professional summary", sectionSummary},
	{"academic background", sectionEducation},
	{"technical skills", sectionSkills},
	{"work experience", sectionExperience},
	{"work history", sectionExperience},
	{"certifications", sectionCertifications},
	{"certification", sectionCertifications},
	{"certificates", sectionCertifications},
	{"certificate", sectionCertifications},
	{"technologies", sectionSkills},
	{"employment", sectionExperience},
	{"experience", sectionExperience},
	{"education", sectionEducation},
	{"objective", sectionSummary},
	{"languages", sectionLanguages},
	{"expertise", sectionSkills},
	{"projects", sectionProjects},
	{"summary", sectionSummary},
	{"profile", sectionSummary},
	{"skills", sectionSkills},
	{"about", sectionSummary},
	{"tools", sectionSkills},
}

// headingFor reports whether line is a recognized section heading.
// A heading is either the bare keyword phrase or the phrase followed by a
// colon; in the latter case any trailing text on the line becomes the first
// chunk of the section body ("Skills: Go, Python").
func headingFor(line string) (sectionKind, string, bool) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	for _, kw := range headingKeywords {
		if lower == kw.phrase {
			return kw.kind, "", true
		}
		if strings.HasPrefix(lower, kw.phrase) {
			rest := trimmed[len(kw.phrase):]
			if strings.HasPrefix(rest, ":") {
				return kw.kind, strings.TrimSpace(rest[1:]), true
			}
		}
	}
	return sectionNone, "", false
}

// sections holds the first-occurrence body of each recognized section.
type sections map[sectionKind]string

func (s sections) get(k sectionKind) string { return s[k] }

func (s sections) has(k sectionKind) bool {
	_, ok := s[k]
	return ok
}

// splitSections walks the text line by line, tracking the current section
// state. Content before any heading belongs to no section; content after a
// repeated heading kind is discarded rather than re-opening the section.
func splitSections(text string) sections {
	out := sections{}
	bodies := map[sectionKind]*strings.Builder{}
	current := sectionNone
	discard := false
	for _, line := range strings.Split(text, "\n") {
		if kind, rest, ok := headingFor(line); ok {
			if _, seen := bodies[kind]; seen {
				// Closed for good; swallow until the next fresh heading.
				current, discard = kind, true
				continue
			}
			b := &strings.Builder{}
			bodies[kind] = b
			current, discard = kind, false
			if rest != "" {
				b.WriteString(rest)
			}
			continue
		}
		if current == sectionNone || discard {
			continue
		}
		b := bodies[current]
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	for k, b := range bodies {
		out[k] = strings.TrimSpace(b.String())
	}
	return out
}
