package domain

import "strings"

// SearchBlob flattens a validated resume into the single text blob used as
// embedding input. The concatenation order is fixed and the output is
// byte-stable for identical input: embeddings are cached against this blob,
// so any ordering change would silently invalidate every cache entry.
func SearchBlob(r ResumeRecord) string {
	parts := make([]string, 0, 16)
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	add(r.Contact.FullName)
	add(r.Contact.Location)
	add(r.Summary)
	for _, s := range r.Skills {
		add(s)
	}
	for _, e := range r.Experience {
		add(e.Title)
		add(e.Company)
		add(e.Location)
		for _, b := range e.Bullets {
			add(b)
		}
	}
	for _, e := range r.Education {
		add(e.Degree)
		add(e.Field)
		add(e.Institution)
	}
	return strings.Join(parts, "\n")
}
