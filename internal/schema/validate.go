// Package schema is the single trust boundary for candidate records. Both the
// heuristic extractor and the LLM parse path produce untyped maps; everything
// downstream consumes only records that passed Validate.
package schema

import (
	"fmt"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// Validate checks an untyped candidate record against the fixed resume schema
// and converts it into a typed record. Absent fields are fine; a present field
// with the wrong type rejects the whole record. The returned error names the
// first offending field path and wraps domain.ErrSchemaInvalid. Keys outside
// the schema are ignored.
func Validate(v any) (domain.ResumeRecord, error) {
	var rec domain.ResumeRecord
	root, ok := v.(map[string]any)
	if !ok {
		return rec, pathErr("$", "object", v)
	}

	if raw, present := root["contact"]; present {
		c, err := validateContact(raw)
		if err != nil {
			return rec, err
		}
		rec.Contact = c
	}
	if raw, present := root["summary"]; present {
		s, ok := raw.(string)
		if !ok {
			return rec, pathErr("summary", "string", raw)
		}
		rec.Summary = s
	}

	var err error
	if rec.Skills, err = optStringList(root, "skills"); err != nil {
		return rec, err
	}
	if rec.Certifications, err = optStringList(root, "certifications"); err != nil {
		return rec, err
	}
	if rec.Languages, err = optStringList(root, "languages"); err != nil {
		return rec, err
	}
	if rec.Experience, err = validateExperience(root); err != nil {
		return rec, err
	}
	if rec.Education, err = validateEducation(root); err != nil {
		return rec, err
	}
	return rec, nil
}

func validateContact(raw any) (domain.Contact, error) {
	var c domain.Contact
	m, ok := raw.(map[string]any)
	if !ok {
		return c, pathErr("contact", "object", raw)
	}
	var err error
	if c.FullName, err = optString(m, "fullName", "contact"); err != nil {
		return c, err
	}
	if c.Email, err = optString(m, "email", "contact"); err != nil {
		return c, err
	}
	if c.Phone, err = optString(m, "phone", "contact"); err != nil {
		return c, err
	}
	if c.Location, err = optString(m, "location", "contact"); err != nil {
		return c, err
	}
	return c, nil
}

func validateExperience(root map[string]any) ([]domain.ExperienceEntry, error) {
	raw, present := root["experience"]
	if !present {
		return nil, nil
	}
	items, err := anyList(raw, "experience")
	if err != nil {
		return nil, err
	}
	entries := make([]domain.ExperienceEntry, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("experience[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, pathErr(path, "object", item)
		}
		var e domain.ExperienceEntry
		if e.Title, err = optString(m, "title", path); err != nil {
			return nil, err
		}
		if e.Company, err = optString(m, "company", path); err != nil {
			return nil, err
		}
		if e.Location, err = optString(m, "location", path); err != nil {
			return nil, err
		}
		if e.StartDate, err = optString(m, "startDate", path); err != nil {
			return nil, err
		}
		if e.EndDate, err = optString(m, "endDate", path); err != nil {
			return nil, err
		}
		if rawBullets, ok := m["bullets"]; ok {
			if e.Bullets, err = stringList(rawBullets, path+".bullets"); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func validateEducation(root map[string]any) ([]domain.EducationEntry, error) {
	raw, present := root["education"]
	if !present {
		return nil, nil
	}
	items, err := anyList(raw, "education")
	if err != nil {
		return nil, err
	}
	entries := make([]domain.EducationEntry, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("education[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, pathErr(path, "object", item)
		}
		var e domain.EducationEntry
		if e.Degree, err = optString(m, "degree", path); err != nil {
			return nil, err
		}
		if e.Institution, err = optString(m, "institution", path); err != nil {
			return nil, err
		}
		if e.Field, err = optString(m, "field", path); err != nil {
			return nil, err
		}
		if e.StartDate, err = optString(m, "startDate", path); err != nil {
			return nil, err
		}
		if e.EndDate, err = optString(m, "endDate", path); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// optString reads an optional string field; a present non-string rejects.
func optString(m map[string]any, key, parent string) (string, error) {
	raw, present := m[key]
	if !present {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", pathErr(parent+"."+key, "string", raw)
	}
	return s, nil
}

func optStringList(root map[string]any, key string) ([]string, error) {
	raw, present := root[key]
	if !present {
		return nil, nil
	}
	return stringList(raw, key)
}

// stringList accepts either []string directly or a JSON-decoded []any whose
// elements are all strings.
func stringList(raw any, path string) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, pathErr(fmt.Sprintf("%s[%d]", path, i), "string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, pathErr(path, "list of strings", raw)
	}
}

func anyList(raw any, path string) ([]any, error) {
	v, ok := raw.([]any)
	if !ok {
		return nil, pathErr(path, "list of objects", raw)
	}
	return v, nil
}

func pathErr(path, want string, got any) error {
	return fmt.Errorf("schema: field %s: expected %s, got %T: %w", path, want, got, domain.ErrSchemaInvalid)
}
