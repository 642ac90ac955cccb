package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// experienceLevels maps lowered model output to the canonical enum form.
var experienceLevels = map[string]string{
	"internship":  ExperienceInternship,
	"intern":      ExperienceInternship,
	"entry level": ExperienceEntry,
	"entry-level": ExperienceEntry,
	"entry":       ExperienceEntry,
	"junior":      ExperienceJunior,
	"mid level":   ExperienceMid,
	"mid-level":   ExperienceMid,
	"mid":         ExperienceMid,
	"senior":      ExperienceSenior,
	"lead":        ExperienceLead,
	"manager":     ExperienceManager,
}

// NormalizePosting converts a decoded model payload into a JobPosting. It is
// total: string fields default to "", numeric fields to 0, boolean fields to
// false, and list fields accept either an array or a comma-delimited string.
// Nothing the model omits or mangles survives as a null.
func NormalizePosting(raw map[string]any) JobPosting {
	p := JobPosting{
		Title:              stringField(raw, "title", "role_title"),
		CompanyName:        stringField(raw, "company_name", "company"),
		Location:           stringField(raw, "location"),
		Description:        stringField(raw, "description"),
		ExperienceLevel:    canonicalExperience(stringField(raw, "experience_level", "experienceLevel")),
		Salary:             intField(raw, "salary"),
		SalaryMax:          intField(raw, "salary_max", "salaryMax"),
		HoursPerWeek:       intField(raw, "hours_per_week", "hoursPerWeek"),
		H1BVisaSponsorship: boolField(raw, "h1b_visa_sponsorship", "H1BVisaSponsorship"),
		IsRemote:           boolField(raw, "is_remote", "IsRemote", "remote"),
		Relocation:         boolField(raw, "relocation", "Relocation"),
		Skills:             listField(raw, "skills"),
		Tags:               listField(raw, "tags"),
		Benefits:           listField(raw, "benefits"),
		Logo:               stringField(raw, "logo"),
	}
	if p.Logo == "" && p.CompanyName != "" {
		p.Logo = fmt.Sprintf("/src/%slogo.png", companySlug(p.CompanyName))
	}
	return p
}

// Skipped reports whether the model flagged the posting as out of the target
// domain instead of extracting it.
func Skipped(raw map[string]any) bool {
	if v, ok := raw["skipped"]; ok {
		if b, ok := v.(bool); ok && b {
			return true
		}
		if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "true") {
			return true
		}
	}
	if v, ok := raw["is_software_job"]; ok {
		if b, ok := v.(bool); ok && !b {
			return true
		}
	}
	return false
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func intField(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case string:
			// models occasionally quote numbers or attach currency noise
			cleaned := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, n)
			if cleaned == "" {
				continue
			}
			if parsed, err := strconv.Atoi(cleaned); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func boolField(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return strings.EqualFold(strings.TrimSpace(b), "true")
		}
	}
	return false
}

func listField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch list := v.(type) {
		case string:
			return joinParts(strings.Split(list, ","))
		case []any:
			parts := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				} else {
					parts = append(parts, fmt.Sprintf("%v", item))
				}
			}
			return joinParts(parts)
		}
	}
	return ""
}

func joinParts(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func canonicalExperience(s string) string {
	if s == "" {
		return ""
	}
	if canonical, ok := experienceLevels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return canonical
	}
	return strings.TrimSpace(s)
}

func companySlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
