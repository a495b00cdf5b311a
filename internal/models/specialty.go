package models

import "strings"

// Specialties is the fixed list a classification must resolve to.
var Specialties = []string{
	"Cardiology",
	"Pulmonology",
	"Neurology",
	"Dermatology",
	"Gastroenterology",
	"Endocrinology",
	"Psychiatry",
	"Orthopedics",
	"OB/GYN",
	"Urology",
}

// NormalizeSpecialty maps a free-form completion to a list member. An exact
// case-insensitive match wins; otherwise the member mentioned earliest in the
// text is used. ok is false when no member appears.
func NormalizeSpecialty(completion string) (specialty string, ok bool) {
	cleaned := strings.Trim(strings.TrimSpace(completion), "*.\"'` ")
	for _, s := range Specialties {
		if strings.EqualFold(cleaned, s) {
			return s, true
		}
	}

	lower := strings.ToLower(completion)
	best := -1
	for _, s := range Specialties {
		if i := strings.Index(lower, strings.ToLower(s)); i >= 0 && (best < 0 || i < best) {
			best = i
			specialty = s
		}
	}
	if best < 0 {
		return "", false
	}
	return specialty, true
}
