package models

import "strings"

// PatientCase holds the free-text fields collected by the intake form. Every
// field is optional; an empty field renders as empty in the prompt.
type PatientCase struct {
	Symptoms           string `json:"symptoms"`
	Vitals             string `json:"vitals"`
	Age                string `json:"age"`
	Weight             string `json:"weight"`
	PastMedicalHistory string `json:"past_medical_history"`
	LastKnownWell      string `json:"last_known_well"`
	ExamFindings       string `json:"exam_findings"`
}

// SearchQuery is the literature query for the case: symptoms followed by
// history, trimmed.
func (p PatientCase) SearchQuery() string {
	return strings.TrimSpace(p.Symptoms + " " + p.PastMedicalHistory)
}

// IsEmpty reports whether no field carries any text.
func (p PatientCase) IsEmpty() bool {
	return strings.TrimSpace(p.Symptoms+p.Vitals+p.Age+p.Weight+
		p.PastMedicalHistory+p.LastKnownWell+p.ExamFindings) == ""
}

// Run modes recorded for auditing.
const (
	ModeTriage   = "triage"
	ModeClassify = "classify"
)
