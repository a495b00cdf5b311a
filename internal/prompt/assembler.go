package prompt

import (
	"fmt"
	"strings"

	"github.com/edtriage/backend/internal/models"
)

// ContextChunk is a passage placed in the prompt with its PubMed id.
type ContextChunk struct {
	Text     string
	SourceID string
}

// Assemble renders the triage prompt. Output depends only on the inputs; every
// patient field line is present even when the value is empty.
func Assemble(patient models.PatientCase, context []ContextChunk) string {
	var b strings.Builder

	b.WriteString(triageInstructions)
	b.WriteString("\nPatient details:\n")
	fmt.Fprintf(&b, "- Symptoms: %s\n", patient.Symptoms)
	fmt.Fprintf(&b, "- Vitals: %s\n", patient.Vitals)
	fmt.Fprintf(&b, "- Age: %s\n", patient.Age)
	fmt.Fprintf(&b, "- Weight: %s\n", patient.Weight)
	fmt.Fprintf(&b, "- Past Medical History: %s\n", patient.PastMedicalHistory)
	fmt.Fprintf(&b, "- Last Known Well: %s\n", patient.LastKnownWell)
	fmt.Fprintf(&b, "- Physical Exam Findings: %s\n", patient.ExamFindings)

	b.WriteString("\n")
	b.WriteString(literatureHeader)
	b.WriteString("\n")
	b.WriteString(LiteratureSection(context))
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)

	return b.String()
}

// LiteratureSection renders chunks as "<text>\n[PMID: <id>]" blocks separated
// by blank lines, or the no-literature marker.
func LiteratureSection(context []ContextChunk) string {
	if len(context) == 0 {
		return NoLiteratureMarker
	}

	blocks := make([]string, 0, len(context))
	for _, chunk := range context {
		id := chunk.SourceID
		if id == "" {
			id = "unknown"
		}
		blocks = append(blocks, fmt.Sprintf("%s\n[PMID: %s]", strings.TrimSpace(chunk.Text), id))
	}
	return strings.Join(blocks, "\n\n")
}

// AssembleClassification renders the specialty classification prompt.
func AssembleClassification(symptoms string, specialties []string) string {
	return fmt.Sprintf(classificationTemplate, strings.Join(specialties, ", "), symptoms)
}

// SourceIDs returns the distinct ids cited by context in first-seen order.
func SourceIDs(context []ContextChunk) []string {
	seen := make(map[string]bool, len(context))
	ids := make([]string, 0, len(context))
	for _, chunk := range context {
		if chunk.SourceID == "" || seen[chunk.SourceID] {
			continue
		}
		seen[chunk.SourceID] = true
		ids = append(ids, chunk.SourceID)
	}
	return ids
}
