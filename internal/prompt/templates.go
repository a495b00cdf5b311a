package prompt

// System instructions sent with every model request.
const (
	TriageSystemPrompt   = "You are a helpful emergency medicine AI assistant."
	ClassifySystemPrompt = "You are a helpful medical triage assistant."
)

// NoLiteratureMarker stands in for the literature section when retrieval
// produced no context.
const NoLiteratureMarker = "❗ no relevant literature found on PubMed."

const triageInstructions = `You are an emergency triage AI. Given the following patient info, return:

1. Top 3 differentials (w/ % likelihood)
2. Immediate stabilization steps
3. Meds/fluids + dosages
4. Consults
5. Labs/Imaging required
6. Evidence-based justification (landmark studies, guidelines, or standard practices). Cite PMIDs when possible.
`

const literatureHeader = "Here are relevant PubMed Abstracts:"

const closingInstruction = "Be concise, clear, and structured in your response."

const classificationTemplate = `Based on the following patient symptoms, identify the most appropriate medical specialty from this list:
%s.

Symptoms: "%s"

Only return the specialty name.`
