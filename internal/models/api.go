package models

type TriageRequest struct {
	PatientCase
}

type TriageResponse struct {
	Text       string   `json:"text"`
	Tier       string   `json:"tier"`
	BothFailed bool     `json:"both_failed"`
	Documents  int      `json:"documents"`
	Chunks     int      `json:"chunks"`
	Sources    []string `json:"sources"`
	RequestID  string   `json:"request_id"`
}

type ClassifyRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

type ClassifyResponse struct {
	Text       string `json:"text"`
	Specialty  string `json:"specialty"`
	Matched    bool   `json:"matched"`
	Tier       string `json:"tier"`
	BothFailed bool   `json:"both_failed"`
	RequestID  string `json:"request_id"`
}

type LiteratureResult struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
	Text   string `json:"text,omitempty"`
}

type LiteratureResponse struct {
	Query     string             `json:"query"`
	Documents []LiteratureResult `json:"documents"`
	Total     int                `json:"total"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
