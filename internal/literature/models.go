package literature

import "fmt"

// Document is one retrieved abstract keyed by its PubMed id.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ESearchResponse is the JSON envelope returned by esearch.fcgi.
type ESearchResponse struct {
	Result *ESearchResult `json:"esearchresult"`
}

type ESearchResult struct {
	Count  string   `json:"count"`
	RetMax string   `json:"retmax"`
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR,omitempty"`
}

// Validate rejects envelopes that lack the fields the pipeline depends on.
func (r *ESearchResponse) Validate() error {
	if r.Result == nil {
		return fmt.Errorf("esearch response missing esearchresult")
	}
	if r.Result.Error != "" {
		return fmt.Errorf("esearch error: %s", r.Result.Error)
	}
	if r.Result.IDList == nil {
		return fmt.Errorf("esearch response missing idlist")
	}
	return nil
}

// FetchResult is the outcome of fetching a single id. Index is the position
// of the id in the search result.
type FetchResult struct {
	Index int
	ID    string
	Text  string
	Err   error
}
