// Package scorecard wraps the external institution-data API with rate
// limiting and bounded retry so long fetch passes stay inside the provider's
// quota.
package scorecard

import "fmt"

// Envelope is the API's paginated response shape.
type Envelope struct {
	Metadata Metadata         `json:"metadata"`
	Results  []map[string]any `json:"results"`
}

// Metadata carries pagination bookkeeping.
type Metadata struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// HTTPError is a non-retryable, non-2xx, non-429 response. The affected
// institution's remote fields stay absent; the batch continues.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("scorecard: http %d from %s", e.Status, e.URL)
}
