package helpers

import (
	"encoding/json"
	"fmt"
)

type ErrorCause struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	IndexUUID string `json:"index_uuid,omitempty"`
	Index     string `json:"index,omitempty"`
}

// ElasticsearchError is the error body returned by Elasticsearch and
// OpenSearch for failed requests.
type ElasticsearchError struct {
	Cause struct {
		ErrorCause
		RootCause []ErrorCause `json:"root_cause"`
	} `json:"error"`
	Status int `json:"status"`
}

var _ error = (*ElasticsearchError)(nil)

func (e *ElasticsearchError) Error() string {
	if e.Cause.Index != "" {
		return fmt.Sprintf("elasticsearch error [%d] %s: %s (index %s)", e.Status, e.Cause.Type, e.Cause.Reason, e.Cause.Index)
	}
	return fmt.Sprintf("elasticsearch error [%d] %s: %s", e.Status, e.Cause.Type, e.Cause.Reason)
}

// ParseErrorResponse parses the JSON response and checks for the error schema.
func ParseErrorResponse(jsonData []byte) (*ElasticsearchError, bool) {
	var esError ElasticsearchError
	if err := json.Unmarshal(jsonData, &esError); err != nil {
		return nil, false
	}
	if esError.Status == 0 {
		return nil, false
	}
	return &esError, true
}
