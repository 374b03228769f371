package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// errorBody covers the error shapes the backend has used over time.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	for _, msg := range []string{body.Detail, body.Message, body.Error} {
		if msg = strings.TrimSpace(msg); msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}
