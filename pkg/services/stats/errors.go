package stats

import "fmt"

// FetchError is returned when the statistics API answers with a non-200
// status or with a body that is not valid JSON.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse statistics response: %v", e.Err)
	}
	return fmt.Sprintf("statistics api returned status %d: %s", e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsParseFailure reports whether the response arrived but could not be decoded.
func (e *FetchError) IsParseFailure() bool {
	return e.Err != nil
}
