package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kova98/postharvester/models"
)

// APIError is a request reddit rejected: rate limiting, a private, banned or
// missing subreddit, or any other 4xx answer. Callers treat it as a reason
// to skip the subreddit rather than abort.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
	// RateLimitReset is how long until reddit resets the rate limit window,
	// zero when the response did not say.
	RateLimitReset time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("reddit rejected request: status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.RateLimitReset > 0 {
		msg += fmt.Sprintf(", rate limit resets in %s", e.RateLimitReset)
	}
	return msg
}

func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRejection reports whether err wraps an *APIError.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func statusError(resp *http.Response, body []byte) error {
	if resp.StatusCode < 400 || resp.StatusCode >= 500 {
		return fmt.Errorf("reddit returned status %d: %s", resp.StatusCode, truncate(string(body)))
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload models.RedditError
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Reason = payload.Reason
	}

	if reset := resp.Header.Get("X-Ratelimit-Reset"); reset != "" {
		if seconds, err := strconv.ParseFloat(reset, 64); err == nil {
			apiErr.RateLimitReset = time.Duration(seconds * float64(time.Second))
		}
	}

	return apiErr
}

func truncate(msg string) string {
	if len(msg) > 300 {
		return msg[:300] + "..."
	}
	return msg
}
