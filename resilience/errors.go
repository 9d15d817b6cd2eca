package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimitExceeded is returned when a key has used every slot in its
// current window.
var ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

// ResetLayout formats window reset times: UTC with millisecond precision.
const ResetLayout = "2006-01-02T15:04:05.000Z07:00"

// LimitError describes a rejected request.
type LimitError struct {
	// Key is the rate-limited key.
	Key string

	// ResetAt is when the key's current window closes.
	ResetAt time.Time
}

// Error returns the error message. The key is omitted because it is usually
// a credential.
func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded. Try again after %s", e.ResetAt.UTC().Format(ResetLayout))
}

// Is reports whether this error matches the target.
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}
