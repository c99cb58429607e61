package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/boardroom/internal/models"
)

var (
	// ErrFatalAPI marks provider errors that will not go away on retry
	// (billing, quota, credentials).
	ErrFatalAPI = errors.New("fatal API error")

	// ErrRateLimited is returned when the local request budget is exhausted.
	ErrRateLimited = errors.New("completion rate limit reached")

	// ErrUnavailable is returned when no backend is configured for a tier.
	ErrUnavailable = errors.New("completion backend unavailable")
)

// CompletionError describes a failed completion call.
type CompletionError struct {
	Model string
	Tier  models.ModelTier
	Err   error
}

func (e *CompletionError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("completion (%s): %v", e.Tier, e.Err)
	}
	return fmt.Sprintf("completion %s (%s): %v", e.Model, e.Tier, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"invalid x-api-key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
