package googleauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/lifesort/internal/common"
	"google.golang.org/api/googleapi"
)

// ClassifyError prepares a Google API error for common.WithRetry: throttling
// maps to common.ErrRateLimit, server faults stay retryable and every other
// API error is permanent.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return err
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
