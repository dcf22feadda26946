package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"google.golang.org/api/googleapi"
)

// classifyAPIError tells common.WithRetry how to treat a Sheets API failure.
// Throttling becomes ErrRateLimit, other client errors are permanent and
// everything else stays retryable.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusRequestTimeout:
		return common.Permanent(err)
	default:
		return err
	}
}
