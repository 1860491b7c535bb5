package middleware

import (
	"encoding/json"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last handler error using its hint and safe details.
// Messages of the underlying error never reach the client.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= 500 {
			log.Errorw("request failed",
				"path", c.FullPath(),
				"request_id", types.GetRequestID(c.Request.Context()),
				"status", status,
				"error", err,
			)
		}

		c.JSON(status, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    errorCode(err),
				Display: getDisplayMessage(err),
				Details: getSafeDetails(err),
			},
		})
	}
}

var codedErrors = []*ierr.InternalError{
	ierr.ErrNotFound,
	ierr.ErrAlreadyExists,
	ierr.ErrValidation,
	ierr.ErrInvalidOperation,
	ierr.ErrPermissionDenied,
	ierr.ErrHTTPClient,
	ierr.ErrDatabase,
	ierr.ErrInvalidTransition,
	ierr.ErrGatewayNotEnabled,
	ierr.ErrConfiguration,
	ierr.ErrCapabilityUnsupported,
	ierr.ErrSignature,
}

func errorCode(err error) string {
	for _, sentinel := range codedErrors {
		if errors.Is(err, sentinel) {
			return sentinel.Code
		}
	}
	return ierr.ErrCodeSystemError
}

func getDisplayMessage(err error) string {
	// GetAllHints is post-order, the first non-empty hint is the most specific
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}
	return details
}
