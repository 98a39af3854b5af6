package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	"github.com/wordbridge/linguameter/internal/docstore"
	identitydomain "github.com/wordbridge/linguameter/internal/identity/domain"
	translatedomain "github.com/wordbridge/linguameter/internal/translate/domain"
	"github.com/wordbridge/linguameter/internal/translator"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware renders the last handler error as a JSON
// envelope. Quota denials get their own category so clients can offer a
// degraded experience instead of a generic failure screen.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthenticated",
			Message: "user must be authenticated",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, translatedomain.ErrInvalidRequest),
		errors.Is(err, identitydomain.ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_argument",
			Message: "missing or malformed request parameters",
		}
	case errors.Is(err, contingentdomain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "resource_exhausted",
			Message: "translation contingent exceeded",
		}
	case errors.Is(err, docstore.ErrUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "unavailable",
			Message: "persistence temporarily unavailable",
		}
	case errors.Is(err, translator.ErrProvider):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: "translation provider failed",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger; it mirrors mapError
// without rendering anything.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, errorCode(err)
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
