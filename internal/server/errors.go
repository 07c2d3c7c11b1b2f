package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	instancedomain "github.com/zapdash/zapdash/internal/instance/domain"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/providers/sessionapi"
	registrationdomain "github.com/zapdash/zapdash/internal/registration/domain"
	teardowndomain "github.com/zapdash/zapdash/internal/teardown/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware converts errors collected on the gin context into
// one JSON error response after the handler chain finished.
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orgdomain.ErrInvalidCompanyName),
		errors.Is(err, orgdomain.ErrInvalidRole),
		errors.Is(err, registrationdomain.ErrInvalidFullName),
		errors.Is(err, instancedomain.ErrInvalidInstanceName),
		errors.Is(err, instancedomain.ErrInvalidWebhookURL):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, identitydomain.ErrInvalidSession),
		errors.Is(err, identitydomain.ErrSessionExpired),
		errors.Is(err, identitydomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, orgdomain.ErrNotAdmin),
		errors.Is(err, orgdomain.ErrCrossTenant),
		errors.Is(err, orgdomain.ErrSelfRemoval):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}

	case errors.Is(err, orgdomain.ErrSoleAdmin):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "organization must keep at least one admin; promote someone else first",
		}

	case errors.Is(err, orgdomain.ErrCoAdminsPresent):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "remove or demote the other admins before deleting the organization",
		}

	case errors.Is(err, identitydomain.ErrUserExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "an account with this email already exists",
		}

	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrUserNotFound),
		errors.Is(err, orgdomain.ErrOrganizationNotFound),
		errors.Is(err, orgdomain.ErrProfileNotFound),
		errors.Is(err, instancedomain.ErrInstanceNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, instancedomain.ErrQRTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "qr_timeout",
			Message: "timed out waiting for the pairing code; try again",
		}

	case isExternalError(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "external_error",
			Message: "the session system rejected the request",
		}

	case isStepError(err):
		return http.StatusInternalServerError, errorPayload{
			Type:    "teardown_incomplete",
			Message: "organization deletion did not finish; contact support",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isExternalError(err error) bool {
	var statusErr *sessionapi.StatusError
	return errors.As(err, &statusErr)
}

func isStepError(err error) bool {
	var stepErr *teardowndomain.StepError
	return errors.As(err, &stepErr)
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
