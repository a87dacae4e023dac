package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	reportdomain "github.com/smallbiznis/amber/internal/report/domain"
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
	Type          string            `json:"type"`
	Message       string            `json:"message"`
	Errors        []ValidationError `json:"errors,omitempty"`
	OfferedLabels []string          `json:"offered_labels,omitempty"`
	Dropped       map[string]int    `json:"dropped,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var missing *bookingdomain.MissingRequiredFieldError
	if errors.As(err, &missing) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "a required column could not be found in the file",
			Errors: []ValidationError{
				{
					Field:   missing.Field,
					Code:    bookingdomain.ErrMissingRequiredField.Error(),
					Message: missing.Error(),
				},
			},
			OfferedLabels: missing.OfferedLabels,
		}
	}

	var noRows *ingestdomain.NoUsableRowsError
	if errors.As(err, &noRows) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "file",
					Code:    ingestdomain.ErrNoUsableRows.Error(),
					Message: noRows.Error(),
				},
			},
			Dropped: noRows.Dropped,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(err, code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ingestdomain.ErrUploadInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "another upload is in progress",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ledgerdomain.ErrStoreUnavailable),
		errors.Is(err, budgetdomain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	ingestdomain.ErrNoUsableRows,
	ingestdomain.ErrUnsupportedFile,
	ingestdomain.ErrInvalidUpload,
	ingestdomain.ErrInvalidPageToken,
	reportdomain.ErrInvalidRange,
	budgetdomain.ErrInvalidMonth,
	budgetdomain.ErrInvalidTarget,
	bookingdomain.ErrInvalidStatus,
	bookingdomain.ErrInvalidRecordClass,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case ingestdomain.ErrNoUsableRows.Error(),
		ingestdomain.ErrUnsupportedFile.Error(),
		ingestdomain.ErrInvalidUpload.Error():
		return "file"
	case ingestdomain.ErrInvalidPageToken.Error():
		return "page_token"
	case reportdomain.ErrInvalidRange.Error():
		return "range"
	case budgetdomain.ErrInvalidTarget.Error():
		return "target"
	case "invalid_request":
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorMessage(err error, code string) string {
	if code == "invalid_request" {
		return "invalid request"
	}
	return err.Error()
}
