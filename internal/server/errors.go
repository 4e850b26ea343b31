package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/maktab/internal/allocation/domain"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"gorm.io/gorm"
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
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
	ErrInvalidRequest = errors.New("invalid_request")
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

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	// Settlement arithmetic rejections carry the corrective value so the
	// caller can retry without a second round trip.
	var receiptOverpayment *receiptdomain.OverpaymentError
	if errors.As(err, &receiptOverpayment) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "overpayment",
			Message: receiptOverpayment.Error(),
			Details: map[string]any{"remaining_balance": receiptOverpayment.Remaining},
		}
	}
	var allocationOverpayment *allocationdomain.OverpaymentError
	if errors.As(err, &allocationOverpayment) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "overpayment",
			Message: allocationOverpayment.Error(),
			Details: map[string]any{"allowed_amount": allocationOverpayment.Allowed},
		}
	}
	var amountMismatch *allocationdomain.AmountMismatchError
	if errors.As(err, &amountMismatch) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "amount_mismatch",
			Message: amountMismatch.Error(),
			Details: map[string]any{"expected_total": amountMismatch.Expected},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, feeperioddomain.ErrStudentOutOfScope):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, feeperioddomain.ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "fee period already exists",
		}
	case errors.Is(err, receiptdomain.ErrLocked):
		return http.StatusConflict, errorPayload{
			Type:    "settlement_locked",
			Message: "balance already carried into the next period",
		}
	case errors.Is(err, feeperioddomain.ErrNotBillable):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "not_billable",
			Message: "student is inactive or has no monthly fee",
		}
	case errors.Is(err, allocationdomain.ErrNoPayableChildren):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "no_payable_children",
			Message: "parent has no children with an open balance",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
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

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, feeperioddomain.ErrInvalidMonth),
		errors.Is(err, feeperioddomain.ErrInvalidYear),
		errors.Is(err, receiptdomain.ErrInvalidAmount),
		errors.Is(err, receiptdomain.ErrInvalidDate),
		errors.Is(err, allocationdomain.ErrInvalidRange),
		errors.Is(err, allocationdomain.ErrInvalidAmount),
		errors.Is(err, allocationdomain.ErrInvalidDiscount),
		errors.Is(err, allocationdomain.ErrInvalidDate):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, feeperioddomain.ErrNotFound),
		errors.Is(err, studentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
