package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/maktab/internal/allocation/domain"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError_StatusCodes(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"validation", feeperioddomain.ErrInvalidMonth, http.StatusBadRequest, "validation_error"},
		{"period not found", feeperioddomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"student not found", studentdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"conflict", feeperioddomain.ErrConflict, http.StatusConflict, "conflict"},
		{"locked", receiptdomain.ErrLocked, http.StatusConflict, "settlement_locked"},
		{"not billable", feeperioddomain.ErrNotBillable, http.StatusUnprocessableEntity, "not_billable"},
		{"no payable children", allocationdomain.ErrNoPayableChildren, http.StatusUnprocessableEntity, "no_payable_children"},
		{"out of scope", feeperioddomain.ErrStudentOutOfScope, http.StatusForbidden, "forbidden"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.name)
		assert.Equal(t, tc.errType, payload.Type, tc.name)
	}
}

func TestMapError_CarriesCorrectiveValues(t *testing.T) {
	status, payload := mapError(&receiptdomain.OverpaymentError{Remaining: 300})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "overpayment", payload.Type)
	assert.Equal(t, 300.0, payload.Details["remaining_balance"])

	status, payload = mapError(&allocationdomain.OverpaymentError{Allowed: 900})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, 900.0, payload.Details["allowed_amount"])

	status, payload = mapError(&allocationdomain.AmountMismatchError{Expected: 1500})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "amount_mismatch", payload.Type)
	assert.Equal(t, 1500.0, payload.Details["expected_total"])
}

func TestRequireLedgerManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.Use(s.CallerContext())
	r.POST("/protected", s.RequireLedgerManager(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// No identity headers at all.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A role outside the ledger capability.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("X-Caller-Id", "7177622874711261184")
	req.Header.Set("X-Caller-Role", "viewer")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin passes.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("X-Caller-Id", "7177622874711261184")
	req.Header.Set("X-Caller-Role", "admin")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
