package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
)

type recordReceiptRequest struct {
	Amount        float64 `json:"amount"`
	PaidAt        string  `json:"paid_at"`
	ReceiptNumber *string `json:"receipt_number"`
	Notes         *string `json:"notes"`
}

func (s *Server) RecordReceipt(c *gin.Context) {
	periodID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req recordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.receiptSvc.RecordReceipt(c.Request.Context(), receiptdomain.RecordReceiptRequest{
		PeriodID:      periodID,
		Amount:        req.Amount,
		PaidAt:        paidAt,
		ReceiptNumber: optionalString(req.ReceiptNumber),
		Notes:         optionalString(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListReceiptsByPeriod(c *gin.Context) {
	periodID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.ListByPeriod(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
