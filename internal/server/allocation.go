package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/maktab/internal/allocation/domain"
)

type payForwardRequest struct {
	StudentID     string  `json:"student_id"`
	FromMonth     int     `json:"from_month"`
	FromYear      int     `json:"from_year"`
	ToMonth       int     `json:"to_month"`
	ToYear        int     `json:"to_year"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAt        string  `json:"paid_at"`
	ReceiptNumber *string `json:"receipt_number"`
	Notes         *string `json:"notes"`
}

func (s *Server) PayForward(c *gin.Context) {
	var req payForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseOptionalID(req.StudentID)
	if err != nil || studentID == nil {
		AbortWithError(c, newValidationError("student_id", "invalid_student_id", "invalid student_id"))
		return
	}

	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.allocationSvc.PayForward(c.Request.Context(), allocationdomain.PayForwardRequest{
		StudentID:     *studentID,
		FromMonth:     req.FromMonth,
		FromYear:      req.FromYear,
		ToMonth:       req.ToMonth,
		ToYear:        req.ToYear,
		TotalAmount:   req.TotalAmount,
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

type payByParentRequest struct {
	ParentID      string  `json:"parent_id"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`
	TotalAmount   float64 `json:"total_amount"`
	Discount      float64 `json:"discount"`
	PaidAt        string  `json:"paid_at"`
	ReceiptNumber *string `json:"receipt_number"`
	Notes         *string `json:"notes"`
	TeacherID     string  `json:"teacher_id"`
}

func (s *Server) PayByParent(c *gin.Context) {
	var req payByParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parentID, err := parseOptionalID(req.ParentID)
	if err != nil || parentID == nil {
		AbortWithError(c, newValidationError("parent_id", "invalid_parent_id", "invalid parent_id"))
		return
	}

	teacherID, err := parseOptionalID(req.TeacherID)
	if err != nil {
		AbortWithError(c, newValidationError("teacher_id", "invalid_teacher_id", "invalid teacher_id"))
		return
	}

	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.allocationSvc.PayByParent(c.Request.Context(), allocationdomain.PayByParentRequest{
		ParentID:      *parentID,
		Month:         req.Month,
		Year:          req.Year,
		TotalAmount:   req.TotalAmount,
		Discount:      req.Discount,
		PaidAt:        paidAt,
		ReceiptNumber: optionalString(req.ReceiptNumber),
		Notes:         optionalString(req.Notes),
		TeacherID:     teacherID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
