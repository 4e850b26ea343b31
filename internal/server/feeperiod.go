package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createFeePeriodRequest struct {
	StudentID string `json:"student_id"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
}

func (s *Server) CreateFeePeriod(c *gin.Context) {
	var req createFeePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseOptionalID(req.StudentID)
	if err != nil || studentID == nil {
		AbortWithError(c, newValidationError("student_id", "invalid_student_id", "invalid student_id"))
		return
	}

	resp, err := s.ledgerSvc.CreateSingle(c.Request.Context(), *studentID, req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createFeePeriodsBulkRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (s *Server) CreateFeePeriodsBulk(c *gin.Context) {
	var req createFeePeriodsBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.CreateBulk(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFeePeriodByID(c *gin.Context) {
	periodID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.ledgerSvc.GetByID(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateDueDateRequest struct {
	// A null or empty balance_due_date clears the override back to the
	// end-of-month default.
	BalanceDueDate *string `json:"balance_due_date"`
}

func (s *Server) UpdateFeePeriodDueDate(c *gin.Context) {
	periodID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var raw string
	if req.BalanceDueDate != nil {
		raw = *req.BalanceDueDate
	}
	dueDate, err := parseOptionalDate(raw)
	if err != nil {
		AbortWithError(c, newValidationError("balance_due_date", "invalid_balance_due_date", "invalid balance_due_date"))
		return
	}

	resp, err := s.ledgerSvc.SetDueDate(c.Request.Context(), periodID, dueDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
