package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receivabledomain "github.com/smallbiznis/maktab/internal/receivable/domain"
	"github.com/smallbiznis/maktab/pkg/db/pagination"
)

func (s *Server) ListReceivables(c *gin.Context) {
	var query struct {
		pagination.Pagination
		StudentID string `form:"student_id"`
		Month     int    `form:"month"`
		Year      int    `form:"year"`
		Status    string `form:"status"`
		Search    string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseOptionalID(query.StudentID)
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_student_id", "invalid student_id"))
		return
	}

	filter := receivabledomain.ListFilter{
		StudentID: studentID,
		Search:    strings.TrimSpace(query.Search),
	}
	if query.Month != 0 {
		filter.Month = &query.Month
	}
	if query.Year != 0 {
		filter.Year = &query.Year
	}
	switch status := feeperioddomain.PeriodStatus(strings.TrimSpace(query.Status)); status {
	case "":
	case feeperioddomain.PeriodStatusUnpaid, feeperioddomain.PeriodStatusPartial:
		filter.Status = &status
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
		return
	}

	resp, err := s.receivableSvc.List(c.Request.Context(), filter, query.Pagination)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceivableSummary(c *gin.Context) {
	periodID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receivableSvc.Summary(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStudentReceivables(c *gin.Context) {
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receivableSvc.ByStudent(c.Request.Context(), studentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceivablesDashboard(c *gin.Context) {
	resp, err := s.receivableSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
