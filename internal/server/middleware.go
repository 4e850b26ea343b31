package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/maktab/internal/authctx"
	"go.uber.org/zap"
)

// Identity headers stamped by the upstream gateway. The engine trusts them
// as-is; authentication happens before traffic reaches this process.
const (
	headerCallerID        = "X-Caller-Id"
	headerCallerRole      = "X-Caller-Role"
	headerCallerTeacherID = "X-Caller-Teacher-Id"
)

// CallerContext lifts the gateway identity headers into the request context
// so services can apply teacher scoping. Requests without headers pass
// through anonymous; the ledger gate rejects them later if they mutate.
func (s *Server) CallerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(headerCallerID))
		if rawID == "" {
			c.Next()
			return
		}

		callerID, err := snowflake.ParseString(rawID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		caller := authctx.Caller{
			ID:   callerID,
			Role: authctx.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(headerCallerRole)))),
		}
		if rawTeacher := strings.TrimSpace(c.GetHeader(headerCallerTeacherID)); rawTeacher != "" {
			teacherID, err := snowflake.ParseString(rawTeacher)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			caller.TeacherID = teacherID
		}

		ctx := authctx.WithCaller(c.Request.Context(), caller)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireLedgerManager gates every mutating ledger route.
func (s *Server) RequireLedgerManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := authctx.CallerFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !caller.CanManageLedger() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
