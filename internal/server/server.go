package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/maktab/internal/allocation"
	allocationdomain "github.com/smallbiznis/maktab/internal/allocation/domain"
	"github.com/smallbiznis/maktab/internal/config"
	"github.com/smallbiznis/maktab/internal/feeperiod"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	"github.com/smallbiznis/maktab/internal/receipt"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	"github.com/smallbiznis/maktab/internal/receivable"
	receivabledomain "github.com/smallbiznis/maktab/internal/receivable/domain"
	"github.com/smallbiznis/maktab/internal/student"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	student.Module,
	feeperiod.Module,
	receipt.Module,
	allocation.Module,
	receivable.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	ledgerSvc     feeperioddomain.Service
	receiptSvc    receiptdomain.Service
	allocationSvc allocationdomain.Service
	receivableSvc receivabledomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	LedgerSvc     feeperioddomain.Service
	ReceiptSvc    receiptdomain.Service
	AllocationSvc allocationdomain.Service
	ReceivableSvc receivabledomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		ledgerSvc:     p.LedgerSvc,
		receiptSvc:    p.ReceiptSvc,
		allocationSvc: p.AllocationSvc,
		receivableSvc: p.ReceivableSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.CallerContext())

	// -------- Fee Periods --------
	api.POST("/fee-periods", s.RequireLedgerManager(), s.CreateFeePeriod)
	api.POST("/fee-periods/bulk", s.RequireLedgerManager(), s.CreateFeePeriodsBulk)
	api.GET("/fee-periods/:id", s.GetFeePeriodByID)
	api.PATCH("/fee-periods/:id/due-date", s.RequireLedgerManager(), s.UpdateFeePeriodDueDate)

	// -------- Receipts --------
	api.POST("/fee-periods/:id/receipts", s.RequireLedgerManager(), s.RecordReceipt)
	api.GET("/fee-periods/:id/receipts", s.ListReceiptsByPeriod)

	// -------- Batch Payments --------
	api.POST("/payments/forward", s.RequireLedgerManager(), s.PayForward)
	api.POST("/payments/by-parent", s.RequireLedgerManager(), s.PayByParent)

	// -------- Receivables --------
	api.GET("/receivables", s.ListReceivables)
	api.GET("/receivables/dashboard", s.GetReceivablesDashboard)
	api.GET("/receivables/summary/:id", s.GetReceivableSummary)
	api.GET("/receivables/students/:studentId", s.GetStudentReceivables)
}
