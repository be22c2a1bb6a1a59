package router

import (
	"github.com/gin-gonic/gin"
	"github.com/schoolfee/backend/internal/interfaces/http/handler"
	"github.com/schoolfee/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the API routes need
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Student      *handler.StudentHandler
	FeeStructure *handler.FeeStructureHandler
	Assignment   *handler.AssignmentHandler
	Payment      *handler.PaymentHandler
	Balance      *handler.BalanceHandler
	Report       *handler.ReportHandler
	System       *handler.SystemHandler

	// Optional stricter limiter for login and token endpoints
	AuthRateLimiter *middleware.RateLimiter
}

// RegisterAll wires every API route group onto the router. Role guards:
// admins manage users and fee structures, accountants handle waivers,
// voids and reconciliation, and any authenticated staff member can
// record payments and read data.
func RegisterAll(r *Router, h Handlers) {
	adminOnly := middleware.RequireAdmin()
	accountantUp := middleware.RequireAccountant()

	auth := NewDomainGroup("auth", "/auth")
	if h.AuthRateLimiter != nil {
		auth.Use(middleware.AuthRateLimit(h.AuthRateLimiter))
	}
	auth.POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.RefreshToken).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me).
		POST("/change-password", h.Auth.ChangePassword)

	users := NewDomainGroup("users", "/users")
	users.Use(adminOnly)
	users.POST("", h.User.Create).
		GET("", h.User.List).
		GET("/:id", h.User.Get).
		PUT("/:id", h.User.Update).
		PATCH("/:id/active", h.User.SetActive).
		POST("/:id/reset-password", h.User.ResetPassword)

	students := NewDomainGroup("students", "/students")
	students.GET("", h.Student.List).
		GET("/:id", h.Student.Get).
		GET("/by-admission/:number", h.Student.GetByAdmissionNumber).
		GET("/:id/balances", h.Balance.GetStudentBalances).
		GET("/:id/balances/:fee_structure_id", h.Balance.GetBalance).
		POST("", accountantUp, h.Student.Enroll).
		PUT("/:id", accountantUp, h.Student.Update).
		PATCH("/:id/status", accountantUp, h.Student.ChangeStatus)

	feeStructures := NewDomainGroup("fee-structures", "/fee-structures")
	feeStructures.GET("", h.FeeStructure.List).
		GET("/:id", h.FeeStructure.Get).
		POST("", adminOnly, h.FeeStructure.Create).
		PUT("/:id", adminOnly, h.FeeStructure.Update).
		PATCH("/:id/active", adminOnly, h.FeeStructure.SetActive)

	assignments := NewDomainGroup("assignments", "/assignments")
	assignments.Use(accountantUp)
	assignments.POST("", h.Assignment.Assign).
		POST("/bulk", h.Assignment.BulkAssign).
		POST("/waive", h.Assignment.Waive).
		POST("/unwaive", h.Assignment.Unwaive)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("", h.Payment.Record).
		POST("/bulk", h.Payment.BulkRecord).
		GET("", h.Payment.List).
		GET("/:id", h.Payment.Get).
		GET("/by-receipt/:receipt", h.Payment.GetByReceipt).
		PUT("/:id", accountantUp, h.Payment.Update).
		POST("/:id/void", accountantUp, h.Payment.Void)

	balances := NewDomainGroup("balances", "/balances")
	balances.GET("", h.Balance.List)

	reconciliation := NewDomainGroup("reconciliation", "/reconciliation")
	reconciliation.Use(accountantUp)
	reconciliation.POST("/pair", h.Balance.ReconcilePair).
		POST("/fee-structures/:id", h.Balance.ReconcileStructure)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/collections", h.Report.CollectionSummaries).
		GET("/defaulters", h.Report.Defaulters).
		GET("/daily-collections", h.Report.DailyCollections).
		GET("/overdue", h.Report.OverdueSnapshot).
		POST("/cache/invalidate", accountantUp, h.Report.InvalidateCache)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.Info).
		GET("/scheduler", adminOnly, h.System.SchedulerStatus).
		POST("/scheduler/run", adminOnly, h.System.TriggerScheduler)

	r.Register(auth).
		Register(users).
		Register(students).
		Register(feeStructures).
		Register(assignments).
		Register(payments).
		Register(balances).
		Register(reconciliation).
		Register(reports).
		Register(system)
}

// RegisterHealth exposes liveness endpoints outside the versioned API
func RegisterHealth(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)
	engine.GET("/healthz", h.System.Health)
}
