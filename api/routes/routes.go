package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/api/handlers"
	"example.com/medfleet/services/lorry/internal/search"
	"example.com/medfleet/services/lorry/internal/service"
)

// Services bundles everything the routes need
type Services struct {
	Ledger        service.LedgerService
	Stock         service.StockService
	Assignments   service.AssignmentService
	Verifications service.VerificationService
	Access        service.AccessService
	Holds         service.HoldService
	Fleet         service.FleetService
	Search        search.Client
}

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svcs Services, log *logrus.Logger) {
	// Health and metrics
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", handlers.Metrics)

	api := r.Group("/api/v1")

	// Lorry registry and ledger routes
	fleetHandler := handlers.NewFleetHandler(svcs.Fleet, log)
	ledgerHandler := handlers.NewLedgerHandler(svcs.Ledger, log)
	stockHandler := handlers.NewStockHandler(svcs.Stock, log)
	lorries := api.Group("/lorries")
	{
		lorries.POST("", fleetHandler.CreateLorry)
		lorries.GET("", fleetHandler.ListLorries)
		lorries.GET("/:id", fleetHandler.GetLorry)
		lorries.PATCH("/:id/active", fleetHandler.SetLorryActive)

		lorries.POST("/:id/transactions", ledgerHandler.Append)
		lorries.GET("/:id/transactions", ledgerHandler.History)
		lorries.GET("/:id/stock", stockHandler.CurrentStock)
	}

	// Transaction corrections
	transactions := api.Group("/transactions")
	{
		transactions.POST("/:id/corrections", ledgerHandler.SoftCorrect)
	}

	// Serialized item trail
	api.GET("/items/:uid/trail", ledgerHandler.ItemTrail)

	// Fleet-wide stock reporting
	stock := api.Group("/stock")
	{
		stock.GET("/report", stockHandler.FleetReport)
		stock.GET("/duplicates", stockHandler.DuplicateUIDs)
	}

	// Assignment routes
	assignmentHandler := handlers.NewAssignmentHandler(svcs.Assignments, log)
	verificationHandler := handlers.NewVerificationHandler(svcs.Verifications, log)
	assignments := api.Group("/assignments")
	{
		assignments.POST("/auto", assignmentHandler.AutoAssign)
		assignments.POST("", assignmentHandler.Assign)
		assignments.GET("", assignmentHandler.ListByDate)
		assignments.POST("/:id/activate", assignmentHandler.Activate)
		assignments.POST("/:id/complete", assignmentHandler.Complete)
		assignments.POST("/:id/cancel", assignmentHandler.Cancel)

		assignments.POST("/:id/verify", verificationHandler.Verify)
		assignments.GET("/:id/verification", verificationHandler.GetByAssignment)
	}

	// Driver routes
	accessHandler := handlers.NewAccessHandler(svcs.Access, log)
	holdHandler := handlers.NewHoldHandler(svcs.Holds, log)
	drivers := api.Group("/drivers")
	{
		drivers.POST("", fleetHandler.CreateDriver)
		drivers.GET("", fleetHandler.ListDrivers)
		drivers.GET("/:id", fleetHandler.GetDriver)
		drivers.PATCH("/:id/active", fleetHandler.SetDriverActive)
		drivers.POST("/:id/schedule", fleetHandler.ScheduleDriver)
		drivers.DELETE("/:id/schedule", fleetHandler.UnscheduleDriver)

		drivers.GET("/:id/assignment", assignmentHandler.GetForDriver)
		drivers.GET("/:id/access", accessHandler.CanAccessOrders)
		drivers.GET("/:id/holds", holdHandler.ListForDriver)
	}

	// Hold routes
	holds := api.Group("/holds")
	{
		holds.POST("", holdHandler.CreateManual)
		holds.GET("/:id", holdHandler.Get)
		holds.POST("/:id/resolve", holdHandler.Resolve)
	}

	// Dashboard search over the indexed documents
	searchHandler := handlers.NewSearchHandler(svcs.Search, log)
	searchGroup := api.Group("/search")
	{
		searchGroup.GET("/transactions", searchHandler.Transactions)
		searchGroup.GET("/verifications", searchHandler.Verifications)
		searchGroup.GET("/holds", searchHandler.Holds)
	}
}
