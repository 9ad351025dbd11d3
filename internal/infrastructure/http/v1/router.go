// Package v1 wires the HTTP API: middleware chain, route groups and handler
// construction.
package v1

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/catalogs/fueltype"
	"fueldepot/internal/domain/catalogs/supplier"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/delivery"
	"fueldepot/internal/domain/orders"
	"fueldepot/internal/infrastructure/http/v1/handlers"
	"fueldepot/internal/infrastructure/http/v1/middleware"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/pkg/logger"
)

// Dependencies holds everything the router needs.
type Dependencies struct {
	Logger *logger.Logger
	Pool   *postgres.Pool
	Audit  *postgres.AuditService

	FuelTypes *fueltype.Service
	Suppliers *supplier.Service
	Tanks     *tank.Service
	Orders    *orders.Service
	Recorder  *delivery.Recorder
}

// NewRouter builds the gin engine with the full middleware chain and all
// API routes mounted under /api/v1.
func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(
		middleware.Trace(),
		middleware.Actor(),
		middleware.Logger(deps.Logger),
		middleware.Recovery(),
		middleware.ErrorHandler(),
	)

	health := handlers.NewHealthHandler(deps.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)

	api := router.Group("/api/v1")
	{
		ft := handlers.NewFuelTypeHandler(deps.FuelTypes)
		fuelTypes := api.Group("/fuel-types")
		{
			fuelTypes.POST("", ft.Create)
			fuelTypes.GET("", ft.List)
			fuelTypes.GET("/:id", ft.GetByID)
		}

		sup := handlers.NewSupplierHandler(deps.Suppliers)
		suppliers := api.Group("/suppliers")
		{
			suppliers.POST("", sup.Create)
			suppliers.GET("", sup.List)
			suppliers.GET("/:id", sup.GetByID)
		}

		tk := handlers.NewTankHandler(deps.Tanks)
		tanks := api.Group("/tanks")
		{
			tanks.POST("", tk.Register)
			tanks.GET("", tk.List)
			tanks.GET("/:id", tk.GetByID)
			tanks.PUT("/:id", tk.Update)
			tanks.DELETE("/:id", tk.Decommission)
			tanks.POST("/:id/adjustments", tk.Adjust)
			tanks.GET("/:id/history", tk.History)
		}

		ord := handlers.NewOrderHandler(deps.Orders)
		ordersGroup := api.Group("/orders")
		{
			ordersGroup.POST("", ord.Create)
			ordersGroup.GET("", ord.List)
			ordersGroup.GET("/:id", ord.GetByID)
			ordersGroup.POST("/:id/transition", ord.Transition)
			ordersGroup.GET("/:id/fulfillment", ord.Fulfillment)
		}

		dlv := handlers.NewDeliveryHandler(deps.Recorder, deps.Audit)
		deliveries := api.Group("/deliveries")
		{
			deliveries.POST("", dlv.Record)
			deliveries.GET("", dlv.List)
			deliveries.GET("/:id", dlv.GetByID)
			deliveries.PUT("/:id", dlv.Edit)
			deliveries.POST("/:id/void", dlv.Void)
			deliveries.GET("/:id/audit", dlv.History)
		}
	}

	return router
}
