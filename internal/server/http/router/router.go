package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/medcart/medcart/internal/server/http/handlers"
	"github.com/medcart/medcart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PharmacyFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	profileHandler := handlers.NewProfileHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)

	api := engine.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	profile := authed.Group("/users/me")
	profile.GET("", profileHandler.Me)
	profile.PUT("/password", profileHandler.ChangePassword)
	profile.DELETE("", profileHandler.Delete)

	authed.GET("/users/:userID/orders", orderHandler.ListByUser)

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("/:orderID", orderHandler.Get)
	orders.GET("/:orderID/history", orderHandler.History)
	orders.GET("/:orderID/dispatches", orderHandler.Dispatches)
	orders.POST("/:orderID/prescription", orderHandler.UploadPrescription)
	orders.POST("/:orderID/cancel", orderHandler.Cancel)

	staff := orders.Group("")
	staff.Use(middleware.StaffOnly())
	staff.POST("/:orderID/payment", orderHandler.ConfirmPayment)
	staff.POST("/:orderID/fulfillment", orderHandler.StartFulfillment)
	staff.POST("/:orderID/delivery", orderHandler.ConfirmDelivery)

	return engine
}
