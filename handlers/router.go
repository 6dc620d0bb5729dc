package handlers

import (
	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Handlers struct {
	Orders     *OrderHandler
	Invoices   *InvoiceHandler
	Payments   *PaymentHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	BlogPosts  *BlogPostHandler
	Addresses  *AddressHandler
	Auth       *AuthHandler
	Health     *HealthHandler
}

func NewRouter(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/health", h.Health.HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())

	api := router.Group("")
	api.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	admin := middleware.RequireRole([]byte(cfg.Security.JWTSecret), models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	order := api.Group("/order")
	order.POST("", h.Orders.CreateOrder)
	order.GET("/:id", h.Orders.GetOrder)
	order.GET("/invoice/:invoiceNo", h.Orders.GetOrderByInvoice)
	order.GET("/user/:userId", h.Orders.ListUserOrders)
	order.PUT("/:id", h.Orders.UpdateOrder)
	order.PATCH("/:id/status", h.Orders.UpdateOrderStatus)
	order.PATCH("/:id/tracking", h.Orders.AssignTracking)
	order.PATCH("/payment/:invoiceNo", h.Orders.UpdatePaymentStatus)
	order.PATCH("/status/:invoiceNo", h.Orders.UpdateStatusByInvoice)
	order.DELETE("/bulk", admin, h.Orders.BulkDelete)
	order.GET("/:id/payments", h.Payments.ListOrderTransactions)
	order.GET("/:id/payments/summary", h.Payments.OrderPaymentSummary)

	invoices := api.Group("/invoices")
	invoices.POST("", h.Invoices.CreateInvoice)
	invoices.POST("/order/:orderId", h.Invoices.CreateInvoiceForOrder)
	invoices.GET("/order/:orderId", h.Invoices.ListOrderInvoices)
	invoices.GET("/:number", h.Invoices.GetInvoice)
	invoices.PATCH("/:number/payment", h.Invoices.UpdateInvoicePayment)

	payments := api.Group("/payments/transactions")
	payments.POST("", h.Payments.LogTransaction)
	payments.GET("/:reference", h.Payments.GetTransaction)
	payments.PATCH("/:reference", h.Payments.UpdateTransactionStatus)

	products := api.Group("/products")
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.Get)
	products.GET("/:id/translations", h.Products.Translations)
	products.GET("/:id/stock/check", h.Products.CheckStock)
	products.POST("", admin, h.Products.Create)
	products.PATCH("/:id", admin, h.Products.UpdateProduct)
	products.DELETE("/:id", admin, h.Products.Delete)
	products.PUT("/:id/translations", admin, h.Products.UpsertTranslation)
	products.POST("/:id/stock/reduce", admin, h.Products.ReduceStock)
	products.POST("/:id/stock/restore", admin, h.Products.RestoreStock)

	registerLocalized(api.Group("/categories"), h.Categories, admin)
	registerLocalized(api.Group("/blog/posts"), h.BlogPosts, admin)

	users := api.Group("/users/:userId/addresses")
	users.POST("", h.Addresses.CreateAddress)
	users.GET("", h.Addresses.ListAddresses)
	users.GET("/default", h.Addresses.GetDefaultAddress)
	users.PATCH("/:id/default", h.Addresses.SetDefaultAddress)

	return router
}

func registerLocalized[B any, T any, R any](g *gin.RouterGroup, h *LocalizedHandler[B, T, R], admin gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/translations", h.Translations)
	g.POST("", admin, h.Create)
	g.PUT("/:id/translations", admin, h.UpsertTranslation)
	g.DELETE("/:id", admin, h.Delete)
}
