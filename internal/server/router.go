package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/handlers"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	CartHandler     *handlers.CartHandler
	ReviewHandler   *handlers.ReviewHandler
	OrderHandler    *handlers.OrderHandler
	PaymentHandler  *handlers.PaymentHandler
	ChatHandler     *handlers.ChatHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)

		api.GET("/categories", cfg.CategoryHandler.List)
		api.GET("/products", cfg.ProductHandler.List)
		api.GET("/products/:slug", cfg.ProductHandler.GetBySlug)
		api.GET("/products/id/:id/reviews", cfg.ReviewHandler.ListByProduct)

		api.GET("/payment/vnpay/callback", cfg.PaymentHandler.Return)
		api.GET("/payment/vnpay/ipn", cfg.PaymentHandler.IPN)
	}

	// ===============
	// || Session   ||
	// ===============
	// cart and chat accept either a logged-in user or a guest session
	session := router.Group("/api")
	session.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		session.GET("/cart", cfg.CartHandler.List)
		session.POST("/cart/items", cfg.CartHandler.Add)
		session.PUT("/cart/items/:productId", cfg.CartHandler.Update)
		session.DELETE("/cart/items/:productId", cfg.CartHandler.Remove)
		session.DELETE("/cart", cfg.CartHandler.Clear)

		session.POST("/chat/messages", cfg.ChatHandler.SendMessage)
		session.GET("/chat/conversations", cfg.ChatHandler.ListConversations)
		session.GET("/chat/conversations/:id/messages", cfg.ChatHandler.GetMessages)
		session.DELETE("/chat/conversations/:id", cfg.ChatHandler.DeleteConversation)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/logout", cfg.AuthHandler.Logout)

		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.PUT("/me", cfg.UserHandler.UpdateProfile)
		protected.POST("/me/avatar", cfg.UserHandler.UploadAvatar)

		protected.POST("/products/id/:id/reviews", cfg.ReviewHandler.Submit)

		protected.POST("/orders", cfg.OrderHandler.Checkout)
		protected.GET("/orders", cfg.OrderHandler.ListMine)
		protected.GET("/orders/:id", cfg.OrderHandler.GetMine)
		protected.POST("/orders/:id/cancel", cfg.OrderHandler.Cancel)
		protected.POST("/orders/:id/payment-url", cfg.PaymentHandler.CreatePaymentURL)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	{
		admin.POST("/categories", cfg.CategoryHandler.Create)
		admin.PUT("/categories/:id", cfg.CategoryHandler.Update)
		admin.DELETE("/categories/:id", cfg.CategoryHandler.Delete)

		admin.POST("/products", cfg.ProductHandler.Create)
		admin.PUT("/products/:id", cfg.ProductHandler.Update)
		admin.DELETE("/products/:id", cfg.ProductHandler.Delete)
		admin.POST("/products/:id/image", cfg.ProductHandler.UploadImage)

		admin.PUT("/orders/:id/status", cfg.OrderHandler.UpdateStatus)
	}

	return router
}
