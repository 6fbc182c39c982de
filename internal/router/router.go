// internal/router/router.go
package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/handlers"
	"github.com/javajoker/pirotecnica-backend/internal/middleware"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

// Options replaces collaborators that talk to the outside world.
type Options struct {
	Mailer services.Mailer
	Images services.ImageStore
}

func Initialize(store repository.Store, cfg *config.Config, opts Options) (*gin.Engine, error) {
	mailer := opts.Mailer
	if mailer == nil {
		mailer = services.NewMailer(cfg.Email)
	}

	images := opts.Images
	if images == nil {
		storageService, err := services.NewStorageService(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		images = storageService
	}

	// Initialize services
	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTLHours)
	notificationService := services.NewNotificationService(mailer, cfg)
	accessControl := services.NewAccessControl(store, tokens)

	authService := services.NewAuthService(store, tokens, notificationService, cfg)
	licenseService := services.NewLicenseService(store, notificationService, cfg)
	productService := services.NewProductService(store, accessControl, images)
	cartService := services.NewCartService(store)
	orderService := services.NewOrderService(store, notificationService, cfg)
	userService := services.NewUserService(store)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(store)

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorDetails(!cfg.IsProduction()))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	if cfg.Server.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), max(cfg.Server.RateLimitBurst, 1)).Middleware())
	}
	r.Use(middleware.AuditLogMiddleware(store))

	r.GET("/health", healthHandler.Health)

	authRequired := middleware.AuthRequired(accessControl)
	can := func(action services.Action) gin.HandlerFunc {
		return middleware.RequireAction(accessControl, action)
	}

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			login := []gin.HandlerFunc{authHandler.Login}
			if cfg.Server.LoginRateLimit > 0 {
				window := time.Duration(cfg.Server.LoginRateWindow) * time.Minute
				limiter := middleware.NewWindowLimiter(cfg.Server.LoginRateLimit, window)
				login = append([]gin.HandlerFunc{limiter.Middleware()}, login...)
			}

			auth.POST("/register", authHandler.Register)
			auth.POST("/login", login...)
			auth.GET("/profile", authRequired, can(services.ActionProfileView), authHandler.GetProfile)
			auth.POST("/apply-license", authRequired, can(services.ActionLicenseApply), licenseHandler.ApplyForLicense)
			auth.GET("/pending-licenses", authRequired, can(services.ActionLicenseListPending), licenseHandler.GetPendingLicenses)
			auth.PUT("/approve-license/:id", authRequired, can(services.ActionLicenseApprove), licenseHandler.ApproveLicense)
			auth.PUT("/reject-license/:id", authRequired, can(services.ActionLicenseReject), licenseHandler.RejectLicense)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", authRequired, can(services.ActionProductCreate), productHandler.CreateProduct)
			products.PUT("/:id", authRequired, can(services.ActionProductUpdate), productHandler.UpdateProduct)
			products.DELETE("/:id", authRequired, can(services.ActionProductDelete), productHandler.DeleteProduct)
		}

		cart := api.Group("/cart")
		cart.Use(authRequired)
		{
			cart.GET("", can(services.ActionCartView), cartHandler.GetCart)
			cart.POST("/add", can(services.ActionCartAdjust), cartHandler.AddItem)
			cart.DELETE("/items/:productId", can(services.ActionCartRemove), cartHandler.RemoveItem)
		}

		orders := api.Group("/orders")
		orders.Use(authRequired)
		{
			orders.POST("/checkout", can(services.ActionOrderCheckout), orderHandler.Checkout)
			orders.GET("", can(services.ActionOrderListOwn), orderHandler.GetMyOrders)
			orders.GET("/all", can(services.ActionOrderListAll), orderHandler.GetAllOrders)
			orders.PUT("/:id/status", can(services.ActionOrderUpdateStatus), orderHandler.UpdateStatus)
		}

		users := api.Group("/users")
		users.Use(authRequired)
		{
			users.GET("", can(services.ActionUserList), userHandler.GetUsers)
			users.PUT("/:id/role", can(services.ActionUserChangeRole), userHandler.UpdateRole)
		}
	}

	// Local uploads are served from disk; S3 images carry absolute URLs.
	if !cfg.AWS.Enabled() && cfg.Server.UploadDir != "" {
		r.Static(services.LocalURLPrefix, cfg.Server.UploadDir)
	}

	return r, nil
}
