package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/api/handlers"
	"github.com/bryceheller922-ship-it/Archaleon/internal/api/middleware"
	"github.com/bryceheller922-ship-it/Archaleon/internal/api/ws"
	"github.com/bryceheller922-ship-it/Archaleon/internal/billing"
	"github.com/bryceheller922-ship-it/Archaleon/internal/config"
	"github.com/bryceheller922-ship-it/Archaleon/internal/storage"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// SetupRouter configures and returns the main Gin engine. The storage and
// notifier arguments may be nil when S3 or the change feed is not wired.
func SetupRouter(cfg *config.Config, s *store.Store, s3Storage storage.IS3Storage, checkout *billing.Checkout, notifier *ws.Notifier) *gin.Engine {
	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first (order matters).
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(s)
	listingHandler := handlers.NewListingHandler(s)
	inquiryHandler := handlers.NewInquiryHandler(s)
	chatHandler := handlers.NewChatHandler(s)
	userHandler := handlers.NewUserHandler(s)
	billingHandler := handlers.NewBillingHandler(s, checkout, cfg.BillingWebhookSecret)
	mediaHandler := handlers.NewMediaHandler(s, s3Storage)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Public routes (rate limiting already applied globally).
		v1.POST("/auth/signup", authHandler.SignUp)
		v1.POST("/auth/signin", authHandler.SignIn)
		v1.POST("/auth/reset-password", authHandler.ResetPassword)
		v1.POST("/auth/reset-password/confirm", authHandler.ConfirmReset)

		v1.GET("/listings", listingHandler.ListListings)
		v1.GET("/listings/:id", listingHandler.GetListing)

		v1.GET("/billing/plans", billingHandler.ListPlans)
		v1.GET("/billing/return", billingHandler.Return)
		v1.POST("/billing/webhook", billingHandler.Webhook)

		if notifier != nil {
			v1.GET("/notify", notifier.Handler)
		}

		// Authenticated routes.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/auth/signout", authHandler.SignOut)

			authRequired.GET("/me", userHandler.Me)
			authRequired.GET("/me/entitlements", userHandler.Entitlements)
			authRequired.GET("/me/listings", listingHandler.MyListings)

			authRequired.POST("/listings", listingHandler.CreateListing)
			authRequired.PATCH("/listings/:id", listingHandler.UpdateListing)
			authRequired.DELETE("/listings/:id", listingHandler.DeleteListing)
			authRequired.POST("/listings/:id/feature", listingHandler.FeatureListing)
			authRequired.POST("/listings/:id/view", listingHandler.TrackView)
			authRequired.POST("/listings/refresh", listingHandler.RefreshListings)

			authRequired.POST("/listings/:id/inquiries", inquiryHandler.CreateInquiry)
			authRequired.GET("/inquiries", inquiryHandler.ListInquiries)
			authRequired.PATCH("/inquiries/:id", inquiryHandler.UpdateInquiry)

			authRequired.POST("/conversations", chatHandler.StartConversation)
			authRequired.GET("/conversations", chatHandler.ListConversations)
			authRequired.GET("/conversations/:id", chatHandler.GetConversation)
			authRequired.POST("/conversations/:id/messages", chatHandler.SendMessage)
			authRequired.POST("/conversations/:id/read", chatHandler.MarkRead)

			authRequired.POST("/billing/checkout", billingHandler.Checkout)

			authRequired.GET("/media/upload-url", mediaHandler.UploadURL)
		}
	}

	return r
}
