// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"cinebook/internal/auth"
	"cinebook/internal/bookings"
	"cinebook/internal/catalog"
	"cinebook/internal/locks"
	"cinebook/internal/payments"
	"cinebook/internal/seatmap"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/shared/middleware"
	"cinebook/internal/stream"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	lockStore locks.Store
	producer  *stream.Producer
	log       *logger.Logger

	// Built during SetupRoutes; exposed so background jobs can share
	// the same service instances.
	catalogService catalog.Service
	lockService    locks.Service
	bookingRepo    bookings.Repository
	bookingService bookings.Service
	paymentService payments.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, lockStore locks.Store, producer *stream.Producer) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		lockStore: lockStore,
		producer:  producer,
		log:       logger.GetDefault(),
	}
}

// BookingService returns the booking service built by SetupRoutes.
func (r *Router) BookingService() bookings.Service { return r.bookingService }

// BookingRepo returns the booking repository built by SetupRoutes.
func (r *Router) BookingRepo() bookings.Repository { return r.bookingRepo }

// PaymentService returns the payment service built by SetupRoutes.
func (r *Router) PaymentService() payments.Service { return r.paymentService }

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		protected := api.Group("", middleware.JWTAuth(r.config))

		// Auth first; everything mutating depends on it
		r.setupAuthRoutes(api)

		// Catalog before bookings: booking quotes resolve shows here
		r.setupCatalogRoutes(api, protected)

		// Locks before bookings and seat map: both read active holds
		r.setupLockRoutes(protected)

		r.setupBookingRoutes(protected)
		r.setupSeatMapRoutes(api)
		r.setupPaymentRoutes(protected)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "cinebook-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "cinebook-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)

	auth.SetupRoutes(rg, authController)
}

// setupCatalogRoutes configures movie, theatre, hall and show routes
func (r *Router) setupCatalogRoutes(public *gin.RouterGroup, admin *gin.RouterGroup) {
	cacheService := cache.NewService(r.db.GetRedisClient())
	catalogRepo := catalog.NewRepository(r.db.GetPostgreSQL())
	r.catalogService = catalog.NewService(catalogRepo, cacheService)
	catalogController := catalog.NewController(r.catalogService)

	catalog.SetupRoutes(public, admin, catalogController)
}

// setupLockRoutes configures seat lock routes
func (r *Router) setupLockRoutes(protected *gin.RouterGroup) {
	r.bookingRepo = bookings.NewRepository(r.db.GetPostgreSQL())

	var lockEvents locks.EventPublisher
	if r.producer != nil {
		lockEvents = r.producer
	}

	r.lockService = locks.NewService(r.lockStore, r.bookingRepo, lockEvents, r.config.Locking.LockTTL, r.log)
	lockController := locks.NewController(r.lockService)

	locks.SetupRoutes(protected, lockController)
}

// setupBookingRoutes configures booking lifecycle routes
func (r *Router) setupBookingRoutes(protected *gin.RouterGroup) {
	var bookingEvents bookings.EventPublisher
	if r.producer != nil {
		bookingEvents = r.producer
	}

	r.bookingService = bookings.NewService(r.bookingRepo, r.lockService, r.catalogService, bookingEvents, r.log)
	bookingController := bookings.NewController(r.bookingService)

	bookings.SetupRoutes(protected, bookingController)
}

// setupSeatMapRoutes configures the derived seat map route
func (r *Router) setupSeatMapRoutes(public *gin.RouterGroup) {
	seatMapService := seatmap.NewService(r.catalogService, r.bookingRepo, r.lockService)
	seatMapController := seatmap.NewController(seatMapService)

	seatmap.SetupRoutes(public, seatMapController)
}

// setupPaymentRoutes configures payment gateway routes
func (r *Router) setupPaymentRoutes(protected *gin.RouterGroup) {
	paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())

	var gateway payments.Gateway
	if r.config.IsProduction() {
		gateway = payments.NewRazorpayGateway(
			r.config.Payment.KeyID,
			r.config.Payment.KeySecret,
			r.config.Payment.BaseURL,
		)
	} else {
		gateway = payments.NewStubGateway(r.config.Payment.KeySecret)
	}

	r.paymentService = payments.NewService(paymentRepo, gateway, r.bookingService, &r.config.Payment, r.log)
	paymentController := payments.NewController(r.paymentService)

	payments.SetupRoutes(protected, paymentController)
}
