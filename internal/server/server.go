package server

import (
	"context"
	"net/http"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/booking"
	"slotbook/internal/config"
	"slotbook/internal/ratelimit"
	"slotbook/internal/signedlink"
	"slotbook/internal/task"
	"slotbook/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config) (*Server, error) {
	signer, err := signedlink.NewSigner(cfg.SignedLinkSecret, cfg.SignedLinkTTL)
	if err != nil {
		return nil, err
	}

	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	taskRepo := task.NewRepository(db)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	taskHandler := task.NewHandler(db)
	bookingHandler := booking.NewHandler(db)
	linkHandler := signedlink.NewHandler(signer, taskRepo)

	limiter := newLimiter(cfg)

	public := router.Group("/auth")
	public.Use(ratelimit.Middleware(limiter, "auth"))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/tasks/:taskID/slots", taskHandler.ListSlots)
		protected.POST("/slots/:slotID/book", bookingHandler.BookSlot)
		protected.POST("/bookings/:bookingID/confirm", bookingHandler.ConfirmBooking)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:bookingID/complete", bookingHandler.CompleteBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
	}

	merchantMiddleware := auth.RequireRole(auth.RoleMerchant, auth.RoleAdmin)
	merchant := router.Group("/merchant")
	merchant.Use(authMiddleware, merchantMiddleware)
	{
		merchant.POST("/tasks", taskHandler.CreateTask)
		merchant.GET("/tasks", taskHandler.ListMyTasks)
		merchant.PATCH("/tasks/:taskID/active", taskHandler.SetTaskActive)
		merchant.POST("/tasks/:taskID/slots", taskHandler.CreateSlot)
		merchant.POST("/tasks/:taskID/link", linkHandler.GenerateLink)
		merchant.GET("/slots/:slotID/bookings", bookingHandler.ListBookingsBySlot)
	}

	linked := router.Group("/public/tasks/:taskID")
	linked.Use(ratelimit.Middleware(limiter, "public"), signedlink.Middleware(signer))
	{
		linked.GET("/slots", taskHandler.ListSlots)
		linked.POST("/slots/:slotID/book", bookingHandler.BookSlotPublic)
	}

	router.GET("/public/links/verify", linkHandler.VerifyLink)

	router.GET("/health", Health)
	router.GET("/ready", Readiness(db))
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}, nil
}

func newLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return ratelimit.NewRedisLimiter(client, int64(cfg.RateLimitBurst), time.Minute)
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
