package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/handlers"
	"github.com/go-oauthd/oauthd/internal/metrics"
	"github.com/go-oauthd/oauthd/internal/middleware"
	"github.com/go-oauthd/oauthd/internal/services"
	"github.com/go-oauthd/oauthd/internal/store"
	"github.com/go-oauthd/oauthd/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		runServer()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("OAuth 2.0 authorization server")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the OAuth server")
	fmt.Println("\nOptions:")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}

	issuer := token.NewIssuer(cfg)

	// Initialize services
	authorizationService := services.NewAuthorizationService(db, cfg, prometheusMetrics)
	tokenService := services.NewTokenService(db, cfg, issuer, prometheusMetrics)
	deviceService := services.NewDeviceService(db, cfg, prometheusMetrics)
	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)

	// Initialize handlers
	authorizeHandler := handlers.NewAuthorizeHandler(authorizationService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	deviceHandler := handlers.NewDeviceHandler(deviceService, cfg)
	authHandler := handlers.NewAuthHandler(userService)
	clientHandler := handlers.NewClientHandler(clientService)
	userHandler := handlers.NewUserHandler(userService)
	discoveryHandler := handlers.NewDiscoveryHandler(cfg)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Setup session middleware
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("oauth_session", sessionStore))

	// Health check endpoint
	r.GET("/healthz", func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	})

	if cfg.MetricsEnabled {
		log.Printf("Prometheus metrics enabled at /metrics")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// OAuth protocol endpoints (public, called by clients)
	r.GET("/authorize", authorizeHandler.Authorize)
	r.POST("/token", tokenHandler.Token)
	r.POST("/device/authorize", deviceHandler.DeviceCodeRequest)
	r.GET("/.well-known/oauth-authorization-server", discoveryHandler.Metadata)

	// Registration endpoints
	r.POST("/clients", clientHandler.RegisterClient)
	r.POST("/users", userHandler.RegisterUser)

	// Login and session
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Device verification (requires login)
	protected := r.Group("")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/device", deviceHandler.DevicePage)
		protected.POST("/device/approve", deviceHandler.DeviceApprove)
	}

	log.Printf("OAuth server starting on %s", cfg.ServerAddr)
	log.Printf("Verification URL: %s/device", cfg.BaseURL)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	m := graceful.NewManager()

	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})

	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})

	<-m.Done()
}
