package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/izzyjosh/brandai/internal/auth"
	"github.com/izzyjosh/brandai/internal/cache"
	"github.com/izzyjosh/brandai/internal/config"
	"github.com/izzyjosh/brandai/internal/crypto"
	"github.com/izzyjosh/brandai/internal/github"
	"github.com/izzyjosh/brandai/internal/handlers"
	"github.com/izzyjosh/brandai/internal/metrics"
	"github.com/izzyjosh/brandai/internal/middleware"
	"github.com/izzyjosh/brandai/internal/retry"
	"github.com/izzyjosh/brandai/internal/services"
	"github.com/izzyjosh/brandai/internal/store"
	"github.com/izzyjosh/brandai/internal/token"
	"github.com/izzyjosh/brandai/internal/version"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

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
	fmt.Println("GitHub authentication and activity aggregation backend")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the API server")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
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

	rec := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}

	cipher, err := crypto.New(cfg.EncryptionSecret)
	if err != nil {
		log.Fatalf("Failed to initialize token cipher: %v", err)
	}

	stateCache, repoCache, cacheClosers, err := buildCaches(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	issuer := token.New(cfg)
	provider := auth.NewProvider(cfg)

	apiHTTPClient := retry.NewClient(
		retry.WithMaxRetries(cfg.GitHubMaxRetries),
		retry.WithInitialRetryDelay(cfg.GitHubRetryDelay),
		retry.WithHTTPClient(&http.Client{Timeout: cfg.GitHubAPITimeout}),
	)
	ghClient := github.NewClient(cfg.GitHubAPIBaseURL, apiHTTPClient, rec)

	authService := services.NewAuthService(cfg, provider, db, issuer, cipher, stateCache, rec)
	activityService := services.NewActivityService(cfg, ghClient, cipher, repoCache)

	authHandler := handlers.NewAuthHandler(authService)
	activityHandler := handlers.NewActivityHandler(activityService)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	if cfg.RateLimitEnabled {
		authRoutes.Use(middleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute))
	}
	{
		authRoutes.GET("/github/login", authHandler.Login)
		authRoutes.GET("/github/callback", authHandler.Callback)
		authRoutes.POST("/device/code", authHandler.DeviceCode)
		authRoutes.POST("/device/verify", authHandler.DeviceVerify)
		authRoutes.GET("/me",
			middleware.RequireSession(issuer, db, rec), authHandler.Me)
		authRoutes.PATCH("/me/preferences",
			middleware.RequireSession(issuer, db, rec), authHandler.UpdatePreferences)
	}

	activityRoutes := api.Group("/activity", middleware.RequireSession(issuer, db, rec))
	{
		activityRoutes.GET("/repos", activityHandler.Repos)
		activityRoutes.GET("/pushes", activityHandler.Pushes)
		activityRoutes.GET("/pull-requests", activityHandler.PullRequests)
		activityRoutes.GET("/issues", activityHandler.Issues)
		activityRoutes.GET("/commits", activityHandler.Commits)
		activityRoutes.GET("/summary", activityHandler.Summary)
	}

	log.Printf("BrandAI server starting on %s", cfg.ServerAddr)
	log.Printf("GitHub OAuth callback: %s", cfg.GitHubRedirectURI)

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

	m.AddShutdownJob(func() error {
		for _, closeCache := range cacheClosers {
			if err := closeCache(); err != nil {
				log.Printf("Error closing cache: %v", err)
			}
		}
		return nil
	})

	<-m.Done()
}

// buildCaches selects the cache backend for OAuth state tracking and the
// fan-out repository listing.
func buildCaches(cfg *config.Config) (
	cache.Cache[string],
	cache.Cache[[]github.Repository],
	[]func() error,
	error,
) {
	if cfg.CacheType == config.CacheTypeRedis {
		states, err := cache.NewRueidisCache[string](
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "brandai:")
		if err != nil {
			return nil, nil, nil, err
		}
		repos, err := cache.NewRueidisCache[[]github.Repository](
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "brandai:")
		if err != nil {
			states.Close()
			return nil, nil, nil, err
		}
		log.Printf("Using Redis cache at %s", cfg.RedisAddr)
		return states, repos, []func() error{states.Close, repos.Close}, nil
	}

	states := cache.NewMemoryCache[string]()
	repos := cache.NewMemoryCache[[]github.Repository]()
	return states, repos, []func() error{states.Close, repos.Close}, nil
}
