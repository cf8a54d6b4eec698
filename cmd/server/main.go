package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	"github.com/arthub/backend/internal/config"
	"github.com/arthub/backend/internal/database"
	"github.com/arthub/backend/internal/handlers"
	"github.com/arthub/backend/internal/logger"
	"github.com/arthub/backend/internal/metrics"
	"github.com/arthub/backend/internal/middleware"
	"github.com/arthub/backend/internal/resilience"
	"github.com/arthub/backend/internal/service"
	"github.com/arthub/backend/internal/store"
	"github.com/arthub/backend/internal/store/local"
	"github.com/arthub/backend/internal/store/relational"
	"github.com/arthub/backend/internal/store/remote"
	"github.com/arthub/backend/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production where config comes from the environment
		os.Stderr.WriteString("no .env file found, using system environment\n")
	}

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Log

	metrics.Initialize()

	st, resMgr, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer st.Close()

	if resMgr != nil {
		resMgr.Start()
		defer resMgr.Stop()
	}

	authSvc := auth.NewService([]byte(cfg.JWTSecret))
	svc := service.New(st, authSvc, log)

	hub := websocket.NewHub(log)
	go hub.Run()
	svc.SetEvents(websocket.NewBroadcaster(hub))
	wsHandler := websocket.NewHandler(hub, svc, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"backend":   cfg.StorageBackend,
			"timestamp": time.Now().UTC(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.New(svc, log)
	h.RegisterRoutes(r)
	r.GET("/api/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("backend", cfg.StorageBackend),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// openStore builds the configured persistence backend. The remote backend
// additionally gets a resilience manager supervising its connection.
func openStore(cfg *config.Config, log *zap.Logger) (store.Store, *resilience.Manager, error) {
	switch cfg.StorageBackend {
	case "local":
		st, err := local.Open(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil

	case "remote":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err := remote.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		mgr := resilience.NewManager(st, log)
		mgr.OnEvent(func(ev resilience.Event) {
			m := metrics.Get()
			m.ConnectionState.Set(float64(ev.State))
			switch ev.Type {
			case resilience.EventReconnecting:
				m.ReconnectAttempts.Inc()
			case resilience.EventDegraded, resilience.EventUnrecoverable:
				m.ConnectionErrorsSeen.WithLabelValues(string(ev.Type)).Inc()
			}
		})
		return st, mgr, nil

	default: // relational
		db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, err
		}
		return relational.New(db), nil, nil
	}
}
