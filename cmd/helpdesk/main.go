package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/handlers"
	"helpdesk-triage-go/internal/mailbox"
	"helpdesk-triage-go/internal/metrics"
	"helpdesk-triage-go/internal/notify"
	"helpdesk-triage-go/internal/pipeline"
	"helpdesk-triage-go/internal/scheduler"
	"helpdesk-triage-go/internal/store"
	"helpdesk-triage-go/internal/triage"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Helpdesk Triage Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	m := metrics.NewMetrics()

	var gateway mailbox.Gateway
	if cfg.Mailbox.UseIMAP {
		gateway, err = mailbox.NewIMAPGateway(&cfg.Mailbox)
		if err != nil {
			logrus.Fatalf("Failed to create IMAP gateway: %v", err)
		}
		logrus.Info("Using IMAP for mailbox polling")
	} else {
		gateway, err = mailbox.NewGmailGateway(&cfg.Mailbox)
		if err != nil {
			logrus.Fatalf("Failed to create Gmail gateway: %v", err)
		}
		logrus.Info("Using Gmail API for mailbox polling")
	}

	classifier := triage.NewLLMClassifier(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Triage.MaxBodyChars)

	notifier, err := notify.NewGmailNotifier(&cfg.Mailbox)
	if err != nil {
		logrus.Fatalf("Failed to create notifier: %v", err)
	}

	st := store.New(db)
	p := pipeline.New(gateway, classifier, st, notifier, m, &cfg.Triage)
	sched := scheduler.NewScheduler(&cfg.Scheduler, p)

	h := handlers.NewHandlers(db, st, sched, notifier, cfg)

	router := setupRouter(h)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := gateway.Close(); err != nil {
		logrus.Errorf("Failed to close mailbox gateway: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}

// initDatabase initializes the database connection and runs migrations
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database initialized successfully")
	return db, nil
}

// setupRouter sets up the HTTP router with middleware
func setupRouter(h *handlers.Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())

	h.SetupRoutes(router)

	return router
}

// loggerMiddleware adds logging middleware
func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}
