package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/cache"
	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/handlers"
	"github.com/KunArthit/petterrain-api-sub000/kafka"
	"github.com/KunArthit/petterrain-api-sub000/logger"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/notification"
	"github.com/KunArthit/petterrain-api-sub000/services"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zl, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, AttachStacktrace: true}); err != nil {
			zl.Error("Failed to initialize Sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize OpenTelemetry
	shutdownTracing, err := middleware.InitTracing(cfg.Tracing)
	if err != nil {
		zl.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize database
	db, err := database.InitDB(cfg.DB, zl)
	if err != nil {
		zl.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := handlers.RegisterValidators(); err != nil {
		zl.Fatal("Failed to register validators", zap.Error(err))
	}

	var (
		rdb          *redis.Client
		productCache services.ProductReadCache
	)
	if cfg.Redis.Enabled {
		rdb, err = cache.InitRedis(cfg.Redis, zl)
		if err != nil {
			zl.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		productCache = cache.NewProductCache(rdb, cfg.Redis.TTL)
	}

	var (
		publisher *kafka.OrderEventPublisher
		events    services.EventPublisher
	)
	if cfg.Kafka.Enabled {
		producer, err := kafka.InitProducer(cfg.Kafka, zl)
		if err != nil {
			zl.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		publisher = kafka.NewOrderEventPublisher(producer, cfg.Kafka.OrderTopic, nil, zl)
		events = publisher
	}

	catalog := services.NewProductCatalog(db, productCache, zl)
	stock := services.NewStockService(db, productCache, zl)
	orders := services.NewOrderService(db, stock, events, zl)
	reconciler := services.NewReconcileService(orders, zl)
	addresses := services.NewAddressService(db, zl)
	invoices := services.NewInvoiceService(db, addresses, cfg.InvoiceDueDays, zl)
	payments := services.NewPaymentService(db, zl)
	users := services.NewUserService(db, cfg.Security.JWTSecret, cfg.Security.TokenTTL, zl)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumer *kafka.Consumer
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		group, err := kafka.InitConsumerGroup(cfg.Kafka, zl)
		if err != nil {
			zl.Fatal("Failed to initialize Kafka consumer", zap.Error(err))
		}
		dispatcher := notification.NewDispatcher(notification.NewLogMailer(zl), zl)
		consumer = kafka.NewConsumer(group, cfg.Kafka, reconciler, dispatcher, zl)

		// Start Kafka consumer in background
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(consumerCtx); err != nil {
				zl.Error("Kafka consumer error", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	router := handlers.NewRouter(cfg, handlers.Handlers{
		Orders:     handlers.NewOrderHandler(orders, reconciler, zl),
		Invoices:   handlers.NewInvoiceHandler(invoices, zl),
		Payments:   handlers.NewPaymentHandler(payments, zl),
		Products:   handlers.NewProductHandler(catalog, stock, cfg.DefaultLang, zl),
		Categories: handlers.NewCategoryHandler(services.NewLocalizedStore(db, services.CategoryTable()), cfg.DefaultLang, zl),
		BlogPosts:  handlers.NewBlogPostHandler(services.NewLocalizedStore(db, services.BlogPostTable()), cfg.DefaultLang, zl),
		Addresses:  handlers.NewAddressHandler(addresses, zl),
		Auth:       handlers.NewAuthHandler(users, zl),
		Health:     handlers.NewHealthHandler(db),
	}, zl)

	// Start REST server
	restSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := restSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Failed to start REST server", zap.Error(err))
		}
	}()

	zl.Info("Commerce API REST server started", zap.String("addr", cfg.HTTPAddr))

	// Start gRPC server; it carries the standard health service.
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		zl.Fatal("Failed to listen on gRPC port", zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			zl.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	zl.Info("Commerce API gRPC server started", zap.String("addr", cfg.GRPCAddr))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthSrv.Shutdown()
	if err := restSrv.Shutdown(ctx); err != nil {
		zl.Error("REST server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	stopConsumer()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			zl.Error("Failed to close Kafka consumer", zap.Error(err))
		}
	}
	<-consumerDone

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			zl.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		zl.Error("Failed to close database", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zl.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := shutdownTracing(ctx); err != nil {
		zl.Error("Failed to flush traces", zap.Error(err))
	}

	zl.Info("Servers exited")
}
