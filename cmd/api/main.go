package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/bakery-api/internal/config"
	"github.com/flicky/bakery-api/internal/handler"
	"github.com/flicky/bakery-api/internal/middleware"
	"github.com/flicky/bakery-api/internal/payment"
	"github.com/flicky/bakery-api/internal/realtime"
	"github.com/flicky/bakery-api/internal/repository"
	"github.com/flicky/bakery-api/internal/service"
	"github.com/flicky/bakery-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel consumes, one publishes.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()

	queue, err := worker.SetupRabbitMQ(consumeCh)
	if err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ", "queue", queue)

	// Kafka is optional.
	var feedbackPub *service.KafkaFeedbackPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaWriter := service.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.FeedbackTopic)
		defer kafkaWriter.Close()
		feedbackPub = service.NewKafkaFeedbackPublisher(kafkaWriter)
		log.Info("feedback stream enabled", "topic", cfg.Kafka.FeedbackTopic)
	}

	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set, checkout will fail")
	}
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	orderEvents := worker.NewOrderEventPublisher(publishCh)
	hub := realtime.NewHub(log)

	// Repositories
	roleRepo := repository.NewRoleRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartStore := repository.NewCartStore(redisClient)
	orderRepo := repository.NewOrderRepository(dbPool)
	feedbackRepo := repository.NewFeedbackRepository(dbPool)
	ingredientRepo := repository.NewIngredientRepository(dbPool)
	inventoryRepo := repository.NewInventoryRepository(dbPool)

	// Services
	sessionSvc := service.NewSessionService(roleRepo, redisClient, cfg.Auth.JWTSecret, cfg.Auth.RoleCacheTTL)
	productSvc := service.NewProductService(productRepo, redisClient)
	cartSvc := service.NewCartService(cartStore, productRepo)
	checkoutSvc := service.NewCheckoutService(orderRepo, cartStore, gateway, orderEvents, cfg.Stripe.Currency, log)
	orderSvc := service.NewOrderService(orderRepo, feedbackRepo, orderEvents, feedbackPub, log)
	inventorySvc := service.NewInventoryService(ingredientRepo, inventoryRepo)

	// Handlers
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)
	sessionH := handler.NewSessionHandler(sessionSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc, gateway, orderSvc, cfg.Stripe.PublishableKey, log)
	orderH := handler.NewOrderHandler(orderSvc, cfg.App.BaseURL)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	liveH := handler.NewLiveHandler(hub, cfg.CORS.AllowedOrigins, log)

	// Worker
	eventWorker := worker.NewOrderEventWorker(consumeCh, queue, hub, log)

	// Router
	router := gin.New()
	router.Use(middleware.AccessLog(gin.DefaultWriter), gin.Recovery())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	auth := middleware.AuthMiddleware(sessionSvc)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/payments/config", checkoutH.PaymentConfig)
		v1.OPTIONS("/payments/config", checkoutH.PaymentConfig)
		v1.POST("/webhooks/stripe", checkoutH.Webhook)

		v1.GET("/products", productH.List)
		v1.GET("/products/:id", productH.GetByID)

		v1.GET("/session", auth, sessionH.Get)
		v1.POST("/auth/logout", auth, sessionH.Logout)

		cart := v1.Group("/cart", auth)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PATCH("/items/:product_id", cartH.UpdateItem)
		cart.DELETE("/items/:product_id", cartH.DeleteItem)

		v1.POST("/checkout", auth, checkoutH.Checkout)

		orders := v1.Group("/orders", auth)
		orders.GET("", orderH.ListOrders)
		orders.GET("/live", liveH.Orders)
		orders.GET("/:id", orderH.GetOrder)
		orders.GET("/:id/qrcode", orderH.QRCode)
		orders.POST("/:id/feedback", orderH.SubmitFeedback)

		admin := v1.Group("/admin", auth, middleware.AdminOnly())
		admin.GET("/products", productH.ListAll)
		admin.POST("/products", productH.Create)
		admin.PUT("/products/:id", productH.Update)
		admin.DELETE("/products/:id", productH.Delete)

		admin.GET("/orders", orderH.ListAll)
		admin.GET("/orders/summary", orderH.Summary)
		admin.PATCH("/orders/:id/status", orderH.UpdateStatus)

		admin.GET("/ingredients", inventoryH.ListIngredients)
		admin.POST("/ingredients", inventoryH.CreateIngredient)
		admin.GET("/ingredients/:id", inventoryH.GetIngredient)
		admin.PUT("/ingredients/:id", inventoryH.UpdateIngredient)
		admin.DELETE("/ingredients/:id", inventoryH.DeleteIngredient)
		admin.POST("/ingredients/:id/reconcile", inventoryH.Reconcile)

		admin.POST("/inventory/transactions", inventoryH.RecordTransaction)
		admin.GET("/inventory/transactions", inventoryH.History)
		admin.GET("/inventory/transactions/export", inventoryH.Export)
		admin.GET("/inventory/health", inventoryH.Health)
		admin.GET("/inventory/usage", inventoryH.Usage)
	}

	if err := eventWorker.Start(ctx); err != nil {
		log.Error("start order event worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	eventWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
