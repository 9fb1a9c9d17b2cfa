package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
)

type Config struct {
	HTTPPort        string
	CommerceAPIURL  string
	StorageBackend  string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CommerceAPIURL:  getEnv("COMMERCE_API_URL", "http://localhost:9000/api"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storefrontdb"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	storage, cleanupStorage, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up cart storage: %v", err)
	}
	defer cleanupStorage()
	log.Printf("Cart storage backend: %s", cfg.StorageBackend)

	store := cart.NewStore(storage)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("Failed to load cart: %v", err)
	}

	// With Redis backing, other instances announce writes on the change
	// channel; re-read so this instance converges on the latest cart.
	if rs, ok := storage.(*cart.RedisStorage); ok {
		changes, stopListening := rs.Listen(ctx)
		defer stopListening()
		go func() {
			for range changes {
				if err := store.Load(ctx); err != nil {
					log.Printf("failed to reload cart after change broadcast: %v", err)
				}
			}
		}()
	}

	apiClient := catalog.NewClient(cfg.CommerceAPIURL, cfg.RequestTimeout)
	log.Printf("Commerce API at %s", cfg.CommerceAPIURL)

	var publisher events.OrderPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Publishing completed orders to %v", cfg.KafkaBrokers)
	}

	submitter := checkout.NewSubmitter(apiClient, store, publisher)

	sessions := checkout.NewSessions()
	defer sessions.Close()

	cartHandler := h.NewCartHandler(store, apiClient, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(sessions, storage, submitter, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{line_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Post("/shipping", checkoutHandler.SubmitShipping)
				r.Post("/back", checkoutHandler.Back)
				r.Post("/payment", checkoutHandler.SubmitPayment)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func buildStorage(ctx context.Context, cfg *Config) (cart.Storage, func(), error) {
	switch cfg.StorageBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return cart.NewRedisStorage(client), func() { client.Close() }, nil

	case "mongo":
		db, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Client().Disconnect(ctx); err != nil {
				log.Printf("failed to disconnect MongoDB: %v", err)
			}
		}
		return cart.NewMongoStorage(db), cleanup, nil

	default:
		return cart.NewMemoryStorage(), func() {}, nil
	}
}
