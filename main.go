package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bryceheller922-ship-it/Archaleon/internal/api"
	"github.com/bryceheller922-ship-it/Archaleon/internal/api/ws"
	"github.com/bryceheller922-ship-it/Archaleon/internal/billing"
	"github.com/bryceheller922-ship-it/Archaleon/internal/cache"
	"github.com/bryceheller922-ship-it/Archaleon/internal/config"
	"github.com/bryceheller922-ship-it/Archaleon/internal/db"
	"github.com/bryceheller922-ship-it/Archaleon/internal/email"
	"github.com/bryceheller922-ship-it/Archaleon/internal/identity"
	"github.com/bryceheller922-ship-it/Archaleon/internal/outbox"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
	"github.com/bryceheller922-ship-it/Archaleon/internal/storage"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
	"github.com/bryceheller922-ship-it/Archaleon/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background worker), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Remote document database. Optional: without it the marketplace runs
	// purely on the local snapshot and auth is unavailable.
	var mongoDb *mongo.Database
	if cfg.MongoURI != "" {
		mongoClient, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() {
			if err := db.DisconnectDB(mongoClient); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		mongoDb = database
	} else {
		log.Println("MONGO_URI not set: running on the local snapshot only.")
	}

	// Redis. Optional: carries queued remote writes and email delivery.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := cache.DisconnectRedis(redisClient); err != nil {
				log.Printf("Error disconnecting from Redis: %v", err)
			}
		}()
	}

	// Initialize Email Sender
	var emailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" && redisClient != nil {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		emailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		emailSender = email.NewSMTPSender(cfg)
	}

	// Task client and the outbox behind mutations. With Redis the outbox
	// goes through asynq and survives restarts; without it remote writes
	// are applied inline on a best-effort goroutine.
	var taskClient *asynq.Client
	var out outbox.Outbox
	var inline *outbox.Inline
	var remoteClient remote.Client
	if mongoDb != nil {
		remoteClient = remote.NewMongoClient(mongoDb)
	}
	if redisClient != nil {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
		out = tasks.NewAsynqOutbox(taskClient)
	} else if remoteClient != nil {
		inline = outbox.NewInline(remoteClient)
		out = inline
	}

	// Password reset delivery follows the same split.
	var resetMailer identity.ResetMailer
	if taskClient != nil {
		resetMailer = tasks.NewQueueResetMailer(cfg, taskClient)
	} else {
		resetMailer = tasks.NewDirectResetMailer(cfg, emailSender)
	}

	// Identity provider (requires the document database for accounts).
	var provider identity.Provider
	if mongoDb != nil {
		provider = identity.NewMongoProvider(mongoDb, resetMailer, cfg.JwtSecret, cfg.SessionTTL)
	}

	// Local snapshot store.
	file := store.NewFile(cfg.SnapshotPath)
	bus := store.NewBus()
	dataStore := store.New(file, bus, remoteClient, out, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dataStore.Start(ctx)

	// S3 media uploads. Optional.
	var s3Storage storage.IS3Storage
	if cfg.AwsRegion != "" && cfg.AwsS3Bucket != "" {
		s3Storage, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	}

	checkout := billing.NewCheckout(cfg.PaymentLinks)

	// Change-feed websocket bridge.
	notifier := ws.NewNotifier(bus)
	notifierStop := make(chan struct{})
	go notifier.Run(notifierStop)

	var wg sync.WaitGroup

	// --- Mode-specific servers ---
	var apiSrv *http.Server
	var taskSrv *asynq.Server

	fmt.Printf("Starting Archaleon in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		router := api.SetupRouter(cfg, dataStore, s3Storage, checkout, notifier)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		if redisClient == nil {
			log.Println("REDIS_ADDR not set: background worker disabled.")
			return
		}
		processor := tasks.NewTaskProcessor(cfg, emailSender, remoteClient)
		srv, mux := tasks.SetupServer(redisClient, processor)
		taskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Println("Background task server starting...")
			if err := taskSrv.Run(mux); err != nil {
				log.Fatalf("Background task server error: %v", err)
			}
			fmt.Println("Background task server stopped.")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	cancel() // stops the store's refresh loop
	close(notifierStop)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		fmt.Println("Shutting down API server...")
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}

	if taskSrv != nil {
		fmt.Println("Shutting down background task server...")
		taskSrv.Shutdown()
	}

	if inline != nil {
		// Let in-flight remote writes drain before the process exits.
		inline.Wait()
	}

	wg.Wait()
	fmt.Println("Application shut down.")
}
