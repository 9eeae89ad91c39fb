package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	api "github.com/rpupo63/campus-connect-backend/api"
	"github.com/rpupo63/campus-connect-backend/config"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/database/memory"
	"github.com/rpupo63/campus-connect-backend/database/mongodb"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rpupo63/campus-connect-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	env := config.New()
	settings := config.Load(env)
	fmt.Printf("DB_TYPE: %s\n", settings.DBType)

	// If generating models, run generation and exit
	if strings.ToLower(config.GetString(env, "GENERATE_MODELS", "")) == "true" {
		db, err := database.Open(settings.PostgresDSN, "")
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		fmt.Println("Generating models and query helpers...")
		models.GenerateModels(db)
		return
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	currentDB, err := openStore(settings, metrics)
	if err != nil {
		log.Fatal().Err(err).Str("dbType", settings.DBType).Msg("Error opening store")
	}

	media, err := newMediaUploader(settings)
	if err != nil {
		log.Fatal().Err(err).Str("provider", settings.MediaProvider).Msg("Error configuring media host")
	}

	var verifier services.IdentityVerifier
	if settings.ClerkJWTKey != "" {
		jwtVerifier, err := services.NewJWTVerifier(settings.ClerkJWTKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing CLERK_JWT_KEY")
		}
		verifier = jwtVerifier
	} else {
		log.Warn().Msg("CLERK_JWT_KEY not set, requests are identified by the userId they carry")
	}

	policy := services.ContributorsLenient
	if settings.StrictContributors {
		policy = services.ContributorsStrict
	}

	users := services.NewUserDirectory(currentDB.UserRepo(), settings.UserCacheTTL, settings.StoreTimeout, metrics)
	feed := services.NewFeedService(currentDB, users, media,
		services.WithFeedMetrics(metrics),
		services.WithStoreTimeout(settings.StoreTimeout),
		services.WithContributorsPolicy(policy),
	)
	chat := services.NewChatService(currentDB.MessageRepo(), users, metrics, settings.StoreTimeout)
	reconciler := services.NewReconciler(currentDB, metrics, settings.StoreTimeout)

	if settings.ReconcileSchedule != "" {
		if err := reconciler.Start(settings.ReconcileSchedule); err != nil {
			log.Fatal().Err(err).Msg("Error scheduling reconciler")
		}
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(settings, api.Dependencies{
		Database:   currentDB,
		Feed:       feed,
		Chat:       chat,
		Users:      users,
		Reconciler: reconciler,
		Metrics:    metrics,
		Gatherer:   registry,
		Verifier:   verifier,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reconciler.Stop(stopCtx)
	if err := currentDB.Close(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error closing store")
	}
}

// openStore connects the backend named by DB_TYPE.
func openStore(settings config.Settings, metrics *services.Metrics) (database.Database, error) {
	switch settings.DBType {
	case config.StorePostgres, config.StoreSupabase:
		fmt.Println("Connecting to Postgres database...")
		db, err := database.Open(settings.PostgresDSN, settings.ReadReplicaDSN)
		if err != nil {
			return database.Database{}, err
		}
		if err := models.Migrate(db); err != nil {
			return database.Database{}, err
		}
		return database.New(db), nil
	case config.StoreMongo:
		fmt.Println("Connecting to MongoDB...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mongodb.New(ctx, settings.MongoURI, mongodb.WithWarningRecorder(metrics.RecordConsistencyWarning))
	case config.StoreMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return memory.New().Database(), nil
	default:
		return database.Database{}, fmt.Errorf("unsupported DB_TYPE %q", settings.DBType)
	}
}

func newMediaUploader(settings config.Settings) (services.MediaUploader, error) {
	switch settings.MediaProvider {
	case "imagekit":
		if settings.ImageKitPrivateKey == "" {
			return nil, fmt.Errorf("IMAGEKIT_PRIVATE_KEY is required when MEDIA_PROVIDER=imagekit")
		}
		return services.NewImageKitUploader(settings.ImageKitPrivateKey, settings.ImageKitEndpoint, settings.ImageKitFolder), nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return services.NewS3Uploader(ctx, services.S3Options{
			Bucket:          settings.S3Bucket,
			Region:          settings.S3Region,
			PublicBaseURL:   settings.S3PublicBaseURL,
			Endpoint:        settings.S3Endpoint,
			AccessKeyID:     settings.S3AccessKeyID,
			SecretAccessKey: settings.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unsupported MEDIA_PROVIDER %q", settings.MediaProvider)
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
