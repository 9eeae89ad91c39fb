package config

import (
	"fmt"
	"time"
)

// Store backends selectable through DB_TYPE.
const (
	StorePostgres = "postgres"
	StoreSupabase = "supa"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Settings is the typed view over the environment used by main and the api package.
type Settings struct {
	Port            string
	AcceptedOrigins []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxUploadBytes  int64

	DBType             string
	PostgresDSN        string
	ReadReplicaDSN     string
	MongoURI           string
	StoreTimeout       time.Duration
	UserCacheTTL       time.Duration
	StrictContributors bool

	MediaProvider      string
	ImageKitPrivateKey string
	ImageKitEndpoint   string
	ImageKitFolder     string
	S3Bucket           string
	S3Region           string
	S3PublicBaseURL    string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string

	ClerkJWTKey string

	RateLimitPerSecond float64
	RateLimitBurst     int

	ReconcileSchedule string
	AdminToken        string
}

// Load builds Settings from an environment map produced by New.
func Load(c map[string]string) Settings {
	s := Settings{
		Port:            GetString(c, "PORT", "8080"),
		AcceptedOrigins: GetList(c, "ACCEPTED_ORIGINS"),
		ReadTimeout:     GetSeconds(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		WriteTimeout:    GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:     GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
		MaxUploadBytes:  int64(GetInt(c, "MAX_UPLOAD_MB", 10)) << 20,

		DBType:             GetString(c, "DB_TYPE", StorePostgres),
		ReadReplicaDSN:     GetString(c, "DB_READ_REPLICA_DSN", ""),
		MongoURI:           GetString(c, "MONGO_URI", "mongodb://localhost:27017/campus"),
		StoreTimeout:       GetSeconds(c, "STORE_TIMEOUT_SECONDS", 10*time.Second),
		UserCacheTTL:       GetSeconds(c, "USER_CACHE_TTL_SECONDS", 5*time.Minute),
		StrictContributors: GetBool(c, "STRICT_CONTRIBUTORS", false),

		MediaProvider:      GetString(c, "MEDIA_PROVIDER", "imagekit"),
		ImageKitPrivateKey: GetString(c, "IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitEndpoint:   GetString(c, "IMAGEKIT_UPLOAD_ENDPOINT", "https://upload.imagekit.io/api/v1/files/upload"),
		ImageKitFolder:     GetString(c, "IMAGEKIT_FOLDER", "/projects"),
		S3Bucket:           GetString(c, "S3_BUCKET", ""),
		S3Region:           GetString(c, "S3_REGION", "us-east-1"),
		S3PublicBaseURL:    GetString(c, "S3_PUBLIC_BASE_URL", ""),
		S3Endpoint:         GetString(c, "S3_ENDPOINT", ""),
		S3AccessKeyID:      GetString(c, "S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  GetString(c, "S3_SECRET_ACCESS_KEY", ""),

		ClerkJWTKey: GetString(c, "CLERK_JWT_KEY", ""),

		RateLimitPerSecond: GetFloat(c, "RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     GetInt(c, "RATE_LIMIT_BURST", 20),

		ReconcileSchedule: GetString(c, "RECONCILE_SCHEDULE", "@every 10m"),
		AdminToken:        GetString(c, "ADMIN_TOKEN", ""),
	}

	switch s.DBType {
	case StoreSupabase:
		s.PostgresDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			GetString(c, "SUPABASE_DB_HOST", ""),
			GetString(c, "SUPABASE_DB_USER", ""),
			GetString(c, "SUPABASE_DB_PASSWORD", ""),
			GetString(c, "SUPABASE_DB_NAME", ""),
			GetString(c, "SUPABASE_DB_PORT", "5432"),
		)
	case StorePostgres:
		s.PostgresDSN = GetString(c, "DATABASE_URL", fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			GetString(c, "DB_HOST", "localhost"),
			GetString(c, "DB_USER", "postgres"),
			GetString(c, "DB_PASSWORD", ""),
			GetString(c, "DB_NAME", "campus"),
			GetString(c, "DB_PORT", "5432"),
			GetString(c, "DB_SSLMODE", "disable"),
		))
	}

	return s
}
