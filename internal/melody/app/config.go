package app

import (
	"os"
	"strconv"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/pkg/jwtx"
)

type Config struct {
	MongoURL  string // Required: MongoDB connection string (database name taken from the URI path)
	JWTSecret string // Required: shared HS256 secret for the access/refresh pair
	Issuer    string // Optional: issuer claim for tokens (default: addismelody)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 7d)

	BlobDriver string // Optional: media storage driver (disk, s3) (default: disk)
	UploadDir  string // Optional: directory for the disk driver (default: ./uploads)

	S3Endpoint  string // Required with BlobDriver=s3: MinIO/S3 endpoint
	S3AccessKey string // Required with BlobDriver=s3
	S3SecretKey string // Required with BlobDriver=s3
	S3Bucket    string // Optional: bucket for song media (default: melody-media)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		MongoURL:  os.Getenv("MONGO_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Issuer:    getEnvOrDefault("MELODY_ISSUER", "addismelody"),

		AccessTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		BlobDriver: getEnvOrDefault("BLOB_DRIVER", "disk"),
		UploadDir:  getEnvOrDefault("UPLOAD_DIR", "uploads"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    getEnvOrDefault("S3_BUCKET", "melody-media"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
