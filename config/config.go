package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with simple defaults.
type Config struct {
	ServerPort string

	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO blob store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Decoding: "beep" (pure Go) or "ffmpeg" (external binary)
	DecoderBackend string
	FFmpegPath     string

	// Waveform extraction
	WaveformBars      int   // peak bars per waveform
	WaveformCacheMax  int   // durable cache entry cap
	WaveformMaxBytes  int64 // remote fetch byte budget
	WaveformCacheTTL  int   // entry lifetime in hours, 0 keeps entries until evicted
	WaveformHTTPLimit int   // seconds before a remote fetch is abandoned

	// Analysis
	AnalysisMaxBytes   int64   // input truncated to this before decoding
	AnalysisMaxSeconds float64 // window bound for both analysis passes
	TempoMinBPM        float64
	TempoMaxBPM        float64

	// Player
	PreviousRestartSeconds float64 // previous() restarts instead of skipping past this position

	// Persistence
	DebounceMillis int // queue write coalescing interval

	// Import watch folder
	ImportDir         string
	ImportQuietMillis int // a file must be stable this long before import

	// Optional bearer auth; empty runs the server unauthenticated with a
	// fixed anonymous user.
	AuthJWTSecret string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "audiolab"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "audiolab"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		DecoderBackend: getEnv("DECODER_BACKEND", "beep"),
		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),

		WaveformBars:      getEnvInt("WAVEFORM_BARS", 150),
		WaveformCacheMax:  getEnvInt("WAVEFORM_CACHE_MAX", 50),
		WaveformMaxBytes:  getEnvInt64("WAVEFORM_MAX_BYTES", 25<<20),
		WaveformCacheTTL:  getEnvInt("WAVEFORM_CACHE_TTL_HOURS", 0),
		WaveformHTTPLimit: getEnvInt("WAVEFORM_HTTP_TIMEOUT", 30),

		AnalysisMaxBytes:   getEnvInt64("ANALYSIS_MAX_BYTES", 10<<20),
		AnalysisMaxSeconds: getEnvFloat("ANALYSIS_MAX_SECONDS", 60),
		TempoMinBPM:        getEnvFloat("TEMPO_MIN_BPM", 60),
		TempoMaxBPM:        getEnvFloat("TEMPO_MAX_BPM", 200),

		PreviousRestartSeconds: getEnvFloat("PREVIOUS_RESTART_SECONDS", 3),

		DebounceMillis: getEnvInt("PERSIST_DEBOUNCE_MS", 1000),

		ImportDir:         getEnv("IMPORT_DIR", "imports"),
		ImportQuietMillis: getEnvInt("IMPORT_QUIET_MS", 2000),

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
