package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Collector CollectorConfig
	Storage   StorageConfig
	Engine    EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	SnapshotTTLSeconds int
}

// CollectorConfig points at the Drive folder the store system exports its
// daily CSV files into.
type CollectorConfig struct {
	CredentialsFile string
	FolderID        string
	WebhookPort     string
	PollSeconds     int
}

// StorageConfig is the S3-compatible bucket where generated order sheets are
// archived.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type EngineConfig struct {
	Workers           int
	SimplifiedPending bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenish")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SNAPSHOT_TTL_SECONDS", 600)
		viper.SetDefault("COLLECTOR_CREDENTIALS_FILE", "")
		viper.SetDefault("COLLECTOR_FOLDER_ID", "")
		viper.SetDefault("COLLECTOR_WEBHOOK_PORT", "8081")
		viper.SetDefault("COLLECTOR_POLL_SECONDS", 300)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "order-sheets")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("ENGINE_WORKERS", 8)
		viper.SetDefault("ENGINE_SIMPLIFIED_PENDING", false)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				SnapshotTTLSeconds: viper.GetInt("CACHE_SNAPSHOT_TTL_SECONDS"),
			},
			Collector: CollectorConfig{
				CredentialsFile: viper.GetString("COLLECTOR_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("COLLECTOR_FOLDER_ID"),
				WebhookPort:     viper.GetString("COLLECTOR_WEBHOOK_PORT"),
				PollSeconds:     viper.GetInt("COLLECTOR_POLL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Engine: EngineConfig{
				Workers:           viper.GetInt("ENGINE_WORKERS"),
				SimplifiedPending: viper.GetBool("ENGINE_SIMPLIFIED_PENDING"),
			},
		}
	})

	return instance
}
