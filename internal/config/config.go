// backend-go/internal/config/config.go
package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Alerts   AlertConfig
	Export   ExportConfig
	Drive    DriveConfig
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
	MaxConns int
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	StoreMappingTTL   time.Duration
	AlertBatchTTLSecs int
}

// EngineConfig holds the replenishment engine knobs. Everything that looks
// like a magic number in the heuristics lives here.
type EngineConfig struct {
	TaxMultiplier        float64
	WindowDays           int
	ReorderThresholdDays float64
	FetchTimeout         time.Duration
	WorkerCount          int
	TopProductsLimit     int
}

// AlertConfig holds the redistribution-alert thresholds. Exact severity
// cutoffs are operator-tunable, not hard-coded.
type AlertConfig struct {
	LowStockFloor         float64 // units below which a store is "bajo stock"
	HighSalesSharePct     float64 // share marking a store as a top contributor
	LowSalesSharePct      float64 // share below which excess stock is transferable
	ExcessStockFloor      float64 // units above which a low-share store has excess
	SeverityAltaStores    int     // affected-store count for "alta"
	SeverityMediaStores   int     // affected-store count for "media"
	SeverityAltaRatio     float64 // need/excess magnitude ratio for "alta"
	SeverityMediaRatio    float64 // need/excess magnitude ratio for "media"
	SeverityAltaSharePct  float64 // uncovered sales share for "alta"
	SeverityMediaSharePct float64 // uncovered sales share for "media"
}

type ExportConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	OverridesFolder string
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
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "retail")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_CONNS", 25)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_STORE_MAPPING_TTL_HOURS", 24)
		viper.SetDefault("CACHE_ALERT_BATCH_TTL_SECONDS", 300)
		viper.SetDefault("ENGINE_TAX_MULTIPLIER", 1.22)
		viper.SetDefault("ENGINE_WINDOW_DAYS", 180)
		viper.SetDefault("ENGINE_REORDER_THRESHOLD_DAYS", 45.0)
		viper.SetDefault("ENGINE_FETCH_TIMEOUT_SECONDS", 15)
		viper.SetDefault("ENGINE_WORKER_COUNT", 10)
		viper.SetDefault("ENGINE_TOP_PRODUCTS_LIMIT", 50)
		viper.SetDefault("ALERT_LOW_STOCK_FLOOR", 5.0)
		viper.SetDefault("ALERT_HIGH_SALES_SHARE_PCT", 20.0)
		viper.SetDefault("ALERT_LOW_SALES_SHARE_PCT", 5.0)
		viper.SetDefault("ALERT_EXCESS_STOCK_FLOOR", 10.0)
		viper.SetDefault("ALERT_SEVERITY_ALTA_STORES", 3)
		viper.SetDefault("ALERT_SEVERITY_MEDIA_STORES", 2)
		viper.SetDefault("ALERT_SEVERITY_ALTA_RATIO", 2.0)
		viper.SetDefault("ALERT_SEVERITY_MEDIA_RATIO", 1.0)
		viper.SetDefault("ALERT_SEVERITY_ALTA_SHARE_PCT", 50.0)
		viper.SetDefault("ALERT_SEVERITY_MEDIA_SHARE_PCT", 25.0)
		viper.SetDefault("EXPORT_ENABLED", false)
		viper.SetDefault("EXPORT_ENDPOINT", "")
		viper.SetDefault("EXPORT_ACCESS_KEY", "")
		viper.SetDefault("EXPORT_SECRET_KEY", "")
		viper.SetDefault("EXPORT_BUCKET", "")
		viper.SetDefault("EXPORT_USE_SSL", true)
		viper.SetDefault("DRIVE_CREDENTIALS_JSON", "")
		viper.SetDefault("DRIVE_OVERRIDES_FOLDER", "")

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
				MaxConns: viper.GetInt("DB_MAX_CONNS"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				StoreMappingTTL:   time.Duration(viper.GetInt("CACHE_STORE_MAPPING_TTL_HOURS")) * time.Hour,
				AlertBatchTTLSecs: viper.GetInt("CACHE_ALERT_BATCH_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				TaxMultiplier:        viper.GetFloat64("ENGINE_TAX_MULTIPLIER"),
				WindowDays:           viper.GetInt("ENGINE_WINDOW_DAYS"),
				ReorderThresholdDays: viper.GetFloat64("ENGINE_REORDER_THRESHOLD_DAYS"),
				FetchTimeout:         time.Duration(viper.GetInt("ENGINE_FETCH_TIMEOUT_SECONDS")) * time.Second,
				WorkerCount:          viper.GetInt("ENGINE_WORKER_COUNT"),
				TopProductsLimit:     viper.GetInt("ENGINE_TOP_PRODUCTS_LIMIT"),
			},
			Alerts: AlertConfig{
				LowStockFloor:         viper.GetFloat64("ALERT_LOW_STOCK_FLOOR"),
				HighSalesSharePct:     viper.GetFloat64("ALERT_HIGH_SALES_SHARE_PCT"),
				LowSalesSharePct:      viper.GetFloat64("ALERT_LOW_SALES_SHARE_PCT"),
				ExcessStockFloor:      viper.GetFloat64("ALERT_EXCESS_STOCK_FLOOR"),
				SeverityAltaStores:    viper.GetInt("ALERT_SEVERITY_ALTA_STORES"),
				SeverityMediaStores:   viper.GetInt("ALERT_SEVERITY_MEDIA_STORES"),
				SeverityAltaRatio:     viper.GetFloat64("ALERT_SEVERITY_ALTA_RATIO"),
				SeverityMediaRatio:    viper.GetFloat64("ALERT_SEVERITY_MEDIA_RATIO"),
				SeverityAltaSharePct:  viper.GetFloat64("ALERT_SEVERITY_ALTA_SHARE_PCT"),
				SeverityMediaSharePct: viper.GetFloat64("ALERT_SEVERITY_MEDIA_SHARE_PCT"),
			},
			Export: ExportConfig{
				Enabled:   viper.GetBool("EXPORT_ENABLED"),
				Endpoint:  viper.GetString("EXPORT_ENDPOINT"),
				AccessKey: viper.GetString("EXPORT_ACCESS_KEY"),
				SecretKey: viper.GetString("EXPORT_SECRET_KEY"),
				Bucket:    viper.GetString("EXPORT_BUCKET"),
				UseSSL:    viper.GetBool("EXPORT_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("DRIVE_CREDENTIALS_JSON"),
				OverridesFolder: viper.GetString("DRIVE_OVERRIDES_FOLDER"),
			},
		}
	})

	return instance
}
