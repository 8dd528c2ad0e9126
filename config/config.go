package config

import (
	"fmt"
	"log"
	"time"

	"classched/services/scheduling"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	MaxUploadBytes    int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	// Storage backends.
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	DatabaseName  string        `mapstructure:"DATABASE_NAME"`
	LedgerBackend string        `mapstructure:"LEDGER_BACKEND"` // "mongo" or "memory"
	LockBackend   string        `mapstructure:"LOCK_BACKEND"`   // "local" or "redis"
	LockTTL       time.Duration `mapstructure:"LOCK_TTL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisJobsDB   int    `mapstructure:"REDIS_JOBS_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Ingestion.
	IngestWorkers      int           `mapstructure:"INGEST_WORKERS"`
	AsyncIngestEnabled bool          `mapstructure:"ASYNC_INGEST_ENABLED"`
	JobReportTTL       time.Duration `mapstructure:"JOB_REPORT_TTL"`

	// Scheduling rules.
	ClassDuration        int    `mapstructure:"CLASS_DURATION"` // minutes
	MaxClassesStudent    int    `mapstructure:"MAX_CLASSES_STUDENT"`
	MaxClassesInstructor int    `mapstructure:"MAX_CLASSES_INSTRUCTOR"`
	MaxClassesClassType  int    `mapstructure:"MAX_CLASSES_CLASS_TYPE"`
	Timezone             string `mapstructure:"TIMEZONE"`

	// Cloudinary archive for uploaded files. Disabled when the cloud name is empty.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	UploadArchiveFolder string `mapstructure:"UPLOAD_ARCHIVE_FOLDER"`
}

var AppConfig Config

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "classched")
	v.SetDefault("LEDGER_BACKEND", "mongo")
	v.SetDefault("LOCK_BACKEND", "local")
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LOCK_DB", 0)
	v.SetDefault("REDIS_JOBS_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("INGEST_WORKERS", 8)
	v.SetDefault("ASYNC_INGEST_ENABLED", false)
	v.SetDefault("JOB_REPORT_TTL", "24h")
	v.SetDefault("CLASS_DURATION", 60)
	v.SetDefault("MAX_CLASSES_STUDENT", 3)
	v.SetDefault("MAX_CLASSES_INSTRUCTOR", 5)
	v.SetDefault("MAX_CLASSES_CLASS_TYPE", 10)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("UPLOAD_ARCHIVE_FOLDER", "registrations")
}

func LoadConfig() {
	v := viper.GetViper()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	cfg, err := Decode(v)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// QuotaConfig builds the scheduling rules and validates them.
// A bad duration, limit or timezone is a startup error.
func (c Config) QuotaConfig() (scheduling.DailyQuotaConfig, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return scheduling.DailyQuotaConfig{}, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	quota := scheduling.DailyQuotaConfig{
		ClassDuration:    time.Duration(c.ClassDuration) * time.Minute,
		MaxPerStudent:    c.MaxClassesStudent,
		MaxPerInstructor: c.MaxClassesInstructor,
		MaxPerClassType:  c.MaxClassesClassType,
		Location:         loc,
	}
	if err := quota.Validate(); err != nil {
		return scheduling.DailyQuotaConfig{}, err
	}
	return quota, nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
