package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Expire    int
	}
	CORS struct {
		AllowDomains string
		GlobalDomain string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint     string
		RootUser     string
		RootPassword string
	}
	Storage struct {
		Bucket string
	}
	Trash struct {
		RetentionDays   int
		CleanupInterval time.Duration
		Workers         int
		QueueCapacity   int
	}
	Analytics struct {
		CacheTTL time.Duration
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode  string
		Group string
	}
	DomainName string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		config.JWT.Expire, _ = strconv.Atoi(val)
	}
	if config.JWT.Expire == 0 {
		config.JWT.Expire = 3600 * 24 * 7
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")
	config.CORS.GlobalDomain = os.Getenv("GLOBAL_DOMAIN")

	// Redis
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = os.Getenv("REDIS_HOST")
	config.Redis.Port = os.Getenv("REDIS_PORT")

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	// MinIO
	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")

	config.Storage.Bucket = os.Getenv("STORAGE_BUCKET")
	if config.Storage.Bucket == "" {
		config.Storage.Bucket = "drive-storage"
	}

	// Trash cleanup
	config.Trash.RetentionDays, _ = strconv.Atoi(os.Getenv("TRASH_RETENTION_DAYS"))
	if config.Trash.RetentionDays == 0 {
		config.Trash.RetentionDays = 30
	}
	if val := os.Getenv("TRASH_CLEANUP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Trash.CleanupInterval = d
		}
	}
	if config.Trash.CleanupInterval == 0 {
		config.Trash.CleanupInterval = time.Hour
	}
	config.Trash.Workers, _ = strconv.Atoi(os.Getenv("TRASH_CLEANUP_WORKERS"))
	if config.Trash.Workers == 0 {
		config.Trash.Workers = 5
	}
	config.Trash.QueueCapacity, _ = strconv.Atoi(os.Getenv("TRASH_CLEANUP_QUEUE_CAPACITY"))
	if config.Trash.QueueCapacity == 0 {
		config.Trash.QueueCapacity = 10
	}

	// Analytics cache
	if val := os.Getenv("ANALYTICS_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Analytics.CacheTTL = d
		}
	}
	if config.Analytics.CacheTTL == 0 {
		config.Analytics.CacheTTL = 5 * time.Minute
	}

	// Grafana/OpenTelemetry
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	// Remove protocol for OpenTelemetry client to avoid duplicate protocols
	if strings.HasPrefix(grafanaEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	} else if strings.HasPrefix(grafanaEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = grafanaEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("OTEL_SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "gau-drive-service"
	}

	config.Environment.Mode = os.Getenv("ENV_MODE")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}
	config.Environment.Group = os.Getenv("ENV_GROUP")

	config.DomainName = os.Getenv("DOMAIN_NAME")

	return &config
}
