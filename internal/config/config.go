package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// Mongo holds connection settings for the document database.
type Mongo struct {
	Scheme         string
	Username       string
	Password       string
	Host           string
	Database       string
	ConnectTimeout time.Duration
}

// URI assembles the connection string from the credential parts.
func (m Mongo) URI() string {
	if m.Username == "" {
		return fmt.Sprintf("%s://%s/", m.Scheme, m.Host)
	}
	return fmt.Sprintf("%s://%s:%s@%s/",
		m.Scheme,
		url.QueryEscape(m.Username),
		url.QueryEscape(m.Password),
		m.Host,
	)
}

// Dataset locates the JSON fixture files loaded into the collections.
type Dataset struct {
	Dir string
}

// Plots configures chart output.
type Plots struct {
	Dir    string
	Format string
	Width  int
	Height int
}

// Orders configures the order creation path.
type Orders struct {
	DecrementStock bool
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used by the application.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	Mongo         Mongo
	Dataset       Dataset
	Plots         Plots
	Orders        Orders
	Cache         Cache
	Messaging     Messaging
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg := Config{
		HTTP: HTTP{
			Host: envStr("HTTP_HOST", "0.0.0.0"),
			Port: envInt("HTTP_PORT", 8080),
		},
		Mongo: Mongo{
			Scheme:         envStr("MONGODB_SCHEME", "mongodb+srv"),
			Username:       envStr("MONGODB_USERNAME", ""),
			Password:       envStr("MONGODB_PASSWORD", ""),
			Host:           envStr("MONGODB_URL", "localhost:27017"),
			Database:       envStr("MONGODB_DATABASE", "ecommerce_db"),
			ConnectTimeout: envDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Dataset: Dataset{
			Dir: envStr("DATASET_DIR", "dataset"),
		},
		Plots: Plots{
			Dir:    envStr("PLOTS_DIR", "plots"),
			Format: envStr("PLOT_FORMAT", "png"),
			Width:  envInt("PLOT_WIDTH", 1280),
			Height: envInt("PLOT_HEIGHT", 640),
		},
		Orders: Orders{
			DecrementStock: envBool("ORDER_DECREMENT_STOCK", false),
		},
		Cache: Cache{
			Enabled:    envBool("CACHE_ENABLED", true),
			Driver:     envStr("CACHE_DRIVER", "redis"),
			DefaultTTL: envDuration("CACHE_DEFAULT_TTL", time.Minute*5),
			Redis: Redis{
				Addr:     envStr("REDIS_ADDR", "127.0.0.1:6379"),
				Password: envStr("REDIS_PASSWORD", ""),
				DB:       envInt("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  envStr("MESSAGING_DRIVER", "kafka"),
			Enabled: envBool("MESSAGING_ENABLED", true),
			Kafka: Kafka{
				Brokers:        envStrSlice("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       envStr("KAFKA_CLIENT_ID", "bazaar-service"),
				Topic:          envStr("KAFKA_TOPIC", "orders.events"),
				CommitInterval: envDuration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       envInt("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       envInt("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: envDuration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: envStr("KAFKA_CONSUMER_GROUP", "bazaar-worker"),
			Workers: Worker{
				Enabled:      envBool("WORKER_ENABLED", true),
				PollInterval: envDuration("WORKER_POLL_INTERVAL", time.Second),
				Concurrency:  envInt("WORKER_CONCURRENCY", 4),
			},
		},
		Observability: Observability{
			ServiceName:     envStr("OBS_SERVICE_NAME", "bazaar"),
			Environment:     envStr("OBS_ENVIRONMENT", "local"),
			LogLevel:        envStr("OBS_LOG_LEVEL", "info"),
			LogEncoding:     envStr("OBS_LOG_ENCODING", "json"),
			EnableTracing:   envBool("OBS_ENABLE_TRACING", true),
			TraceExporter:   envStr("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   envStr("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   envBool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   envBool("OBS_ENABLE_METRICS", true),
			MetricsExporter: envStr("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  envStr("OBS_PROMETHEUS_PATH", "/metrics"),
		},
	}

	if cfg.HTTP.Port <= 0 {
		return Config{}, fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	switch cfg.Mongo.Scheme {
	case "mongodb", "mongodb+srv":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported mongodb scheme: %s", cfg.Mongo.Scheme)
	}

	if cfg.Mongo.Host == "" {
		return Config{}, fmt.Errorf("missing MONGODB_URL")
	}

	if cfg.Mongo.Database == "" {
		return Config{}, fmt.Errorf("missing MONGODB_DATABASE")
	}

	if cfg.Mongo.ConnectTimeout <= 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}

	if cfg.Dataset.Dir == "" {
		return Config{}, fmt.Errorf("missing DATASET_DIR")
	}

	cfg.Plots.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Plots.Format), "."))
	switch cfg.Plots.Format {
	case "png", "svg":
		// supported
	case "":
		cfg.Plots.Format = "png"
	default:
		return Config{}, fmt.Errorf("unsupported plot format: %s", cfg.Plots.Format)
	}

	if cfg.Plots.Width <= 0 {
		cfg.Plots.Width = 1280
	}
	if cfg.Plots.Height <= 0 {
		cfg.Plots.Height = 640
	}

	if !cfg.Cache.Enabled {
		cfg.Cache.Driver = "noop"
	}

	switch cfg.Cache.Driver {
	case "redis", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return Config{}, fmt.Errorf("missing REDIS_ADDR for redis cache")
	}

	if cfg.Cache.DefaultTTL < 0 {
		cfg.Cache.DefaultTTL = time.Minute * 5
	}

	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	cfg.Observability.LogEncoding = strings.ToLower(strings.TrimSpace(cfg.Observability.LogEncoding))
	if cfg.Observability.LogEncoding == "" {
		cfg.Observability.LogEncoding = "json"
	}
	cfg.Observability.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter))
	if cfg.Observability.TraceExporter == "" {
		cfg.Observability.TraceExporter = "stdout"
	}
	cfg.Observability.MetricsExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.MetricsExporter))
	if cfg.Observability.MetricsExporter == "" {
		cfg.Observability.MetricsExporter = "prometheus"
	}

	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(cfg.Observability.PrometheusPath, "/") {
		cfg.Observability.PrometheusPath = "/" + cfg.Observability.PrometheusPath
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return Config{}, fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return Config{}, fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}
	if cfg.Messaging.Workers.PollInterval <= 0 {
		cfg.Messaging.Workers.PollInterval = time.Second
	}

	return cfg, nil
}
