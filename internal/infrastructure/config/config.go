package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/tollgate/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Stripe    sharedConfig.StripeConfig    `mapstructure:"stripe"`
	Billing   sharedConfig.BillingConfig   `mapstructure:"billing"`
	Queue     sharedConfig.QueueConfig     `mapstructure:"queue"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	Metrics   sharedConfig.MetricsConfig   `mapstructure:"metrics"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables. A .env file
// in the working directory is applied to the process environment first so
// that TOLLGATE_* overrides can live next to the binary in development.
// An empty configPath searches ./configs, ../configs and ../../configs.
func Load(env string, configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("TOLLGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "tollgate_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.access_exp_minutes", 60)

	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 1025)
	v.SetDefault("email.from_address", "billing@tollgate.local")
	v.SetDefault("email.from_name", "Tollgate")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("stripe.breaker.max_requests", 3)
	v.SetDefault("stripe.breaker.interval", "60s")
	v.SetDefault("stripe.breaker.timeout", "30s")
	v.SetDefault("stripe.breaker.failure_threshold", 5)

	v.SetDefault("billing.model", "both")
	v.SetDefault("billing.catalog_path", "./configs/catalog.yaml")
	v.SetDefault("billing.checkout_complete_path", "/checkout/complete")
	v.SetDefault("billing.checkout_cancelled_path", "/checkout/cancelled")
	v.SetDefault("billing.event_lock_ttl", "2m")
	v.SetDefault("billing.checkout_rate_limit.per_minute", 5)
	v.SetDefault("billing.checkout_rate_limit.per_hour", 30)

	v.SetDefault("queue.email_queue_key", "tollgate:queue:email")
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.retry_delay", "60s")
	v.SetDefault("queue.poll_timeout", "5s")

	v.SetDefault("scheduler.retry_promote_interval", "15s")
	v.SetDefault("scheduler.event_retention_days", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
