package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	GRPCAddr string
	LogLevel string

	DB       DBConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Tracing  TracingConfig
	Security SecurityConfig

	RateLimitRPS   float64
	RateLimitBurst int
	InvoiceDueDays int
	DefaultLang    string
	SentryDSN      string
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the lib/pq key/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	OrderTopic    string
	PaymentTopic  string
	ConsumerGroup string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// defaultJWTSecret is only accepted when app_env is development.
const defaultJWTSecret = "change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "production")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("log_level", "info")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "commerce")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", "5m")

	v.SetDefault("kafka_enabled", true)
	v.SetDefault("kafka_broker", "localhost:9092")
	v.SetDefault("kafka_topic", "order-events")
	v.SetDefault("kafka_payment_topic", "payment-events")
	v.SetDefault("kafka_group", "commerce-api")

	v.SetDefault("redis_enabled", true)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("cache_ttl", "5m")

	v.SetDefault("tracing_enabled", true)
	v.SetDefault("service_name", "commerce-api")
	v.SetDefault("jaeger_endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_ttl", "24h")

	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
	v.SetDefault("invoice_due_days", 30)
	v.SetDefault("default_lang", "en")
	v.SetDefault("sentry_dsn", "")
}

// Load reads defaults, then the optional file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:   v.GetString("app_env"),
		HTTPAddr: v.GetString("http_addr"),
		GRPCAddr: v.GetString("grpc_addr"),
		LogLevel: v.GetString("log_level"),
		DB: DBConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetString("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			Name:            v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		Kafka: KafkaConfig{
			Enabled:       v.GetBool("kafka_enabled"),
			Brokers:       splitList(v.GetString("kafka_broker")),
			OrderTopic:    v.GetString("kafka_topic"),
			PaymentTopic:  v.GetString("kafka_payment_topic"),
			ConsumerGroup: v.GetString("kafka_group"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis_enabled"),
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			TTL:      v.GetDuration("cache_ttl"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing_enabled"),
			ServiceName: v.GetString("service_name"),
			Endpoint:    v.GetString("jaeger_endpoint"),
		},
		Security: SecurityConfig{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  v.GetDuration("jwt_ttl"),
		},
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		InvoiceDueDays: v.GetInt("invoice_due_days"),
		DefaultLang:    v.GetString("default_lang"),
		SentryDSN:      v.GetString("sentry_dsn"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.MaxOpenConns <= 0 {
		return fmt.Errorf("db_max_open_conns must be positive, got %d", c.DB.MaxOpenConns)
	}
	if c.InvoiceDueDays < 0 {
		return fmt.Errorf("invoice_due_days must not be negative, got %d", c.InvoiceDueDays)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka_broker is required when kafka is enabled")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Security.JWTSecret == defaultJWTSecret && c.AppEnv != "development" {
		return fmt.Errorf("jwt_secret must be changed from the default when app_env is %q", c.AppEnv)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
