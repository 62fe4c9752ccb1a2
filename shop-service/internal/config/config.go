package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Seller   SellerConfig   `mapstructure:"seller"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Messages MessagesConfig `mapstructure:"messages"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	TimeZone string         `mapstructure:"timezone" validate:"required"`
}

type HTTPConfig struct {
	Port               string        `mapstructure:"port" validate:"required"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size" validate:"gt=0"`
}

type DBConfig struct {
	// Backend "memory" keeps everything in process, for local runs and demos.
	Backend        string `mapstructure:"backend" validate:"oneof=postgres memory"`
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"gt=0"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name" validate:"required"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path" validate:"required"`
}

type SellerConfig struct {
	UserID int64 `mapstructure:"user_id" validate:"gt=0"`
}

type OrdersConfig struct {
	StatusPolicy    string `mapstructure:"status_policy" validate:"oneof=loose forward"`
	FreezeCompleted bool   `mapstructure:"freeze_completed"`
}

type MessagesConfig struct {
	// Backend "store" keeps threads next to the orders; "mongo" moves them to MongoDB.
	Backend  string `mapstructure:"backend" validate:"oneof=store mongo"`
	PageSize int    `mapstructure:"page_size" validate:"gt=0"`
}

type MongoConfig struct {
	URI                    string        `mapstructure:"uri"`
	Database               string        `mapstructure:"database"`
	MaxPoolSize            uint64        `mapstructure:"max_pool_size" validate:"gt=0"`
	MinPoolSize            uint64        `mapstructure:"min_pool_size" validate:"ltefield=MaxPoolSize"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	// Addr empty disables the dashboard cache.
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type KafkaConfig struct {
	// Brokers empty disables the outbox publisher and the event consumer.
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required"`
	GroupID string   `mapstructure:"group_id" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_request_body_size", 1<<20)

	v.SetDefault("db.backend", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "shop")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "shop")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.migrations_path", "./shop-service/internal/repository/migrations")

	v.SetDefault("seller.user_id", 0)
	v.SetDefault("timezone", "UTC")

	v.SetDefault("orders.status_policy", "loose")
	v.SetDefault("orders.freeze_completed", false)

	v.SetDefault("messages.backend", "store")
	v.SetDefault("messages.page_size", 50)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "shop")
	v.SetDefault("mongo.max_pool_size", 20)
	v.SetDefault("mongo.min_pool_size", 2)
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.server_selection_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "shop.order-events")
	v.SetDefault("kafka.group_id", "shop-dashboard-invalidator")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads defaults, then an optional config.yaml, then SHOP_* environment
// variables. A .env file in the working directory is loaded into the
// environment first when present.
func Load(configPaths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("./")
	v.AddConfigPath("/etc/shop/")

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: timezone: %w", err)
	}
	if c.Messages.Backend == "mongo" && c.Mongo.URI == "" {
		return errors.New("invalid config: mongo.uri is required when messages.backend is mongo")
	}
	return nil
}
