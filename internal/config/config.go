package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	GoldPrice GoldPriceConfig
	Features  FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PricesTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

// GoldPriceConfig drives the price sync engine. The USD conversion rate is
// a single static configured rate; there is no live FX fetch.
type GoldPriceConfig struct {
	PrimaryURL      string
	FallbackURL     string
	FetchTimeout    time.Duration
	RefreshInterval time.Duration
	Currency        string
	USDRate         float64

	// Startup defaults served until the first successful refresh.
	Default18k float64
	Default21k float64
	Default24k float64
}

type FeatureFlags struct {
	EnableOrderCaching bool
	EnableOrderEvents  bool
	EnableAutoRefresh  bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "bilsan"),
			Password:     getEnvString("DB_PASSWORD", "bilsan"),
			Name:         getEnvString("DB_NAME", "bilsan_jewelry"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{getEnvString("KAFKA_BROKER", "localhost:9092")},
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "bilsan.orders"),
			PricesTopic:   getEnvString("KAFKA_PRICES_TOPIC", "bilsan.gold-prices"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "bilsan.payments"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "commerce-service"),
		},
		GoldPrice: GoldPriceConfig{
			PrimaryURL:      getEnvString("GOLD_PRIMARY_URL", "https://api.metals.live/v1/spot/gold"),
			FallbackURL:     getEnvString("GOLD_FALLBACK_URL", "https://api.metals.live/v1/spot/gold"),
			FetchTimeout:    time.Duration(getEnvInt("GOLD_FETCH_TIMEOUT", 10)) * time.Second,
			RefreshInterval: time.Duration(getEnvInt("GOLD_REFRESH_INTERVAL_MINUTES", 30)) * time.Minute,
			Currency:        getEnvString("GOLD_CURRENCY", "SAR"),
			USDRate:         getEnvFloat("GOLD_USD_RATE", 3.75),
			Default18k:      getEnvFloat("GOLD_DEFAULT_18K", 185.50),
			Default21k:      getEnvFloat("GOLD_DEFAULT_21K", 216.25),
			Default24k:      getEnvFloat("GOLD_DEFAULT_24K", 247.00),
		},
		Features: FeatureFlags{
			EnableOrderCaching: getEnvBool("ENABLE_ORDER_CACHING", true),
			EnableOrderEvents:  getEnvBool("ENABLE_ORDER_EVENTS", true),
			EnableAutoRefresh:  getEnvBool("ENABLE_AUTO_REFRESH", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
