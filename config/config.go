package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	HTTP    ServerConfig
	MySQL   MySQLConfig
	Log     LogConfig
	Azul    AzulConfig
	CardNet CardNetConfig
	Orders  OrdersConfig
	Jobs    JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type AzulConfig struct {
	MerchantID     string
	AuthKey        string
	PaymentPageURL string
}

type CardNetConfig struct {
	MerchantNumber string
	TerminalKey    string
	CheckoutURL    string
}

type OrdersConfig struct {
	// MinAmountCents is the smallest amount a checkout may be created for.
	MinAmountCents int64
	// TTLDays bounds correlation-record retention; zero disables the expiry
	// job (no default is assumed).
	TTLDays int
}

type JobsConfig struct {
	ChargesInterval  time.Duration
	LateFeesInterval time.Duration
	OverdueInterval  time.Duration
	OrdersInterval   time.Duration

	ChargesSchedule  string
	LateFeesSchedule string
	OverdueSchedule  string
	OrdersSchedule   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "billing-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Azul: AzulConfig{
			MerchantID:     getEnv("AZUL_MERCHANT_ID", ""),
			AuthKey:        getEnv("AZUL_AUTH_KEY", ""),
			PaymentPageURL: getEnv("AZUL_PAYMENT_PAGE_URL", ""),
		},
		CardNet: CardNetConfig{
			MerchantNumber: getEnv("CARDNET_MERCHANT_NUMBER", ""),
			TerminalKey:    getEnv("CARDNET_TERMINAL_KEY", ""),
			CheckoutURL:    getEnv("CARDNET_CHECKOUT_URL", ""),
		},
		Orders: OrdersConfig{
			MinAmountCents: int64(getIntEnv("ORDERS_MIN_AMOUNT_CENTS", 100)),
			TTLDays:        getIntEnv("ORDERS_TTL_DAYS", 0),
		},
		Jobs: JobsConfig{
			ChargesInterval:  getMinutesEnv("JOBS_CHARGES_INTERVAL_MINUTES", 24*60*time.Minute),
			LateFeesInterval: getMinutesEnv("JOBS_LATEFEES_INTERVAL_MINUTES", 24*60*time.Minute),
			OverdueInterval:  getMinutesEnv("JOBS_OVERDUE_INTERVAL_MINUTES", 24*60*time.Minute),
			OrdersInterval:   getMinutesEnv("JOBS_ORDERS_INTERVAL_MINUTES", 6*60*time.Minute),
			ChargesSchedule:  getEnv("JOBS_CHARGES_SCHEDULE", "0 6 1 * *"),
			LateFeesSchedule: getEnv("JOBS_LATEFEES_SCHEDULE", "30 6 * * *"),
			OverdueSchedule:  getEnv("JOBS_OVERDUE_SCHEDULE", "0 6 * * *"),
			OrdersSchedule:   getEnv("JOBS_ORDERS_SCHEDULE", "0 */6 * * *"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
