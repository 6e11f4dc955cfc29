package config

import (
	"fmt"
	"strings"
	"time"

	"go-backoffice/internal/shared/connection"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port           string
	IsProduction   bool
	JWTSecret      string
	Postgres       connection.PostgresConfig
	MigrationsPath string
	RedisAddr      string
	KafkaBroker    string
	ConnectRetries int

	RateLimitRPS   float64
	RateLimitBurst int

	OutboxPollInterval time.Duration

	Payroll PayrollConfig
}

// PayrollConfig carries the jurisdiction-specific constants of a payroll run.
type PayrollConfig struct {
	InsuranceRate           decimal.Decimal
	DaysPerMonth            int64
	HoursPerDay             int64
	MissingAttendancePolicy string
	Workers                 int
	PayslipConsumerGroupID  string
	PeriodSummaryCacheTTL   time.Duration
	IdempotencyResultTTL    time.Duration
	IdempotencyLockTTL      time.Duration
	PayslipStorageDir       string
	PayslipPublicBaseURL    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "backoffice")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("CONNECT_RETRIES", 5)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "3s")

	v.SetDefault("PAYROLL_INSURANCE_RATE", "0.0975")
	v.SetDefault("PAYROLL_DAYS_PER_MONTH", 30)
	v.SetDefault("PAYROLL_HOURS_PER_DAY", 8)
	v.SetDefault("PAYROLL_MISSING_ATTENDANCE_POLICY", "present")
	v.SetDefault("PAYROLL_WORKERS", 8)
	v.SetDefault("PAYROLL_PAYSLIP_GROUP_ID", "backoffice-payroll-payslip")
	v.SetDefault("PAYROLL_SUMMARY_CACHE_TTL", "10m")
	v.SetDefault("IDEMPOTENCY_RESULT_TTL", "24h")
	v.SetDefault("IDEMPOTENCY_LOCK_TTL", "30s")
	v.SetDefault("PAYSLIP_STORAGE_DIR", "storage/payslips")
	v.SetDefault("PAYSLIP_PUBLIC_BASE_URL", "/files/payslips")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	rate, err := decimal.NewFromString(v.GetString("PAYROLL_INSURANCE_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_INSURANCE_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("PAYROLL_INSURANCE_RATE must be in [0, 1), got %s", rate)
	}

	days := v.GetInt64("PAYROLL_DAYS_PER_MONTH")
	if days <= 0 {
		return nil, fmt.Errorf("PAYROLL_DAYS_PER_MONTH must be positive, got %d", days)
	}
	hours := v.GetInt64("PAYROLL_HOURS_PER_DAY")
	if hours <= 0 {
		return nil, fmt.Errorf("PAYROLL_HOURS_PER_DAY must be positive, got %d", hours)
	}

	policy := strings.ToLower(strings.TrimSpace(v.GetString("PAYROLL_MISSING_ATTENDANCE_POLICY")))
	if policy != "present" && policy != "absent" {
		return nil, fmt.Errorf("PAYROLL_MISSING_ATTENDANCE_POLICY must be present or absent, got %q", policy)
	}

	workers := v.GetInt("PAYROLL_WORKERS")
	if workers < 1 {
		workers = 1
	}

	cfg := &Config{
		Port:         v.GetString("PORT"),
		IsProduction: v.GetBool("IS_PRODUCTION"),
		JWTSecret:    v.GetString("JWT_SECRET"),
		Postgres: connection.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Port:     v.GetString("DB_PORT"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		KafkaBroker:        v.GetString("KAFKA_BROKER"),
		ConnectRetries:     v.GetInt("CONNECT_RETRIES"),
		RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		Payroll: PayrollConfig{
			InsuranceRate:           rate,
			DaysPerMonth:            days,
			HoursPerDay:             hours,
			MissingAttendancePolicy: policy,
			Workers:                 workers,
			PayslipConsumerGroupID:  v.GetString("PAYROLL_PAYSLIP_GROUP_ID"),
			PeriodSummaryCacheTTL:   v.GetDuration("PAYROLL_SUMMARY_CACHE_TTL"),
			IdempotencyResultTTL:    v.GetDuration("IDEMPOTENCY_RESULT_TTL"),
			IdempotencyLockTTL:      v.GetDuration("IDEMPOTENCY_LOCK_TTL"),
			PayslipStorageDir:       v.GetString("PAYSLIP_STORAGE_DIR"),
			PayslipPublicBaseURL:    strings.TrimRight(v.GetString("PAYSLIP_PUBLIC_BASE_URL"), "/"),
		},
	}

	if cfg.IsProduction && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}
