package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/trogers1052/fox-valley-engine/internal/engine"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Log       LogConfig
	Journal   JournalConfig
	Rules     engine.Rules
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	PositionsTopic string
	ScreensTopic   string
	EventsTopic    string
	GroupID        string
	CashTicker     string
}

// RedisConfig holds the report cache configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SchedulerConfig holds the cron schedule of the daily brief
type SchedulerConfig struct {
	Enabled       bool
	BriefSchedule string
	Timezone      string
}

// Location resolves Timezone, falling back to UTC when it is unknown
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// JournalConfig holds the optional CSV mirror of the journal
type JournalConfig struct {
	CSVPath string
}

// Load reads configuration from a .env file if present, the environment,
// and the rules file named by ENGINE_RULES_FILE
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "foxvalley"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Enabled:        getEnvAsBool("KAFKA_ENABLED", true),
			Brokers:        getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			PositionsTopic: getEnv("KAFKA_POSITIONS_TOPIC", "positions-events"),
			ScreensTopic:   getEnv("KAFKA_SCREENS_TOPIC", "screen-events"),
			EventsTopic:    getEnv("KAFKA_EVENTS_TOPIC", "fox-valley-events"),
			GroupID:        getEnv("KAFKA_GROUP_ID", "fox-valley-engine"),
			CashTicker:     getEnv("KAFKA_CASH_TICKER", "SPAXX"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", 6*time.Hour),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SCHEDULER_ENABLED", true),
			BriefSchedule: getEnv("BRIEF_SCHEDULE", "0 45 6 * * MON-FRI"),
			Timezone:      getEnv("BRIEF_TIMEZONE", "America/New_York"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Journal: JournalConfig{
			CSVPath: getEnv("JOURNAL_CSV_PATH", ""),
		},
	}

	rules, err := LoadRules(os.Getenv("ENGINE_RULES_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRules decodes a TOML rules file over the default rules. An empty path
// returns the defaults
func LoadRules(path string) (engine.Rules, error) {
	rules := engine.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("invalid rules in %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	var errs []error
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when Kafka is enabled"))
	}
	if c.Scheduler.Enabled && c.Scheduler.BriefSchedule == "" {
		errs = append(errs, errors.New("BRIEF_SCHEDULE is required when the scheduler is enabled"))
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); c.Scheduler.Enabled && err != nil {
		errs = append(errs, fmt.Errorf("BRIEF_TIMEZONE %q is not a known time zone", c.Scheduler.Timezone))
	}
	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_TTL must be positive: %s", c.Redis.TTL))
	}
	if c.Kafka.Enabled && !c.Rules.IsCash(c.Kafka.CashTicker) {
		errs = append(errs, fmt.Errorf("KAFKA_CASH_TICKER %s is not one of the cash tickers %v", c.Kafka.CashTicker, c.Rules.CashTickers))
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Address returns the HTTP listen address
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
