package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"student-roster/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Roster   RosterConfig   `mapstructure:"roster"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout    int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeout   int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	IdleTimeout    int      `mapstructure:"idle_timeout_seconds" validate:"gte=0"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb" validate:"gt=0"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path            string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type LoggingConfig struct {
	Level        string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format       string `mapstructure:"format" validate:"oneof=text json"`
	ActivityFile string `mapstructure:"activity_file"`
	MaxSizeMB    int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups   int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays   int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// MetricsConfig controls the OTLP metrics exporter. Endpoint is a gRPC
// collector address, normally one running on the same host.
type MetricsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure        bool   `mapstructure:"insecure"`
	IntervalSeconds int    `mapstructure:"interval_seconds" validate:"gte=0"`
}

type RosterConfig struct {
	Programmes         []string `mapstructure:"programmes"`
	Levels             []int    `mapstructure:"levels"`
	AtRiskThreshold    float64  `mapstructure:"at_risk_threshold" validate:"gte=0,lte=4"`
	TopPerformersLimit int      `mapstructure:"top_performers_limit" validate:"gt=0"`
	DataDir            string   `mapstructure:"data_dir" validate:"required"`
}

// Rules turns the roster section into validation allow-lists.
func (r RosterConfig) Rules() validation.Rules {
	return validation.Rules{
		Programmes: r.Programmes,
		Levels:     r.Levels,
	}
}

func setDefaults(v *viper.Viper) {
	rules := validation.DefaultRules()

	v.SetDefault("env", "local")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/students.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "students")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.conn_max_idle_time_seconds", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.activity_file", "data/app.log")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.endpoint", "localhost:4317")
	v.SetDefault("metrics.insecure", true)
	v.SetDefault("metrics.interval_seconds", 10)

	v.SetDefault("roster.programmes", rules.Programmes)
	v.SetDefault("roster.levels", rules.Levels)
	v.SetDefault("roster.at_risk_threshold", 2.0)
	v.SetDefault("roster.top_performers_limit", 10)
	v.SetDefault("roster.data_dir", "data")
}

// Load reads config.<ENV>.yaml when present and applies environment
// overrides on top; e.g. ROSTER_AT_RISK_THRESHOLD sets roster.at_risk_threshold.
func Load(paths ...string) (*Config, error) {
	// Get environment from ENV, default to "local"
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "/etc/student-roster"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Config file is optional - continue with defaults and ENV variables
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("metrics.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, l := range c.Roster.Levels {
		if l <= 0 {
			return fmt.Errorf("invalid config: roster level %d must be positive", l)
		}
	}
	return nil
}
