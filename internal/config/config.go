package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string `yaml:"port" env:"SERVER_PORT"`
		Mode           string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout    string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout   string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES"`
		ImportTimeout  string `yaml:"import_timeout" env:"SERVER_IMPORT_TIMEOUT"`
		ImportWorkers  int    `yaml:"import_workers" env:"SERVER_IMPORT_WORKERS"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		TxTimeout       string `yaml:"tx_timeout" env:"DB_TX_TIMEOUT"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Security struct {
		LoginAttempts    int    `yaml:"login_attempts" env:"SECURITY_LOGIN_ATTEMPTS"`
		LoginWindow      string `yaml:"login_window" env:"SECURITY_LOGIN_WINDOW"`
		CORSAllowOrigins string `yaml:"cors_allow_origins" env:"SECURITY_CORS_ALLOW_ORIGINS"`
	} `yaml:"security"`

	Bootstrap struct {
		SuperAdminUsername string `yaml:"super_admin_username" env:"BOOTSTRAP_SUPER_ADMIN_USERNAME"`
		SuperAdminPassword string `yaml:"super_admin_password" env:"BOOTSTRAP_SUPER_ADMIN_PASSWORD"`
	} `yaml:"bootstrap"`

	School struct {
		MaxForm           int    `yaml:"max_form" env:"SCHOOL_MAX_FORM"`
		AnalyticsCacheTTL string `yaml:"analytics_cache_ttl" env:"SCHOOL_ANALYTICS_CACHE_TTL"`
	} `yaml:"school"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Values already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "30s"
	config.Server.MaxUploadBytes = 10 << 20
	config.Server.ImportTimeout = "5m"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "schoolbook"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.TxTimeout = "30s"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "schoolbook"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Security.LoginAttempts = 5
	config.Security.LoginWindow = "5m"
	config.Security.CORSAllowOrigins = "*"

	config.Bootstrap.SuperAdminUsername = "superadmin"

	config.School.MaxForm = 4
	config.School.AnalyticsCacheTTL = "1m"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(reflect.ValueOf(config))
}

// validateConfig reports every invalid setting at once
func validateConfig(config *Config) error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(config.Database.Host != "", "database host is required")
	check(config.JWT.Secret != "", "JWT secret is required")
	check(config.School.MaxForm >= 1, "max form must be at least 1, got %d", config.School.MaxForm)
	check(config.Security.LoginAttempts >= 1, "login attempts must be at least 1")
	check(config.Server.MaxUploadBytes > 0, "max upload size must be positive")
	check(config.Server.ImportWorkers >= 0, "import workers must not be negative")

	pw := config.Bootstrap.SuperAdminPassword
	check(pw == "" || len(pw) >= 6, "bootstrap super admin password must be at least 6 characters")

	for name, value := range map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"database connection lifetime": config.Database.ConnMaxLifetime,
		"database transaction timeout": config.Database.TxTimeout,
		"import timeout":               config.Server.ImportTimeout,
		"server read timeout":          config.Server.ReadTimeout,
		"server write timeout":         config.Server.WriteTimeout,
		"login window":                 config.Security.LoginWindow,
		"analytics cache TTL":          config.School.AnalyticsCacheTTL,
	} {
		_, err := time.ParseDuration(value)
		check(err == nil, "invalid %s %q", name, value)
	}

	return errors.Join(errs...)
}

// GetPostgresConnectionString builds a postgres:// URL with escaped credentials
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// AllowedOrigins splits the comma separated CORS origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Security.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Duration parses a duration that validateConfig already accepted
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
