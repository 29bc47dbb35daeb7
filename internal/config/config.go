package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvDevelopment is the environment name that routes executions to the test webhook.
const EnvDevelopment = "Development"

type Config struct {
	Environment string
	HTTP        struct {
		Addr string
	}
	DB struct {
		Driver   string
		DSN      string
		Server   string
		Port     string
		Name     string
		User     string
		Password string
	}
	Webhook struct {
		TestURL       string
		ProductionURL string
		Timeout       time.Duration
	}
	FrontendBaseURL string
	RateLimit       struct {
		Requests int
		Window   time.Duration
	}
	Browser struct {
		Dir  string
		Path string
	}
	Log struct {
		Level      string
		Encoding   string
		Filename   string
		MaxSize    int
		MaxBackups int
		MaxAge     int
		Compress   bool
	}
	MetricsEnabled bool
	SwaggerEnabled bool
}

// IsDevelopment reports whether the runtime environment is Development (case-insensitive).
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, EnvDevelopment)
}

// Load reads config from the environment and an optional fera-prompt.yaml.
// In Development, .env.local is loaded first without overriding variables
// that are already set.
func Load() (*Config, error) {
	if strings.EqualFold(os.Getenv("ENVIRONMENT"), EnvDevelopment) {
		if err := godotenv.Load(".env.local"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env.local: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("fera-prompt")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("environment", "Production")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("webhook.timeout", "120s")
	v.SetDefault("frontend.base_url", "http://localhost:3000")
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("browser.dir", ".local-chromium")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
	v.SetDefault("metrics.enabled", true)

	cfg := &Config{}
	cfg.Environment = v.GetString("environment")
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.DB.Server = v.GetString("db.server")
	cfg.DB.Port = v.GetString("db.port")
	cfg.DB.Name = v.GetString("db.name")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.Webhook.TestURL = v.GetString("webhook.test_url")
	cfg.Webhook.ProductionURL = v.GetString("webhook.production_url")
	cfg.FrontendBaseURL = v.GetString("frontend.base_url")
	cfg.RateLimit.Requests = v.GetInt("ratelimit.requests")
	cfg.Browser.Dir = v.GetString("browser.dir")
	cfg.Browser.Path = v.GetString("browser.path")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Encoding = v.GetString("log.encoding")
	cfg.Log.Filename = v.GetString("log.filename")
	cfg.Log.MaxSize = v.GetInt("log.max_size")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")
	cfg.Log.MaxAge = v.GetInt("log.max_age")
	cfg.Log.Compress = v.GetBool("log.compress")
	cfg.MetricsEnabled = v.GetBool("metrics.enabled")

	// Swagger UI follows the environment unless explicitly configured.
	cfg.SwaggerEnabled = cfg.IsDevelopment()
	if v.IsSet("swagger.enabled") {
		cfg.SwaggerEnabled = v.GetBool("swagger.enabled")
	}

	timeout, err := time.ParseDuration(v.GetString("webhook.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}
	cfg.Webhook.Timeout = timeout

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_WINDOW: %w", err)
	}
	cfg.RateLimit.Window = window

	if cfg.RateLimit.Requests <= 0 {
		return nil, fmt.Errorf("RATELIMIT_REQUESTS must be positive")
	}

	dsn, err := ResolveDSN(cfg)
	if err != nil {
		return nil, err
	}
	cfg.DB.DSN = dsn

	return cfg, nil
}

// ResolveDSN returns the connection string for cfg.DB. An explicit DSN wins;
// otherwise one is built from server/name/user/password, and sqlite falls back
// to a local file.
func ResolveDSN(cfg *Config) (string, error) {
	if cfg.DB.DSN != "" {
		return cfg.DB.DSN, nil
	}

	hasParts := cfg.DB.Server != "" && cfg.DB.Name != "" && cfg.DB.User != "" && cfg.DB.Password != ""

	switch cfg.DB.Driver {
	case "sqlite3":
		if cfg.DB.Name != "" {
			return cfg.DB.Name, nil
		}
		return "fera-prompt.db", nil
	case "postgres":
		if !hasParts {
			return "", fmt.Errorf("DB_DSN or DB_SERVER, DB_NAME, DB_USER, DB_PASSWORD are required for postgres")
		}
		host := cfg.DB.Server
		if cfg.DB.Port != "" {
			host += ":" + cfg.DB.Port
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DB.User, cfg.DB.Password),
			Host:     host,
			Path:     "/" + cfg.DB.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "mysql":
		if !hasParts {
			return "", fmt.Errorf("DB_DSN or DB_SERVER, DB_NAME, DB_USER, DB_PASSWORD are required for mysql")
		}
		port := cfg.DB.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", cfg.DB.User, cfg.DB.Password, cfg.DB.Server, port, cfg.DB.Name), nil
	default:
		return "", fmt.Errorf("DB_DRIVER %q is not supported (sqlite3, mysql, postgres)", cfg.DB.Driver)
	}
}
