package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	EnvProduction = "production"
	EnvTest       = "test"

	AuthModeStrict  = "strict"
	AuthModeLenient = "lenient"

	InfoOptional = "optional"
	InfoRequired = "required"
)

// Config holds the application's configuration values.
type Config struct {
	AppName  string `json:"appname" env:"APP_NAME" envDefault:"patient-intake"`
	AppEnv   string `json:"appenv" env:"APP_ENV" envDefault:"development"`
	AppPort  uint16 `json:"appport" env:"PORT" envDefault:"3000" validate:"required"`
	GinMode  string `json:"ginmode" env:"GIN_MODE" envDefault:"release" validate:"oneof=debug release test"`
	LogLevel string `json:"loglevel" env:"LOG_LEVEL" envDefault:"info"`

	DBHost            string        `json:"dbhost" env:"DB_HOST" envDefault:"localhost"`
	DBPort            uint16        `json:"dbport" env:"DB_PORT" envDefault:"3306"`
	DBName            string        `json:"dbname" env:"DB_NAME"`
	DBUser            string        `json:"dbuser" env:"DB_USER"`
	DBPass            string        `json:"-" env:"DB_PASSWORD"`
	DBMaxOpenConns    int           `json:"dbmaxopenconns" env:"DB_MAX_OPEN_CONNS" envDefault:"10" validate:"gte=1"`
	DBMaxIdleConns    int           `json:"dbmaxidleconns" env:"DB_MAX_IDLE_CONNS" envDefault:"5" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `json:"dbconnmaxlifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnectTimeout  time.Duration `json:"dbconnecttimeout" env:"DB_CONNECT_TIMEOUT" envDefault:"5s" validate:"gt=0"`

	APIKey               string `json:"-" env:"API_KEY"`
	APIKeyHeader         string `json:"apikeyheader" env:"API_KEY_HEADER" envDefault:"x-api-key" validate:"required"`
	AuthMode             string `json:"authmode" env:"AUTH_MODE" envDefault:"strict" validate:"oneof=strict lenient"`
	AllowUnauthenticated bool   `json:"allowunauthenticated" env:"ALLOW_UNAUTHENTICATED" envDefault:"false"`

	InfoPolicy string `json:"infopolicy" env:"INFO_POLICY" envDefault:"optional" validate:"oneof=optional required"`

	RateLimit       int           `json:"ratelimit" env:"RATE_LIMIT" envDefault:"100" validate:"gte=1"`
	RateLimitWindow time.Duration `json:"ratelimitwindow" env:"RATE_LIMIT_WINDOW" envDefault:"15m" validate:"gt=0"`

	RedisAddr string `json:"redisaddr" env:"REDIS_ADDR"`
	RedisPass string `json:"-" env:"REDIS_PASS"`
	RedisDB   int    `json:"redisdb" env:"REDIS_DB" envDefault:"0" validate:"gte=0"`

	CORSAllowedOrigins []string `json:"corsallowedorigins" env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:"," validate:"min=1"`
	TrustedProxies     []string `json:"trustedproxies" env:"TRUSTED_PROXIES" envSeparator:","`
	ServeStatic        bool     `json:"servestatic" env:"SERVE_STATIC" envDefault:"false"`
	StaticDir          string   `json:"staticdir" env:"STATIC_DIR" envDefault:"frontend"`
	EnableSwagger      bool     `json:"enableswagger" env:"ENABLE_SWAGGER" envDefault:"false"`
	GeoIPDBPath        string   `json:"geoipdbpath" env:"GEOIP_DB_PATH"`
}

var (
	config    *Config
	configErr error
	once      sync.Once
)

// LoadConfig loads the environment variables (from a .env file when one exists) and
// returns a singleton Config instance. A malformed value is reported on every call.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		// A missing .env file is normal in containers; the real environment still applies.
		_ = godotenv.Load()
		config, configErr = FromEnv()
	})
	return config, configErr
}

// ResetConfigForTest drops the cached singleton so the next LoadConfig re-reads the environment.
func ResetConfigForTest() {
	config = nil
	configErr = nil
	once = sync.Once{}
}

// FromEnv builds a Config from the current process environment, applying defaults.
// Values that cannot be converted to their field type are an error, never a silent default.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}

	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.InfoPolicy = strings.ToLower(strings.TrimSpace(cfg.InfoPolicy))
	cfg.CORSAllowedOrigins = trimList(cfg.CORSAllowedOrigins)
	cfg.TrustedProxies = trimList(cfg.TrustedProxies)
	return cfg, nil
}

// Validate checks value ranges and enumerations that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether HTTPS enforcement applies.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// DSN returns the MySQL data source name for the configured store.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.DBConnectTimeout)
}

// ConnectMySQL opens the gorm connection pool for the configured store. In the test
// environment an in-memory SQLite database is used instead.
//
// The pool is opened lazily: an unreachable server does not make this call fail, so the
// caller can log the outcome of Ping and keep serving.
func ConnectMySQL(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	if cfg.AppEnv == EnvTest {
		dialector = sqlite.Open(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", cfg.AppName, time.Now().UnixNano()))
	} else {
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			SkipInitializeWithVersion: true,
		})
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.AppEnv == EnvTest {
		// A single connection keeps the shared in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	return db, nil
}

// PingDatabase checks that the pool can reach the store within the connect timeout.
func PingDatabase(ctx context.Context, cfg *Config, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// trimList drops blanks around and between comma separated entries.
func trimList(in []string) []string {
	var out []string
	for _, part := range in {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
