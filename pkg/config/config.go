package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Cookie       CookieConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TALLYCART_APP_ENV" required:"true"`
	Port         string `envconfig:"TALLYCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALLYCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TALLYCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TALLYCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TALLYCART_DB_DSN"`
	Driver string `envconfig:"TALLYCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TALLYCART_DB_HOST"`
	LegacyPort     int    `envconfig:"TALLYCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALLYCART_DB_USER"`
	LegacyPassword string `envconfig:"TALLYCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALLYCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALLYCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALLYCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALLYCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALLYCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALLYCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALLYCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TALLYCART_REDIS_ADDR"`
	Password     string        `envconfig:"TALLYCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALLYCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALLYCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALLYCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALLYCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALLYCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALLYCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TALLYCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TALLYCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TALLYCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALLYCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALLYCART_AUTO_MIGRATE" default:"false"`
}

// CartConfig governs the cart engine itself: diagnostic logging and the
// read-through cache.
type CartConfig struct {
	LogEnabled           bool   `envconfig:"TALLYCART_CART_LOG_ENABLED" default:"false"`
	CacheEnabled         bool   `envconfig:"TALLYCART_CART_CACHE_ENABLED" default:"true"`
	CacheKeyPrefix       string `envconfig:"TALLYCART_CART_CACHE_KEY_PREFIX" default:"cart_cache_"`
	CacheLifetimeMinutes int    `envconfig:"TALLYCART_CART_CACHE_LIFETIME_MINUTES" default:"60"`
}

// CacheTTL returns the configured cache lifetime as a duration.
func (c CartConfig) CacheTTL() time.Duration {
	if c.CacheLifetimeMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.CacheLifetimeMinutes) * time.Minute
}

// CookieConfig governs anonymous-visitor identity persistence.
type CookieConfig struct {
	Name            string `envconfig:"TALLYCART_COOKIE_NAME" default:"cart_id"`
	LifetimeMinutes int    `envconfig:"TALLYCART_COOKIE_LIFETIME_MINUTES" default:"43200"`
	Secure          bool   `envconfig:"TALLYCART_COOKIE_SECURE" default:"true"`
}

// Lifetime returns the cookie lifetime as a duration (default 30 days).
func (c CookieConfig) Lifetime() time.Duration {
	if c.LifetimeMinutes <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.LifetimeMinutes) * time.Minute
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"TALLYCART_CRON_INTERVAL" default:"24h"`
	AbandonedAfterHours int           `envconfig:"TALLYCART_CRON_ABANDONED_AFTER_HOURS" default:"48"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TALLYCART_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"TALLYCART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CartEventsTopic string `envconfig:"TALLYCART_PUBSUB_CART_EVENTS_TOPIC" default:"cart-events"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
