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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Offers       OffersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Offers.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WHOLESALE_APP_ENV" required:"true"`
	Port         string `envconfig:"WHOLESALE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WHOLESALE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WHOLESALE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"WHOLESALE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"WHOLESALE_DB_DSN"`
	Driver string `envconfig:"WHOLESALE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WHOLESALE_DB_HOST"`
	LegacyPort     int    `envconfig:"WHOLESALE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WHOLESALE_DB_USER"`
	LegacyPassword string `envconfig:"WHOLESALE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WHOLESALE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WHOLESALE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WHOLESALE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WHOLESALE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WHOLESALE_REDIS_URL"`
	Address      string        `envconfig:"WHOLESALE_REDIS_ADDR"`
	Password     string        `envconfig:"WHOLESALE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WHOLESALE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WHOLESALE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WHOLESALE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WHOLESALE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig holds the verification settings for admin bearer tokens. Tokens are
// minted by the identity service; this process only verifies them.
type JWTConfig struct {
	Secret string `envconfig:"WHOLESALE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"WHOLESALE_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"WHOLESALE_AUTO_MIGRATE" default:"false"`
}

type OffersConfig struct {
	CacheTTL       time.Duration `envconfig:"WHOLESALE_OFFERS_CACHE_TTL" default:"5m"`
	RoundingPlaces int32         `envconfig:"WHOLESALE_OFFERS_ROUNDING_PLACES" default:"2"`
	MaxCartLines   int           `envconfig:"WHOLESALE_OFFERS_MAX_CART_LINES" default:"500"`
	SweepInterval  time.Duration `envconfig:"WHOLESALE_OFFERS_SWEEP_INTERVAL" default:"1m"`
	SweepLookback  time.Duration `envconfig:"WHOLESALE_OFFERS_SWEEP_LOOKBACK" default:"1h"`

	CatalogBreakerTimeout      time.Duration `envconfig:"WHOLESALE_CATALOG_BREAKER_TIMEOUT" default:"30s"`
	CatalogBreakerMinRequests  uint32        `envconfig:"WHOLESALE_CATALOG_BREAKER_MIN_REQUESTS" default:"5"`
	CatalogBreakerFailureRatio float64       `envconfig:"WHOLESALE_CATALOG_BREAKER_FAILURE_RATIO" default:"0.5"`
}

func (o OffersConfig) validate() error {
	if o.RoundingPlaces < 0 || o.RoundingPlaces > 6 {
		return fmt.Errorf("%s must be between 0 and 6", EnvOffersRoundingPlaces)
	}
	if o.MaxCartLines <= 0 {
		return fmt.Errorf("%s must be positive", EnvOffersMaxCartLines)
	}
	if o.SweepInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvOffersSweepInterval)
	}
	if o.SweepLookback < o.SweepInterval {
		return fmt.Errorf("%s must be at least %s", EnvOffersSweepLookback, EnvOffersSweepInterval)
	}
	if o.CatalogBreakerFailureRatio <= 0 || o.CatalogBreakerFailureRatio > 1 {
		return fmt.Errorf("%s must be in (0, 1]", EnvCatalogBreakerFailureRatio)
	}
	return nil
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
