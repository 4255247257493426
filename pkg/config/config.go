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
	Password     PasswordConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.JWT.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ASHASETU_APP_ENV" required:"true"`
	Port         string `envconfig:"ASHASETU_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"ASHASETU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASHASETU_LOG_WARN_STACK" default:"false"`

	// LogFormat is json or console; empty defers to LOG_FORMAT.
	LogFormat string `envconfig:"ASHASETU_LOG_FORMAT"`

	// CORSAllowedOrigins is comma separated; "*" allows any origin.
	CORSAllowedOrigins []string `envconfig:"ASHASETU_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ASHASETU_DB_DSN"`
	Driver string `envconfig:"ASHASETU_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ASHASETU_DB_HOST"`
	LegacyPort     int    `envconfig:"ASHASETU_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ASHASETU_DB_USER"`
	LegacyPassword string `envconfig:"ASHASETU_DB_PASSWORD"`
	LegacyName     string `envconfig:"ASHASETU_DB_NAME"`
	LegacySSLMode  string `envconfig:"ASHASETU_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"ASHASETU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASHASETU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASHASETU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASHASETU_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the store runs on the embedded SQLite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables Redis-backed features.
type RedisConfig struct {
	URL          string        `envconfig:"ASHASETU_REDIS_URL"`
	Address      string        `envconfig:"ASHASETU_REDIS_ADDR"`
	Password     string        `envconfig:"ASHASETU_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASHASETU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASHASETU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASHASETU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASHASETU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASHASETU_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ASHASETU_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ASHASETU_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ASHASETU_JWT_ISSUER" default:"ashasetu"`
	ExpirationMinutes int    `envconfig:"ASHASETU_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	Algorithm     string `envconfig:"ASHASETU_PASSWORD_ALGORITHM" default:"bcrypt"`
	BcryptCost    int    `envconfig:"ASHASETU_PASSWORD_BCRYPT_COST" default:"10"`
	MaxConcurrent int    `envconfig:"ASHASETU_PASSWORD_MAX_CONCURRENT" default:"0"`

	ArgonMemoryKB    int `envconfig:"ASHASETU_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ASHASETU_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ASHASETU_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ASHASETU_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ASHASETU_ARGON_KEY_LEN" default:"32"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"ASHASETU_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ASHASETU_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"ASHASETU_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"ASHASETU_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
