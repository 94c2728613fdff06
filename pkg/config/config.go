package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Ingest        IngestConfig
	Bridge        BridgeConfig
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
	Env          string `envconfig:"LOGISCAN_APP_ENV" required:"true"`
	Port         string `envconfig:"LOGISCAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOGISCAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOGISCAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOGISCAN_DB_DSN"`
	Driver string `envconfig:"LOGISCAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOGISCAN_DB_HOST"`
	LegacyPort     int    `envconfig:"LOGISCAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOGISCAN_DB_USER"`
	LegacyPassword string `envconfig:"LOGISCAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOGISCAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOGISCAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOGISCAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOGISCAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOGISCAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOGISCAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOGISCAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOGISCAN_REDIS_ADDR"`
	Password     string        `envconfig:"LOGISCAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOGISCAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOGISCAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOGISCAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOGISCAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOGISCAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOGISCAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOGISCAN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOGISCAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOGISCAN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOGISCAN_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LOGISCAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LOGISCAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LOGISCAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LOGISCAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LOGISCAN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LOGISCAN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LOGISCAN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LOGISCAN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOGISCAN_AUTO_MIGRATE" default:"false"`
}

type IngestConfig struct {
	MaxBatchSize int `envconfig:"LOGISCAN_INGEST_MAX_BATCH_SIZE" default:"1000"`
}

type BridgeConfig struct {
	MainBackendURL string        `envconfig:"LOGISCAN_BRIDGE_MAIN_BACKEND_URL"`
	APIKey         string        `envconfig:"LOGISCAN_BRIDGE_API_KEY"`
	Timeout        time.Duration `envconfig:"LOGISCAN_BRIDGE_TIMEOUT" default:"90s"`
	QueueDepth     int           `envconfig:"LOGISCAN_BRIDGE_QUEUE_DEPTH" default:"64"`
	BatchSize      int           `envconfig:"LOGISCAN_BRIDGE_POLL_BATCH_SIZE" default:"20"`
	PollIntervalMS int           `envconfig:"LOGISCAN_BRIDGE_POLL_MS" default:"2000"`
}

// Configured reports whether a bridge destination endpoint is set.
func (b BridgeConfig) Configured() bool {
	return strings.TrimSpace(b.MainBackendURL) != ""
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
