package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	NotifyLog  = "log"
	NotifyHTTP = "http"
)

type Config struct {
	Env                 string        `mapstructure:"ENV"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	LogFormat           string        `mapstructure:"LOG_FORMAT"`
	Port                int           `mapstructure:"PORT"`
	ShutdownGracePeriod time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseFile   string `mapstructure:"DATABASE_FILE"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32  `mapstructure:"DB_MIN_CONNS"`

	AuthIssuer    string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience  string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWTSecret string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthJWKSURL   string        `mapstructure:"AUTH_JWKS_URL"`
	AuthLeeway    time.Duration `mapstructure:"AUTH_LEEWAY"`

	ChallengePepperFile   string        `mapstructure:"CHALLENGE_PEPPER_FILE"`
	ChallengeTTL          time.Duration `mapstructure:"CHALLENGE_TTL"`
	ChallengeWindow       time.Duration `mapstructure:"CHALLENGE_WINDOW"`
	ChallengeMaxPerWindow int           `mapstructure:"CHALLENGE_MAX_PER_WINDOW"`
	GrantExpiringSoon     time.Duration `mapstructure:"GRANT_EXPIRING_SOON"`
	GrantMaxTTL           time.Duration `mapstructure:"GRANT_MAX_TTL"`
	ConfirmRequestsPerMin int           `mapstructure:"RATELIMIT_CONFIRM_REQUESTS"`
	ConfirmBurst          int           `mapstructure:"RATELIMIT_CONFIRM_BURST"`

	NotifyDriver   string        `mapstructure:"NOTIFY_DRIVER"`
	NotifyEndpoint string        `mapstructure:"NOTIFY_ENDPOINT"`
	NotifyAPIKey   string        `mapstructure:"NOTIFY_API_KEY"`
	NotifyFrom     string        `mapstructure:"NOTIFY_FROM"`
	NotifyTimeout  time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
}

var configKeys = []string{
	"ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD",
	"DATABASE_DRIVER", "DATABASE_FILE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWT_SECRET", "AUTH_JWKS_URL", "AUTH_LEEWAY",
	"CHALLENGE_PEPPER_FILE", "CHALLENGE_TTL", "CHALLENGE_WINDOW", "CHALLENGE_MAX_PER_WINDOW",
	"GRANT_EXPIRING_SOON", "GRANT_MAX_TTL",
	"RATELIMIT_CONFIRM_REQUESTS", "RATELIMIT_CONFIRM_BURST",
	"NOTIFY_DRIVER", "NOTIFY_ENDPOINT", "NOTIFY_API_KEY", "NOTIFY_FROM", "NOTIFY_TIMEOUT",
}

// LoadConfig reads the environment (and an optional .env file) over the
// defaults below. It does not validate; call Validate before use.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)

	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_FILE", "consent.db")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	v.SetDefault("AUTH_AUDIENCE", jwtx.RoleAuthenticated)
	v.SetDefault("AUTH_LEEWAY", 30*time.Second)

	v.SetDefault("CHALLENGE_PEPPER_FILE", "pepper")
	v.SetDefault("CHALLENGE_TTL", 10*time.Minute)
	v.SetDefault("CHALLENGE_WINDOW", 60*time.Minute)
	v.SetDefault("CHALLENGE_MAX_PER_WINDOW", 3)
	v.SetDefault("GRANT_EXPIRING_SOON", 2*time.Hour)
	v.SetDefault("GRANT_MAX_TTL", 30*24*time.Hour)
	v.SetDefault("RATELIMIT_CONFIRM_REQUESTS", 5)
	v.SetDefault("RATELIMIT_CONFIRM_BURST", 5)

	v.SetDefault("NOTIFY_DRIVER", NotifyLog)
	v.SetDefault("NOTIFY_TIMEOUT", 10*time.Second)

	// Unmarshal only sees keys viper knows about.
	for _, k := range configKeys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development" || c.Env == "test"
}

// Audiences splits AUTH_AUDIENCE on commas.
func (c Config) Audiences() []string {
	var out []string
	for _, a := range strings.Split(c.AuthAudience, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Validate refuses configurations that cannot run safely.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.AuthJWTSecret == "" && c.AuthJWKSURL == "":
		errs = append(errs, errors.New("one of AUTH_JWT_SECRET or AUTH_JWKS_URL is required"))
	case c.AuthJWTSecret != "" && len(c.AuthJWTSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver))
	}

	switch c.NotifyDriver {
	case NotifyLog:
		if !c.IsDev() {
			errs = append(errs, fmt.Errorf("NOTIFY_DRIVER=log prints codes and is only allowed in dev (ENV=%q)", c.Env))
		}
	case NotifyHTTP:
		if c.NotifyEndpoint == "" || c.NotifyFrom == "" {
			errs = append(errs, errors.New("NOTIFY_ENDPOINT and NOTIFY_FROM are required for the http notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_DRIVER must be %q or %q, got %q", NotifyLog, NotifyHTTP, c.NotifyDriver))
	}

	if c.ChallengeTTL <= 0 || c.ChallengeWindow <= 0 || c.ChallengeMaxPerWindow <= 0 {
		errs = append(errs, errors.New("CHALLENGE_TTL, CHALLENGE_WINDOW and CHALLENGE_MAX_PER_WINDOW must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}
