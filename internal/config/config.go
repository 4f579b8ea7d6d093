package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	NotifierLog      = "log"
	NotifierSMTP     = "smtp"
	NotifierRabbitMQ = "rabbitmq"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	//Auth / Security
	JWTSecret  string
	JWTIssuer  string
	BcryptCost int

	// Storage
	UserStore     string // memory / postgres
	DBAddr        string
	DBDebug       bool
	DBAutoMigrate bool

	// Redis backs the forgot-password rate limiter; empty means in-process limiting.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Notification transport
	Notifier       string // log / smtp / rabbitmq
	RabbitURL      string
	RabbitExchange string
	SMTP           SMTPConfig

	// Password recovery
	PasswordResetBaseURL string
	ForgotLimit          int
	ForgotWindow         time.Duration
	TrustProxy           bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer:      os.Getenv("JWT_ISSUER"),
		UserStore:      strings.ToLower(getEnv("USER_STORE", StorePostgres)),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		Notifier:       strings.ToLower(getEnv("NOTIFIER", NotifierLog)),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "city.events"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	// Must include `token=` because the service appends the token.
	cfg.PasswordResetBaseURL = os.Getenv("PASSWORD_RESET_BASE_URL")
	if cfg.PasswordResetBaseURL == "" {
		return nil, fmt.Errorf("missing required env var: PASSWORD_RESET_BASE_URL")
	}
	if !strings.Contains(cfg.PasswordResetBaseURL, "token=") {
		return nil, fmt.Errorf("PASSWORD_RESET_BASE_URL must contain `token=`")
	}

	switch cfg.UserStore {
	case StoreMemory:
	case StorePostgres:
		cfg.DBAddr = os.Getenv("DB_ADDR")
		if cfg.DBAddr == "" {
			return nil, fmt.Errorf("missing required env var: DB_ADDR")
		}
	default:
		return nil, fmt.Errorf("invalid USER_STORE: %q", cfg.UserStore)
	}

	var err error
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate, err = getBool("DB_AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return nil, err
	}

	switch cfg.Notifier {
	case NotifierLog:
	case NotifierRabbitMQ:
		cfg.RabbitURL = os.Getenv("RABBIT_URL")
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("missing required env var: RABBIT_URL")
		}
	case NotifierSMTP:
		if err := loadSMTP(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid NOTIFIER: %q", cfg.Notifier)
	}

	if cfg.ForgotLimit, err = getInt("RL_FORGOT_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.ForgotWindow, err = getDuration("RL_FORGOT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = getBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	//Timeout values are optional and have a default value if not
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadSMTP(cfg *Config) error {
	s := SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	if s.Host == "" {
		return fmt.Errorf("missing required env var: SMTP_HOST")
	}
	if s.From == "" {
		return fmt.Errorf("missing required env var: SMTP_FROM")
	}
	var err error
	if s.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return err
	}
	if s.Timeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	if s.Insecure, err = getBool("SMTP_INSECURE", false); err != nil {
		return err
	}
	cfg.SMTP = s
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
