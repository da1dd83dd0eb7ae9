package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// App
	Env       string `env:"ENV" envDefault:"dev"` // dev / staging / prod
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// HTTP
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"1m"`
	PublicBaseURL    string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Auth / Security
	JWTSecret  string        `env:"JWT_SECRET,required"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	// Infrastructure. Empty DB_ADDR selects the in-memory store; empty
	// REDIS_ADDR keeps rate limits per process.
	DBAddr        string `env:"DB_ADDR"`
	DBDebug       bool   `env:"DB_DEBUG" envDefault:"false"`
	AutoMigrate   bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Rate limits (fixed window)
	LoginRateLimit    int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	RegisterRateLimit int           `env:"REGISTER_RATE_LIMIT" envDefault:"5"`
	VerifyRateLimit   int           `env:"VERIFY_RATE_LIMIT" envDefault:"5"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Mail
	MailTransport  string        `env:"MAIL_TRANSPORT" envDefault:"log"` // smtp | rabbitmq | log
	MailFrom       string        `env:"MAIL_FROM" envDefault:"noreply@localhost"`
	MailWorkers    int           `env:"MAIL_WORKERS" envDefault:"4"`
	MailQueueSize  int           `env:"MAIL_QUEUE_SIZE" envDefault:"256"`
	MailTimeout    time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
	MailMaxAttempt int           `env:"MAIL_MAX_ATTEMPTS" envDefault:"5"`
	SMTPHost       string        `env:"SMTP_HOST"`
	SMTPPort       int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername   string        `env:"SMTP_USERNAME"`
	SMTPPassword   string        `env:"SMTP_PASSWORD"`
	SMTPInsecure   bool          `env:"SMTP_INSECURE" envDefault:"false"`
	RabbitURL      string        `env:"RABBIT_URL"`
	RabbitExchange string        `env:"RABBIT_EXCHANGE" envDefault:"contacts.mail"`
	MailQueue      string        `env:"MAIL_QUEUE" envDefault:"contacts-api.mail"`

	// Avatars
	AvatarStorage  string `env:"AVATAR_STORAGE" envDefault:"local"` // local | s3
	AvatarDir      string `env:"AVATAR_DIR" envDefault:"public/avatars"`
	AvatarMaxBytes int64  `env:"AVATAR_MAX_BYTES" envDefault:"5242880"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID  string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Prefix       string `env:"S3_PREFIX" envDefault:"avatars"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	S3PublicURL    string `env:"S3_PUBLIC_BASE_URL"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("missing required env var: JWT_SECRET")
	}
	// bcrypt accepts 4..31
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative")
	}

	switch c.MailTransport {
	case "log":
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("MAIL_TRANSPORT=smtp requires SMTP_HOST")
		}
	case "rabbitmq":
		if c.RabbitURL == "" {
			return fmt.Errorf("MAIL_TRANSPORT=rabbitmq requires RABBIT_URL")
		}
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be one of smtp, rabbitmq, log; got %q", c.MailTransport)
	}

	switch c.AvatarStorage {
	case "local":
	case "s3":
		if c.S3Bucket == "" || c.S3PublicURL == "" {
			return fmt.Errorf("AVATAR_STORAGE=s3 requires S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return fmt.Errorf("AVATAR_STORAGE must be local or s3; got %q", c.AvatarStorage)
	}

	if c.AvatarMaxBytes <= 0 {
		return fmt.Errorf("AVATAR_MAX_BYTES must be positive")
	}
	return nil
}

// ValidateMailWorker checks what the mail worker needs regardless of MAIL_TRANSPORT.
func (c *Config) ValidateMailWorker() error {
	if c.RabbitURL == "" {
		return fmt.Errorf("mail-worker requires RABBIT_URL")
	}
	if c.SMTPHost == "" {
		return fmt.Errorf("mail-worker requires SMTP_HOST")
	}
	return nil
}
