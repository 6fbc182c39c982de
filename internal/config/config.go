// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Email       EmailConfig
	Shop        ShopConfig
	Admin       AdminConfig
	CORS        CORSConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port                string
	Host                string
	ReadTimeout         int
	WriteTimeout        int
	IdleTimeout         int
	NotificationTimeout int // in seconds
	UploadDir           string
	MaxUploadMB         int
	RateLimitRPS        int // per client IP, 0 disables
	RateLimitBurst      int
	LoginRateLimit      int // attempts per LoginRateWindow minutes
	LoginRateWindow     int
}

type DatabaseConfig struct {
	Driver       string // postgres or memory
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey string
	TTLHours  int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type ShopConfig struct {
	Name     string
	Currency string
	Locale   string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	environment := getEnv("ENVIRONMENT", "development")
	config := &Config{
		Environment: environment,
		Server: ServerConfig{
			Port:                getEnv("SERVER_PORT", "5000"),
			Host:                getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:         getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:        getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:         getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			NotificationTimeout: getEnvAsInt("NOTIFICATION_TIMEOUT", 10),
			UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadMB:         getEnvAsInt("MAX_UPLOAD_MB", 5),
			RateLimitRPS:        getEnvAsInt("RATE_LIMIT_RPS", 20),
			RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 40),
			LoginRateLimit:      getEnvAsInt("LOGIN_RATE_LIMIT", 10),
			LoginRateWindow:     getEnvAsInt("LOGIN_RATE_WINDOW_MINUTES", 10),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "pirotecnica"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", defaultJWTSecret),
			TTLHours:  getEnvAsInt("JWT_TTL_HOURS", 168), // 7 days
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "eu-south-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@pirotecnica.local"),
			FromName:     getEnv("FROM_NAME", "Pirotecnica Posca"),
		},
		Shop: ShopConfig{
			Name:     getEnv("SHOP_NAME", "Pirotecnica Posca"),
			Currency: strings.ToUpper(getEnv("SHOP_CURRENCY", "EUR")),
			Locale:   getEnv("SHOP_LOCALE", "it"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Admin"),
			Email:    strings.ToLower(getEnv("ADMIN_EMAIL", "")),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(environment)),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.JWT.TTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}

	if c.Server.RateLimitRPS < 0 || c.Server.LoginRateLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if c.Server.LoginRateLimit > 0 && c.Server.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_WINDOW_MINUTES must be positive")
	}

	if _, err := currency.ParseISO(c.Shop.Currency); err != nil {
		return fmt.Errorf("invalid SHOP_CURRENCY %q: %w", c.Shop.Currency, err)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (a AWSConfig) Enabled() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != "" && a.S3Bucket != ""
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

func defaultLogFormat(environment string) string {
	if environment == "production" {
		return "json"
	}
	return "text"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
