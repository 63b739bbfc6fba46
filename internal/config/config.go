package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアドライバ
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// パスワード比較方式
const (
	PasswordSchemePlaintext = "plaintext"
	PasswordSchemeBcrypt    = "bcrypt"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreDriver   string
	DatabaseURL   string
	AutoMigrate   bool
	MongoURI      string
	MongoDatabase string

	// Server
	ServerPort        string
	CORSAllowedOrigin string
	FrontendBaseURL   string

	// Identity
	GoogleUserInfoURL string
	IdentityTimeout   time.Duration

	// Mail
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// Admin seed
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Auth
	PasswordScheme string

	// Logging
	LogLevel string
}

// envFiles は起動時に読み込む.envファイルの候補。
// 既に設定済みの環境変数は上書きしない。
var envFiles = []string{".env", "../.env"}

// LoadDotEnv は.envファイルが存在すれば環境変数として読み込む。
func LoadDotEnv() {
	for _, p := range envFiles {
		if err := godotenv.Load(p); err == nil {
			slog.Debug("loaded env file", slog.String("path", p))
			return
		}
	}
}

// Load は環境変数からConfigを読み込む。
// ストアドライバに応じた必須環境変数が未設定の場合や、列挙値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var problems []string

	cfg.StoreDriver = strings.ToLower(getEnvString("STORE_DRIVER", StoreDriverPostgres))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.MongoURI = os.Getenv("MONGODB_URI")

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			problems = append(problems, "MONGODB_URI is required for STORE_DRIVER=mongo")
		}
	case StoreDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unsupported STORE_DRIVER %q", cfg.StoreDriver))
	}

	cfg.PasswordScheme = strings.ToLower(getEnvString("PASSWORD_SCHEME", PasswordSchemePlaintext))
	if cfg.PasswordScheme != PasswordSchemePlaintext && cfg.PasswordScheme != PasswordSchemeBcrypt {
		problems = append(problems, fmt.Sprintf("unsupported PASSWORD_SCHEME %q", cfg.PasswordScheme))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", problems)
	}

	// Optional fields with defaults
	cfg.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", true)
	cfg.MongoDatabase = getEnvString("MONGODB_DATABASE", "floodwatch")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.FrontendBaseURL = strings.TrimRight(getEnvString("FRONTEND_BASE_URL", "http://localhost:5173"), "/")
	cfg.GoogleUserInfoURL = getEnvString("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v3/userinfo")
	cfg.IdentityTimeout = getEnvDuration("IDENTITY_TIMEOUT", 10*time.Second)
	cfg.SMTPHost = getEnvString("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getEnvString("SMTP_PORT", "587")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailFrom = getEnvString("MAIL_FROM", "noreply@floodwatch.local")
	cfg.AdminEmail = getEnvString("ADMIN_EMAIL", "admin@gmail.com")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "admin@12345")
	cfg.AdminName = getEnvString("ADMIN_NAME", "System Administrator")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// SMTPConfigured はSMTP認証情報が揃っているかどうかを返す。
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
