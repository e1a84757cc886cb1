package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Auth strategies. Exactly one is active per deployment.
const (
	AuthStrategyJWT     = "jwt"
	AuthStrategySession = "session"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	Menu     MenuConfig
	Server   ServerConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// admin change feed.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// AuthConfig selects the credential verification strategy.
type AuthConfig struct {
	Strategy      string
	JWTSecret     string //nolint:gosec // G117: JWT signing secret config
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string //nolint:gosec // G117: bootstrap admin credential
}

// SupabaseConfig is the hosted backend the frontend bootstraps against. The
// session strategy also verifies tokens against it.
type SupabaseConfig struct {
	URL     string
	AnonKey string
}

// StorageConfig holds the S3-compatible bucket used for menu images.
type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string //nolint:gosec // G117: storage credential config
	Bucket         string
	UseSSL         bool
	PublicURL      string
	MaxUploadBytes int64
}

type MenuConfig struct {
	BestSellerLimit int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := getEnvInt("MENU_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("MENU_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("MENU_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tokenTTL, err := getEnvDuration("MENU_JWT_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	useSSL, err := getEnvBool("MENU_STORAGE_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxUpload, err := getEnvInt("MENU_UPLOAD_MAX_BYTES", 5<<20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	bestSellerLimit, err := getEnvInt("MENU_BEST_SELLER_LIMIT", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("MENU_SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("MENU_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	addr := getEnv("MENU_SERVER_ADDR", ":3000")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("MENU_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("MENU_DB_USER", "menuboard"),
			Password: getEnv("MENU_DB_PASSWORD", ""),
			DBName:   getEnv("MENU_DB_NAME", "menuboard"),
			SSLMode:  getEnv("MENU_DB_SSLMODE", "require"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("MENU_REDIS_ADDR", ""),
			Password: getEnv("MENU_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			Strategy:      strings.ToLower(getEnv("MENU_AUTH_STRATEGY", AuthStrategyJWT)),
			JWTSecret:     getEnv("MENU_JWT_SECRET", ""),
			TokenTTL:      tokenTTL,
			AdminEmail:    getEnv("MENU_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("MENU_ADMIN_PASSWORD", ""),
		},
		Supabase: SupabaseConfig{
			URL:     strings.TrimRight(getEnv("MENU_SUPABASE_URL", ""), "/"),
			AnonKey: getEnv("MENU_SUPABASE_ANON_KEY", ""),
		},
		Storage: StorageConfig{
			Endpoint:       getEnv("MENU_STORAGE_ENDPOINT", ""),
			AccessKey:      getEnv("MENU_STORAGE_ACCESS_KEY", ""),
			SecretKey:      getEnv("MENU_STORAGE_SECRET_KEY", ""),
			Bucket:         getEnv("MENU_STORAGE_BUCKET", "menu-images"),
			UseSSL:         useSSL,
			PublicURL:      strings.TrimRight(getEnv("MENU_STORAGE_PUBLIC_URL", ""), "/"),
			MaxUploadBytes: int64(maxUpload),
		},
		Menu: MenuConfig{
			BestSellerLimit: bestSellerLimit,
		},
		Server: ServerConfig{
			Addr:         addr,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("MENU_CORS_ORIGINS", []string{"*"}),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	switch c.Auth.Strategy {
	case AuthStrategyJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("MENU_JWT_SECRET is required for the jwt auth strategy")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return errors.New("MENU_JWT_SECRET must be at least 32 characters")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("MENU_JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
		}
		if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
			return errors.New("MENU_ADMIN_EMAIL and MENU_ADMIN_PASSWORD must be set together")
		}
	case AuthStrategySession:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return errors.New("MENU_SUPABASE_URL and MENU_SUPABASE_ANON_KEY are required for the session auth strategy")
		}
	default:
		return fmt.Errorf("MENU_AUTH_STRATEGY must be %q or %q, got %q", AuthStrategyJWT, AuthStrategySession, c.Auth.Strategy)
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("MENU_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("MENU_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("MENU_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("MENU_UPLOAD_MAX_BYTES must be positive, got %d", c.Storage.MaxUploadBytes)
	}
	if c.Menu.BestSellerLimit < 0 {
		return fmt.Errorf("MENU_BEST_SELLER_LIMIT must be >= 0, got %d", c.Menu.BestSellerLimit)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("MENU_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("MENU_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection URL. Credentials and the database
// name are escaped, so any characters are safe in them.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// Enabled reports whether an image bucket is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
