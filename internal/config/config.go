package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Directory   DirectoryConfig
	Auth        AuthConfig
	Email       EmailConfig
	ActionToken ActionTokenConfig
	Query       QueryConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type DirectoryConfig struct {
	Backend     string
	FixturePath string

	// ReloadInterval polls the fixture for changes on the memory backend; zero disables it.
	ReloadInterval time.Duration
}

type AuthConfig struct {
	JWTSecret             string
	AccessTokenExpiry     time.Duration
	AdminClientID         string
	AdminClientSecretHash string
	TokenRateLimit        int
	AdminRateLimit        int
}

const (
	TransportSES  = "ses"
	TransportSMTP = "smtp"
)

type EmailConfig struct {
	Transport     string
	FromAddress   string
	AWSRegion     string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLS       bool
	PublicBaseURL string
}

// ClaimMapping copies a user attribute into an action token claim when the
// required actions contain Action.
type ClaimMapping struct {
	Action    string
	Attribute string
	Claim     string
}

type ActionTokenConfig struct {
	Secret string
	Claims []ClaimMapping
}

type QueryConfig struct {
	DefaultPageSize int
	StrictParams    bool
	MembershipMatch string
}

// DefaultActionTokenClaims routes the verify-email action to the pending address.
const DefaultActionTokenClaims = "ct-verify-email:emailToValidate:email"

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	claims, err := ParseClaimMappings(getEnv("ACTION_TOKEN_CLAIMS", DefaultActionTokenClaims))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: loadDatabase(),
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Directory: DirectoryConfig{
			Backend:        strings.ToLower(getEnv("DIRECTORY_BACKEND", BackendPostgres)),
			FixturePath:    getEnv("DIRECTORY_FIXTURE", ""),
			ReloadInterval: getEnvAsDuration("DIRECTORY_RELOAD_INTERVAL", 0),
		},
		Auth: AuthConfig{
			JWTSecret:             jwtSecret,
			AccessTokenExpiry:     getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			AdminClientID:         getEnv("ADMIN_CLIENT_ID", "admin-cli"),
			AdminClientSecretHash: getEnv("ADMIN_CLIENT_SECRET_HASH", ""),
			TokenRateLimit:        getEnvAsInt("TOKEN_RATE_LIMIT_PER_MINUTE", 10),
			AdminRateLimit:        getEnvAsInt("ADMIN_RATE_LIMIT_PER_MINUTE", 300),
		},
		Email: EmailConfig{
			Transport:     strings.ToLower(getEnv("EMAIL_TRANSPORT", TransportSES)),
			FromAddress:   getEnv("EMAIL_FROM", "noreply@localhost"),
			AWSRegion:     getEnv("AWS_REGION", ""),
			SMTPHost:      getEnv("SMTP_HOST", "localhost"),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			SMTPTLS:       getEnvAsBool("SMTP_TLS", true),
			PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		ActionToken: ActionTokenConfig{
			Secret: getEnv("ACTION_TOKEN_SECRET", jwtSecret),
			Claims: claims,
		},
		Query: QueryConfig{
			DefaultPageSize: getEnvAsInt("QUERY_DEFAULT_PAGE_SIZE", 100),
			StrictParams:    getEnvAsBool("QUERY_STRICT_PARAMS", false),
			MembershipMatch: strings.ToLower(getEnv("QUERY_MEMBERSHIP_MATCH", "all")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that never serve requests.
func LoadDatabase() DatabaseConfig {
	_ = godotenv.Load()
	return loadDatabase()
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "realmadmin"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}
}

func (c *Config) validate() error {
	switch c.Directory.Backend {
	case BackendPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case BackendMemory:
		if c.Directory.FixturePath == "" {
			return fmt.Errorf("DIRECTORY_FIXTURE is required for the memory backend")
		}
	default:
		return fmt.Errorf("DIRECTORY_BACKEND must be %q or %q (got %q)", BackendPostgres, BackendMemory, c.Directory.Backend)
	}

	switch c.Email.Transport {
	case TransportSES, TransportSMTP:
	default:
		return fmt.Errorf("EMAIL_TRANSPORT must be %q or %q (got %q)", TransportSES, TransportSMTP, c.Email.Transport)
	}

	if c.Query.DefaultPageSize <= 0 {
		return fmt.Errorf("QUERY_DEFAULT_PAGE_SIZE must be positive")
	}

	switch c.Query.MembershipMatch {
	case "all", "any":
	default:
		return fmt.Errorf("QUERY_MEMBERSHIP_MATCH must be \"all\" or \"any\" (got %q)", c.Query.MembershipMatch)
	}

	if c.Server.Env == "production" && c.Auth.AdminClientSecretHash == "" {
		return fmt.Errorf("ADMIN_CLIENT_SECRET_HASH is required in production")
	}

	return nil
}

// ParseClaimMappings parses "action:attribute:claim" entries separated by commas.
func ParseClaimMappings(raw string) ([]ClaimMapping, error) {
	var mappings []ClaimMapping
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("ACTION_TOKEN_CLAIMS entry %q must be action:attribute:claim", entry)
		}
		mappings = append(mappings, ClaimMapping{
			Action:    strings.TrimSpace(parts[0]),
			Attribute: strings.TrimSpace(parts[1]),
			Claim:     strings.TrimSpace(parts[2]),
		})
	}
	return mappings, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
	}
}
