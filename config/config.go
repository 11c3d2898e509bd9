package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Log      LogConfig
	Server   ServerConfig
	Calc     CalcConfig
	Ruleset  RulesetConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Host                     string
	Port                     int
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	IdleTimeout              time.Duration
	ShutdownTimeout          time.Duration
	SubmitRateLimitPerMinute int
	SubmitRateLimitBurst     int
}

// CalcConfig covers both sides of the calculation service: the URL the advisor posts to and
// the port the reference service listens on.
type CalcConfig struct {
	ServiceURL string
	Timeout    time.Duration
	Port       int
}

type RulesetConfig struct {
	Name      string
	File      string
	CapPolicy string
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// Load reads the configuration from the environment and an optional .env file.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	cfg.Log = LogConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	shutdownTimeout, err := parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return cfg, err
	}

	submitRateLimitPerMinute, err := parseIntEnv("SUBMIT_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return cfg, err
	}

	submitRateLimitBurst, err := parseIntEnv("SUBMIT_RATE_LIMIT_BURST", 5)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:                     getEnv("SERVER_HOST", "0.0.0.0"),
		Port:                     serverPort,
		ReadTimeout:              readTimeout,
		WriteTimeout:             writeTimeout,
		IdleTimeout:              idleTimeout,
		ShutdownTimeout:          shutdownTimeout,
		SubmitRateLimitPerMinute: submitRateLimitPerMinute,
		SubmitRateLimitBurst:     submitRateLimitBurst,
	}

	calcTimeout, err := parseDurationEnv("CALC_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	calcPort, err := parseIntEnv("CALC_PORT", 8000)
	if err != nil {
		return cfg, err
	}

	cfg.Calc = CalcConfig{
		ServiceURL: getEnv("CALC_SERVICE_URL", "http://localhost:8000"),
		Timeout:    calcTimeout,
		Port:       calcPort,
	}

	cfg.Ruleset = RulesetConfig{
		Name:      getEnv("RULESET", ruleset.Default),
		File:      getEnv("RULESET_FILE", ""),
		CapPolicy: getEnv("CAP_POLICY", ""),
	}

	cfg.Database = DatabaseConfig{
		URL: getEnv("DATABASE_URL", ""),
	}

	tokenTTL, err := parseDurationEnv("ADMIN_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "tax-advisor"),
		TokenTTL:  tokenTTL,
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Load resolves the active ruleset: RULESET_FILE wins over RULESET, and CAP_POLICY, when set,
// overrides the policy of the profile.
func (c RulesetConfig) Load() (*ruleset.Ruleset, error) {
	var (
		rules *ruleset.Ruleset
		err   error
	)

	if c.File != "" {
		rules, err = ruleset.LoadFile(c.File)
	} else {
		rules, err = ruleset.Load(c.Name)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(c.CapPolicy) != "" {
		policy, err := ruleset.ParsePolicy(c.CapPolicy)
		if err != nil {
			return nil, err
		}
		rules = rules.WithPolicy(policy)
	}

	return rules, nil
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Calc.Port <= 0 {
		return fmt.Errorf("CALC_PORT must be greater than 0")
	}

	u, err := url.Parse(c.Calc.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CALC_SERVICE_URL must be an absolute URL")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	if _, err := ruleset.ParsePolicy(c.Ruleset.CapPolicy); err != nil {
		return fmt.Errorf("CAP_POLICY: %w", err)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
