package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strconv"
    "strings"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are listed in Load; the rest
// fall back to defaults suitable for local development.
type Config struct {
    Env            string // application environment (development, production)
    Port           string // HTTP port to listen on
    LogLevel       string // zerolog level name (debug, info, warn, error)
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    // AlertOnNoSignal keeps evaluating thresholds for frames the device marked
    // NO_SIGNAL even though the reading itself is discarded.
    AlertOnNoSignal bool

    RabbitURL string // AMQP broker URL; empty disables alert event publishing
}

// Load reads the optional .env file and then the process environment.  All
// missing required keys are reported together in a single error.
func Load() (Config, error) {
    _ = godotenv.Load() // .env is optional; real env vars win

    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || strings.TrimSpace(v) == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:             envStr("APP_ENV", "development"),
        Port:            envStr("APP_PORT", "8080"),
        LogLevel:        envStr("LOG_LEVEL", "info"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"),
        DBHost:          must("DB_HOST"),
        DBPort:          envStr("DB_PORT", "3306"),
        DBName:          must("DB_NAME"),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 30),
        RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:      envInt("BCRYPT_COST", 12),
        AlertOnNoSignal: envBool("ALERT_ON_NO_SIGNAL", true),
        RabbitURL:       rabbitURL(),
    }
    if len(missing) > 0 {
        return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
        return Config{}, fmt.Errorf("invalid BCRYPT_COST %d: must be between 4 and 31", cfg.BcryptCost)
    }
    if _, err := strconv.Atoi(cfg.DBPort); err != nil {
        return Config{}, fmt.Errorf("invalid DB_PORT %q", cfg.DBPort)
    }
    return cfg, nil
}

// IsProduction reports whether diagnostic detail must be kept out of responses.
func (c Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}
