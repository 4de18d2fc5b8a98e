package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	AemetAPIKey  string
	AemetBaseURL string

	MeteocatAPIKey  string
	MeteocatBaseURL string

	SchedulerEnabled bool
	SchedulerAtUTC   string
}

// Load reads configuration from the environment. A .env file is honored
// when present so local development does not need exported variables.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: skipping .env: %v", err)
		}
	}

	return Config{
		AppName:     getenv("APP_SERVICE", "meteo"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		LogLevel: getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "meteo"),
		DBUser:            getenv("DATABASE_USER", "meteo"),
		DBPassword:        getenv("DATABASE_PASSWORD", "meteo"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		AemetAPIKey:  strings.TrimSpace(getenv("AEMET_API_KEY", "")),
		AemetBaseURL: getenv("AEMET_BASE_URL", "https://opendata.aemet.es/opendata/api"),

		MeteocatAPIKey:  strings.TrimSpace(getenv("METEOCAT_API_KEY", "")),
		MeteocatBaseURL: getenv("METEOCAT_BASE_URL", "https://api.meteo.cat/xema/v1"),

		SchedulerEnabled: getenvBool("SCHEDULER_ENABLED", false),
		SchedulerAtUTC:   getenv("SCHEDULER_AT_UTC", "03:00"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// Module wires application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewIngestConfigHolder),
)
