package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser       string
	DBPassword   string
	DBHost       string
	DBName       string
	QueryTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	TeamsWebhookURL  string
	ReminderInterval time.Duration
	ReminderWindow   time.Duration
	NotifyWorkers    int
	NotifyQueue      int

	LogLevel    string
	LogFile     string
	CORSOrigins []string
	Location    *time.Location
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads configuration from the process environment, loading .env first when present.
func LoadEnv() Env {
	_ = godotenv.Load()

	env := Env{
		AppAddr:          getEnv("APP_ADDR", ":8080"),
		GinMode:          getEnv("GIN_MODE", ""),
		DBUser:           getEnv("DB_USER", "root"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBHost:           getEnv("DB_HOST", "127.0.0.1:3306"),
		DBName:           getEnv("DB_NAME", "shuttle_bus"),
		QueryTimeout:     getDurationEnv("DB_QUERY_TIMEOUT", 5*time.Second),
		JWTSecret:        getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTTTL:           getDurationEnv("JWT_TTL", 24*time.Hour),
		AdminName:        getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:       getEnv("ADMIN_EMAIL", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		TeamsWebhookURL:  getEnv("TEAMS_WEBHOOK_URL", ""),
		ReminderInterval: getDurationEnv("REMINDER_INTERVAL", 60*time.Second),
		ReminderWindow:   getDurationEnv("REMINDER_WINDOW", 2*time.Hour),
		NotifyWorkers:    getIntEnv("NOTIFY_WORKERS", 4),
		NotifyQueue:      getIntEnv("NOTIFY_QUEUE", 256),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		CORSOrigins:      defaultCORSOrigins,
		Location:         time.Local,
	}

	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins := []string{}
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			env.CORSOrigins = origins
		}
	}

	if name := getEnv("TZ_NAME", "Asia/Tokyo"); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			env.Location = loc
		}
	}

	return env
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := getEnv(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
