package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok {
		return ":8080"
	}
	return port
}

// MigrateOnStart reports whether the server applies catalog migrations
// before serving.
func MigrateOnStart() bool {
	v, ok := os.LookupEnv("MIGRATE_ON_START")
	return ok && v != "0"
}

func lookupDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration or a number of seconds: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}

// CorsOrigins lists the origins allowed by CORS_ORIGINS (comma separated).
// None means any origin.
func CorsOrigins() []string {
	v, ok := os.LookupEnv("CORS_ORIGINS")
	if !ok {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
