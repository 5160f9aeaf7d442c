package config

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

type Catalog struct {
	// File is a JSON or YAML catalog; empty means the bundled one unless
	// the catalog lives in postgres.
	File     string
	Postgres bool
	Redis    *redis.Options
	CacheTTL time.Duration
}

func NewCatalog() (*Catalog, error) {
	c := &Catalog{}

	if file, ok := os.LookupEnv("CATALOG_FILE"); ok {
		c.File = file
	}

	source, ok := os.LookupEnv("CATALOG_SOURCE")
	switch {
	case !ok || source == "" || source == "file":
	case source == "postgres":
		c.Postgres = true
	default:
		return nil, fmt.Errorf("CATALOG_SOURCE must be file or postgres, got %q", source)
	}

	if url, ok := os.LookupEnv("REDIS_URL"); ok && url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("unable to parse REDIS_URL: %w", err)
		}
		c.Redis = opts
	}

	ttl, err := lookupDuration("CATALOG_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	c.CacheTTL = ttl

	return c, nil
}
