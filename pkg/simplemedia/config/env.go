package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//
//	PORT, ENVIRONMENT
//	JWT_SECRET - HS256 secret for admin tokens
//
// Database:
//
//	DATABASE_URL - "memory" (default), "postgres://..." / "postgresql://...",
//	               or "mongodb://..." / "mongodb+srv://..."
//	DB_SCHEMA - Postgres search_path
//	MONGO_DATABASE - MongoDB database name (default: simple_media)
//
// Storage:
//
//	STORAGE_URL - one of
//	              "memory://"
//	              "file:///path/to/data"
//	              "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//	STORAGE_PUBLIC_URL - base URL objects are served from
//	OBJECT_KEY_PREFIX - prepended to every object key
//
// Media:
//
//	MEDIA_URL_ENDPOINT - transformation endpoint; unset serves direct URLs
//	UPLOAD_TIMEOUT - per-call store timeout, e.g. "60s"
//	MAX_CONCURRENT_UPLOADS, MAX_FILES_PER_REQUEST, MAX_UPLOAD_SIZE_MB
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}
		if v, ok := lookupEnv(prefix, "JWT_SECRET"); ok {
			c.JWTSecret = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}
		return applyMediaEnv(prefix, c)
	}
}

// applyDatabaseEnv applies database configuration from environment
func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "DB_SCHEMA"); ok {
		c.DBSchema = v
	}
	if v, ok := lookupEnv(prefix, "MONGO_DATABASE"); ok && v != "" {
		c.MongoDatabase = v
	}

	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")
	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	switch {
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
	case strings.HasPrefix(dbURL, "mongodb://"), strings.HasPrefix(dbURL, "mongodb+srv://"):
		c.DatabaseType = "mongo"
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgresql://...' or 'mongodb://...')", dbURL)
	}
	c.DatabaseURL = dbURL
	return nil
}

// applyStorageEnv applies storage configuration from environment
func applyStorageEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "OBJECT_KEY_PREFIX"); ok {
		c.KeyPrefix = v
	}
	publicURL, _ := lookupEnv(prefix, "STORAGE_PUBLIC_URL")

	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")
	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.Storage = StorageBackendConfig{
			Name:   "memory",
			Type:   "memory",
			Config: map[string]interface{}{},
		}
		setIfNotEmpty(c.Storage.Config, "public_url", publicURL)
		return nil
	}

	u, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.Storage = StorageBackendConfig{
			Name:   "fs",
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": path},
		}
		setIfNotEmpty(c.Storage.Config, "url_prefix", publicURL)

	case "s3":
		if u.Host == "" {
			return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		q := u.Query()
		backend := StorageBackendConfig{
			Name: "s3",
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": u.Host,
				"region": "us-east-1",
			},
		}
		if region, ok := os.LookupEnv("AWS_REGION"); ok && region != "" {
			backend.Config["region"] = region
		}
		setIfNotEmpty(backend.Config, "region", q.Get("region"))
		setIfNotEmpty(backend.Config, "endpoint", q.Get("endpoint"))
		setIfNotEmpty(backend.Config, "use_path_style", q.Get("path_style"))
		setIfNotEmpty(backend.Config, "create_bucket_if_not_exist", q.Get("create_bucket"))
		if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
			backend.Config["access_key_id"] = accessKey
		}
		if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
			backend.Config["secret_access_key"] = secretKey
		}
		setIfNotEmpty(backend.Config, "public_url", publicURL)
		c.Storage = backend

	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
	}
	return nil
}

// applyMediaEnv applies transformation endpoint and upload limits
func applyMediaEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "MEDIA_URL_ENDPOINT"); ok {
		c.MediaURLEndpoint = v
	}

	if raw, ok := lookupEnv(prefix, "UPLOAD_TIMEOUT"); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %sUPLOAD_TIMEOUT: %w", prefix, err)
		}
		c.UploadTimeout = d
	}

	if n, ok, err := parseIntEnv(prefix, "MAX_CONCURRENT_UPLOADS"); err != nil {
		return err
	} else if ok {
		c.MaxConcurrentUploads = n
	}
	if n, ok, err := parseIntEnv(prefix, "MAX_FILES_PER_REQUEST"); err != nil {
		return err
	} else if ok {
		c.MaxFilesPerRequest = n
	}
	if n, ok, err := parseIntEnv(prefix, "MAX_UPLOAD_SIZE_MB"); err != nil {
		return err
	} else if ok {
		c.MaxFileSize = int64(n) << 20
	}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseIntEnv(prefix, key string) (int, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}

func setIfNotEmpty(config map[string]interface{}, key, value string) {
	if value != "" {
		config[key] = value
	}
}
