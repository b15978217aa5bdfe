package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case "memory":
		case "postgres", "mongo":
			if url == "" {
				return fmt.Errorf("database URL is required for %s", dbType)
			}
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'mongo', got: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithMongoDatabase sets the MongoDB database name
func WithMongoDatabase(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("mongo database name cannot be empty")
		}
		c.MongoDatabase = name
		return nil
	}
}

// WithMemoryStorage keeps media in memory (for testing)
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageBackendConfig{Name: "memory", Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
}

// WithFilesystemStorage stores media under baseDir, served from urlPrefix
func WithFilesystemStorage(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageBackendConfig{
			Name:   "fs",
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": baseDir},
		}
		setIfNotEmpty(c.Storage.Config, "url_prefix", urlPrefix)
		return nil
	}
}

// WithS3Storage stores media in an S3 bucket
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.Storage = StorageBackendConfig{
			Name: "s3",
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Credentials sets AWS credentials for S3 storage
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 credentials require S3 storage, got %q", c.Storage.Type)
		}
		c.Storage.Config["access_key_id"] = accessKeyID
		c.Storage.Config["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint sets a custom S3 endpoint (for MinIO, LocalStack, etc.)
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires S3 storage, got %q", c.Storage.Type)
		}
		c.Storage.Config["endpoint"] = endpoint
		c.Storage.Config["use_path_style"] = usePathStyle
		return nil
	}
}

// WithStoragePublicURL sets the base URL objects are served from
func WithStoragePublicURL(publicURL string) Option {
	return func(c *ServerConfig) error {
		key := "public_url"
		if c.Storage.Type == "fs" {
			key = "url_prefix"
		}
		c.Storage.Config[key] = publicURL
		return nil
	}
}

// WithObjectKeyPrefix prepends prefix to every object key
func WithObjectKeyPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		c.KeyPrefix = prefix
		return nil
	}
}

// WithMediaEndpoint sets the media transformation endpoint
func WithMediaEndpoint(endpoint string) Option {
	return func(c *ServerConfig) error {
		c.MediaURLEndpoint = endpoint
		return nil
	}
}

// WithUploadLimits sets store timeout and upload caps. Zero values keep the current setting.
func WithUploadLimits(timeout time.Duration, maxConcurrent, maxFiles int, maxFileSize int64) Option {
	return func(c *ServerConfig) error {
		if timeout < 0 || maxConcurrent < 0 || maxFiles < 0 || maxFileSize < 0 {
			return fmt.Errorf("upload limits cannot be negative")
		}
		if timeout > 0 {
			c.UploadTimeout = timeout
		}
		if maxConcurrent > 0 {
			c.MaxConcurrentUploads = maxConcurrent
		}
		if maxFiles > 0 {
			c.MaxFilesPerRequest = maxFiles
		}
		if maxFileSize > 0 {
			c.MaxFileSize = maxFileSize
		}
		return nil
	}
}

// WithJWTSecret protects the admin API with HS256 tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}
