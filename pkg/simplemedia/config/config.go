package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
	"github.com/tendant/simple-media/pkg/simplemedia/remote"
	"github.com/tendant/simple-media/pkg/simplemedia/repo/memory"
	repomongo "github.com/tendant/simple-media/pkg/simplemedia/repo/mongo"
	repopg "github.com/tendant/simple-media/pkg/simplemedia/repo/postgres"
	fsstorage "github.com/tendant/simple-media/pkg/simplemedia/storage/fs"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
	s3storage "github.com/tendant/simple-media/pkg/simplemedia/storage/s3"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
	"github.com/tendant/simple-media/pkg/simplemedia/upload"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		DatabaseType:  "memory",
		MongoDatabase: "simple_media",
		Storage: StorageBackendConfig{
			Name:   "memory",
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		UploadTimeout:        remote.DefaultTimeout,
		MaxConcurrentUploads: simplemedia.DefaultMaxConcurrentUploads,
		MaxFilesPerRequest:   upload.DefaultMaxFiles,
		MaxFileSize:          upload.DefaultMaxFileSize,
	}
}

// ServerConfig represents configuration for the media service and its HTTP server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL   string
	DatabaseType  string // "memory", "postgres", "mongo"
	DBSchema      string // Postgres schema to use; empty keeps the server default
	MongoDatabase string

	// Storage configuration
	Storage   StorageBackendConfig
	KeyPrefix string // prepended to every object key

	// MediaURLEndpoint is the transformation endpoint; empty serves direct URLs
	MediaURLEndpoint string

	// Upload limits
	UploadTimeout        time.Duration
	MaxConcurrentUploads int
	MaxFilesPerRequest   int
	MaxFileSize          int64

	// JWTSecret signs admin tokens; empty leaves the admin API unprotected
	JWTSecret string
}

// StorageBackendConfig represents configuration for the blob store
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "mongo":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'mongo'")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if getString(c.Storage.Config, "base_dir", "") == "" {
			return errors.New("filesystem storage requires base_dir")
		}
	case "s3":
		if getString(c.Storage.Config, "bucket", "") == "" {
			return errors.New("s3 storage requires bucket")
		}
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}

	if c.UploadTimeout <= 0 {
		return errors.New("upload_timeout must be positive")
	}
	if c.MaxConcurrentUploads <= 0 {
		return errors.New("max_concurrent_uploads must be positive")
	}
	if c.MaxFilesPerRequest <= 0 {
		return errors.New("max_files_per_request must be positive")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("max_file_size must be positive")
	}

	return nil
}

// Components holds everything BuildComponents wires together.
type Components struct {
	Service    simplemedia.Service
	Repository simplemedia.Repository
	Blob       simplemedia.BlobStore
	Store      *remote.Store
	Parser     *upload.Parser
	TokenAuth  *jwtauth.JWTAuth

	closers []func()
}

// Close releases database connections.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simplemedia.Service, error) {
	comps, err := c.BuildComponents(ctx, slog.Default())
	if err != nil {
		return nil, err
	}
	return comps.Service, nil
}

// BuildComponents wires repository, blob store, remote store, binder and service.
func (c *ServerConfig) BuildComponents(ctx context.Context, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	comps := &Components{}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	comps.Repository = repo
	if closeRepo != nil {
		comps.closers = append(comps.closers, closeRepo)
	}

	blob, err := c.buildStorageBackend(ctx)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Name, err)
	}
	comps.Blob = blob

	keys := objectkey.NewFolderGenerator()
	keys.Prefix = c.KeyPrefix
	comps.Store = remote.New(blob,
		remote.WithBackendName(c.Storage.Name),
		remote.WithKeyGenerator(keys),
		remote.WithEngine(transform.NewEngine(c.MediaURLEndpoint)),
		remote.WithTimeout(c.UploadTimeout),
		remote.WithLogger(logger),
	)

	binder := simplemedia.NewBinder(comps.Store,
		simplemedia.WithBinderLogger(logger),
		simplemedia.WithMaxConcurrentUploads(c.MaxConcurrentUploads),
		simplemedia.WithMaxFilesPerRequest(c.MaxFilesPerRequest),
	)

	svc, err := simplemedia.New(
		simplemedia.WithRepository(repo),
		simplemedia.WithBinder(binder),
		simplemedia.WithLogger(logger),
	)
	if err != nil {
		comps.Close()
		return nil, err
	}
	comps.Service = svc

	comps.Parser = upload.NewParser(
		upload.WithMaxFiles(c.MaxFilesPerRequest),
		upload.WithMaxFileSize(c.MaxFileSize),
	)
	if c.JWTSecret != "" {
		comps.TokenAuth = jwtauth.New("HS256", []byte(c.JWTSecret), nil)
	}

	return comps, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (simplemedia.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil, nil

	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		if schema := c.DBSchema; schema != "" {
			cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
				_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
				return err
			}
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		repo := repopg.NewWithPool(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		closeClient := func() { _ = client.Disconnect(context.Background()) }
		repo := repomongo.NewWithDatabase(client.Database(c.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeClient()
			return nil, nil, err
		}
		return repo, closeClient, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(ctx context.Context) (simplemedia.BlobStore, error) {
	config := c.Storage
	switch config.Type {
	case "memory":
		return memorystorage.NewWithBaseURL(getString(config.Config, "public_url", "")), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/media"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PublicBaseURL:          getString(config.Config, "public_url", ""),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}
