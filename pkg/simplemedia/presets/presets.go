// Package presets builds ready-to-use media services for common setups.
package presets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/remote"
	memoryrepo "github.com/tendant/simple-media/pkg/simplemedia/repo/memory"
	fsstorage "github.com/tendant/simple-media/pkg/simplemedia/storage/fs"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// NewDevelopment creates a service configured for local development.
//
// Features:
//   - In-memory repository (instant startup, no setup required)
//   - Filesystem storage at ./dev-data/ served under /media
//   - Direct URLs unless a transformation endpoint is set
//
// Returns the service and a cleanup function that removes the storage directory.
//
// Example:
//
//	svc, cleanup, err := presets.NewDevelopment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(opts ...DevelopmentOption) (simplemedia.Service, func(), error) {
	cfg := &devConfig{
		storageDir: "./dev-data",
		urlPrefix:  "/media",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	fsBackend, err := fsstorage.New(fsstorage.Config{
		BaseDir:   cfg.storageDir,
		URLPrefix: cfg.urlPrefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filesystem storage: %w", err)
	}

	store := remote.New(fsBackend,
		remote.WithBackendName("fs"),
		remote.WithEngine(transform.NewEngine(cfg.mediaEndpoint)),
	)
	svc, err := simplemedia.New(
		simplemedia.WithRepository(memoryrepo.New()),
		simplemedia.WithMediaStore(store),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	cleanup := func() {
		os.RemoveAll(cfg.storageDir)
	}
	return svc, cleanup, nil
}

// NewTesting creates an isolated in-memory service for tests. Stored
// objects are addressed under https://media.test and the transformation
// endpoint is https://media.test/tr.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    svc := presets.NewTesting(t, presets.WithTestFixtures())
//	    // ...
//	}
func NewTesting(t *testing.T, opts ...TestingOption) simplemedia.Service {
	t.Helper()
	cfg := &testConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	store := remote.New(memorystorage.NewWithBaseURL(TestBaseURL),
		remote.WithBackendName("memory"),
		remote.WithEngine(transform.NewEngine(TestMediaEndpoint)),
	)
	svc, err := simplemedia.New(
		simplemedia.WithRepository(memoryrepo.New()),
		simplemedia.WithMediaStore(store),
	)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}

	if cfg.fixtures {
		if err := seed(context.Background(), svc); err != nil {
			t.Fatalf("failed to seed fixtures: %v", err)
		}
	}
	return svc
}

// Addresses used by NewTesting
const (
	TestBaseURL       = "https://media.test"
	TestMediaEndpoint = "https://media.test/tr"
)

// Fixtures seeded by WithTestFixtures
var fixtures = []struct {
	kind   simplemedia.Kind
	fields map[string]interface{}
}{
	{simplemedia.KindFounder, map[string]interface{}{
		"name": "Founder", "role": "Artistic Director", "status": "published",
	}},
	{simplemedia.KindHistory, map[string]interface{}{
		"title": "Our Story", "description": "Twenty years of music and dance.", "status": "published",
	}},
	{simplemedia.KindEvent, map[string]interface{}{
		"title": "Summer Festival", "description": "Open-air concerts.", "category": "festival", "status": "published",
	}},
	{simplemedia.KindProgram, map[string]interface{}{
		"title": "Piano for Beginners", "description": "Weekly lessons.", "category": "music", "level": "beginner", "status": "draft",
	}},
	{simplemedia.KindTeam, map[string]interface{}{
		"name": "Teacher", "role": "Piano Teacher", "department": "teaching", "status": "published",
	}},
}

func seed(ctx context.Context, svc simplemedia.Service) error {
	for _, f := range fixtures {
		raw, err := json.Marshal(f.fields)
		if err != nil {
			return err
		}
		if f.kind.IsSingleton() {
			_, err = svc.SaveSingleton(ctx, simplemedia.SingletonRequest{Kind: f.kind, Fields: raw, Actor: "fixtures"})
		} else {
			_, err = svc.Create(ctx, simplemedia.CreateRequest{Kind: f.kind, Fields: raw, Actor: "fixtures"})
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", f.kind, err)
		}
	}
	return nil
}

type devConfig struct {
	storageDir    string
	urlPrefix     string
	mediaEndpoint string
}

type testConfig struct {
	fixtures bool
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevStorage sets the development storage directory
func WithDevStorage(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.storageDir = dir
	}
}

// WithDevURLPrefix sets the URL prefix the storage directory is served under
func WithDevURLPrefix(prefix string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.urlPrefix = prefix
	}
}

// WithDevMediaEndpoint sets the transformation endpoint
func WithDevMediaEndpoint(endpoint string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.mediaEndpoint = endpoint
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestFixtures seeds one published entity of every kind, except the
// program, which is a draft
func WithTestFixtures() TestingOption {
	return func(cfg *testConfig) {
		cfg.fixtures = true
	}
}
