// Package remote adapts a blob store into the media store used by the binder:
// it places uploads under folder-aware object keys, detects their content type
// and returns complete media references.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/objectkey"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// DefaultTimeout bounds a single upload or delete call.
const DefaultTimeout = 60 * time.Second

// sniffLen is how many leading bytes are inspected for content detection.
const sniffLen = 3072

// Store implements simplemedia.MediaStore over a BlobStore.
type Store struct {
	blob    simplemedia.BlobStore
	backend string
	keys    objectkey.Generator
	engine  *transform.Engine
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBackendName labels errors and logs with the backend name.
func WithBackendName(name string) Option {
	return func(s *Store) { s.backend = name }
}

// WithKeyGenerator overrides the default folder-aware key generator.
func WithKeyGenerator(g objectkey.Generator) Option {
	return func(s *Store) {
		if g != nil {
			s.keys = g
		}
	}
}

// WithEngine sets the transformation engine used for thumbnails and URLs.
func WithEngine(e *transform.Engine) Option {
	return func(s *Store) { s.engine = e }
}

// WithTimeout sets the per-call timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store over blob.
func New(blob simplemedia.BlobStore, opts ...Option) *Store {
	s := &Store{
		blob:    blob,
		backend: "default",
		keys:    objectkey.NewRecommendedGenerator(),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores r under folder and returns the new reference.
func (s *Store) Upload(ctx context.Context, r io.Reader, name, folder string) (*simplemedia.MediaReference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &simplemedia.StoreError{Backend: s.backend, Op: "upload", Err: fmt.Errorf("read payload: %w", err)}
	}
	if n == 0 {
		return nil, &simplemedia.StoreError{Backend: s.backend, Op: "upload", Err: simplemedia.ErrEmptyPayload}
	}
	header = header[:n]
	mimeType := mimetype.Detect(header).String()

	key := s.keys.GenerateKey(folder, uuid.New(), name)
	body := io.MultiReader(bytes.NewReader(header), r)
	if err := s.blob.UploadWithParams(ctx, body, simplemedia.UploadParams{ObjectKey: key, MimeType: mimeType}); err != nil {
		return nil, &simplemedia.StoreError{
			Backend: s.backend,
			Key:     key,
			Op:      "upload",
			Err:     errors.Join(simplemedia.ErrUploadFailed, err),
		}
	}

	ref := s.reference(key, name)
	s.logger.Debug("Media uploaded", "backend", s.backend, "key", key, "mime_type", mimeType)
	return ref, nil
}

func (s *Store) reference(key, name string) *simplemedia.MediaReference {
	storedPath := "/" + key
	ref := &simplemedia.MediaReference{
		ReferenceID: key,
		StoredPath:  storedPath,
		URL:         s.blob.PublicURL(key),
		DisplayName: name,
	}
	if ref.URL == "" && s.engine.Enabled() {
		ref.URL = s.engine.BaseURL(storedPath)
	}
	if s.engine.Enabled() && !transform.IsVideo(storedPath) {
		ref.ThumbnailURL = s.engine.URL(storedPath, transform.VariantThumbnail)
	}
	return ref
}

// Delete removes the object behind referenceID. Absent objects are not an error.
func (s *Store) Delete(ctx context.Context, referenceID string) error {
	if referenceID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.blob.Delete(ctx, referenceID); err != nil {
		if errors.Is(err, simplemedia.ErrObjectNotFound) {
			return nil
		}
		return &simplemedia.StoreError{Backend: s.backend, Key: referenceID, Op: "delete", Err: err}
	}
	s.logger.Debug("Media deleted", "backend", s.backend, "key", referenceID)
	return nil
}

// BuildURL derives a transformed URL when an endpoint is configured and falls
// back to the direct object URL otherwise.
func (s *Store) BuildURL(storedPath string, opts transform.Options) string {
	if storedPath == "" {
		return ""
	}
	if s.engine.Enabled() {
		return s.engine.BuildURL(storedPath, opts)
	}
	return s.blob.PublicURL(strings.TrimPrefix(storedPath, "/"))
}

// Blob returns the underlying blob store.
func (s *Store) Blob() simplemedia.BlobStore {
	return s.blob
}
