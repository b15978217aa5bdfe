package memory

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the simplemedia.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

// New creates a new in-memory storage backend. Objects have no public URL.
func New() *Backend {
	return &Backend{objects: make(map[string]object)}
}

// NewWithBaseURL creates an in-memory backend whose objects are addressed
// under baseURL.
func NewWithBaseURL(baseURL string) *Backend {
	b := New()
	b.baseURL = strings.TrimSuffix(baseURL, "/")
	return b
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplemedia.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, simplemedia.ErrObjectNotFound
	}
	return obj.meta(objectKey), nil
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplemedia.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mimeType := params.MimeType
	// Set default MIME type if not set
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Delete deletes content. Absent keys are ignored.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	return nil
}

// List returns the objects under prefix sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]simplemedia.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []simplemedia.ObjectMeta
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, *obj.meta(key))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PublicURL returns baseURL/objectKey, or "" when no base URL is set
func (b *Backend) PublicURL(objectKey string) string {
	if b.baseURL == "" {
		return ""
	}
	return b.baseURL + "/" + objectKey
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Has reports whether objectKey is stored
func (b *Backend) Has(objectKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[objectKey]
	return ok
}

func (o object) meta(key string) *simplemedia.ObjectMeta {
	return &simplemedia.ObjectMeta{
		Key:         key,
		Size:        int64(len(o.data)),
		ContentType: o.mimeType,
		UpdatedAt:   o.updatedAt,
	}
}
