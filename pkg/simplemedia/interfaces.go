package simplemedia

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// MediaStore is the remote media store adapter consumed by the binder.
type MediaStore interface {
	// Upload stores the payload under folder and returns a complete reference,
	// or an error and no reference.
	Upload(ctx context.Context, r io.Reader, name, folder string) (*MediaReference, error)

	// Delete removes the object behind referenceID. Deleting an absent
	// reference is not an error.
	Delete(ctx context.Context, referenceID string) error

	// BuildURL derives a transformed URL for storedPath.
	BuildURL(storedPath string, opts transform.Options) string
}

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// UploadWithParams stores the reader under params.ObjectKey
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Delete deletes content. Deleting an absent key is not an error.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// List returns metadata for every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)

	// PublicURL returns the direct URL of an object, or "" when the backend
	// has no public address
	PublicURL(objectKey string) string
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Repository defines typed document persistence for entity kinds
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, kind Kind, id uuid.UUID) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*Document, error)

	// Search runs a text query over title, summary and keywords.
	Search(ctx context.Context, kind Kind, query string, limit int) ([]*Document, error)

	// GetSingleton returns the only document of kind, or ErrNotFound.
	GetSingleton(ctx context.Context, kind Kind) (*Document, error)
}

// Document is the stored envelope of an entity. Title, Summary and Keywords
// are copied out of the entity so backends can index them.
type Document struct {
	ID        uuid.UUID
	Kind      Kind
	Status    Status
	Title     string
	Summary   string
	Keywords  []string
	Body      []byte // JSON-encoded entity
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter selects documents of one kind.
type ListFilter struct {
	Kind   Kind
	Status *Status
	Limit  int
	Offset int
}
