package simplemedia

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// Service defines the admin content operations of the library
type Service interface {
	// Entity operations
	Create(ctx context.Context, req CreateRequest) (*MutationResult, error)
	Update(ctx context.Context, req UpdateRequest) (*MutationResult, error)
	Delete(ctx context.Context, kind Kind, id uuid.UUID) (*DeleteResult, error)
	Get(ctx context.Context, kind Kind, id uuid.UUID) (Entity, error)
	List(ctx context.Context, req ListRequest) ([]Entity, error)
	Search(ctx context.Context, kind Kind, query string, limit int) ([]Entity, error)

	// Singleton operations. GetSingleton returns nil without error when the
	// entity has not been created yet.
	GetSingleton(ctx context.Context, kind Kind) (Entity, error)
	SaveSingleton(ctx context.Context, req SingletonRequest) (*MutationResult, error)

	// BuildURL derives a delivery URL for a stored media path
	BuildURL(storedPath string, opts transform.Options) string
}

// EventSink receives entity lifecycle notifications
type EventSink interface {
	// EntityCreated is fired when an entity is created
	EntityCreated(ctx context.Context, e Entity) error

	// EntityUpdated is fired when an entity is updated
	EntityUpdated(ctx context.Context, e Entity) error

	// EntityDeleted is fired when an entity is deleted
	EntityDeleted(ctx context.Context, kind Kind, id uuid.UUID) error
}
