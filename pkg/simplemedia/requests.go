package simplemedia

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Request/Response DTOs

// CreateRequest contains parameters for creating an entity. Fields is the
// JSON encoding of the entity's scalar fields; media slots in it are ignored.
type CreateRequest struct {
	Kind    Kind
	Fields  json.RawMessage
	Uploads Uploads
	Actor   string
}

// UpdateRequest contains parameters for updating an entity. Fields is a JSON
// patch: only the fields present are changed.
type UpdateRequest struct {
	Kind    Kind
	ID      uuid.UUID
	Fields  json.RawMessage
	Uploads Uploads
	Actor   string
}

// SingletonRequest saves the only entity of a singleton kind, creating it on
// first use.
type SingletonRequest struct {
	Kind    Kind
	Fields  json.RawMessage
	Uploads Uploads
	Actor   string
}

// ListRequest contains parameters for listing entities of one kind
type ListRequest struct {
	Kind   Kind
	Status *Status
	Limit  int
	Offset int
}

// MutationResult is returned by successful create and update calls. Upload
// and retirement failures do not fail the call; they are reported here.
type MutationResult struct {
	Entity           Entity
	Created          bool
	Diagnostics      []string
	UploadErrors     []*UploadError
	RetirementErrors []*RetirementError
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Kind        Kind
	ID          uuid.UUID
	Cascade     *CascadeResult
	Diagnostics []string
}
