package simplemedia

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrNotFound indicates an entity identifier does not resolve
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidKind indicates an unknown entity kind
	ErrInvalidKind = errors.New("invalid entity kind")

	// ErrSingletonKind indicates an id-based operation on a singleton kind
	ErrSingletonKind = errors.New("operation not supported for singleton kind")

	// ErrNotSingletonKind indicates a singleton operation on a multi-instance kind
	ErrNotSingletonKind = errors.New("kind is not a singleton")

	// ErrAlreadyExists indicates a second document for a singleton kind
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrUploadFailed indicates the remote store rejected an upload
	ErrUploadFailed = errors.New("upload failed")

	// ErrEmptyPayload indicates a payload without bytes
	ErrEmptyPayload = errors.New("empty payload")

	// ErrObjectNotFound indicates a blob store key does not exist
	ErrObjectNotFound = errors.New("object not found")
)

// FieldError is a single field-scoped validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports entity fields that failed validation. The entity is
// not persisted when it is returned.
type ValidationError struct {
	Kind   Kind
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

// Add appends a field error.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns e when it holds at least one field error, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// EntityError represents an error related to an entity operation
type EntityError struct {
	Kind Kind
	ID   uuid.UUID
	Op   string
	Err  error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation %s failed for %s: %v", e.Kind, e.Op, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// StoreError represents a failure of the remote media store
type StoreError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// BindError is a caller error in a bind request. Nothing is uploaded when it
// is returned.
type BindError struct {
	Slot   string
	Reason string
}

func (e *BindError) Error() string {
	if e.Slot == "" {
		return "bind rejected: " + e.Reason
	}
	return fmt.Sprintf("bind rejected for slot %s: %s", e.Slot, e.Reason)
}

// UploadError is a failed upload for one payload of one slot. The slot keeps
// its previous value.
type UploadError struct {
	Slot     string
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q to slot %s failed: %v", e.FileName, e.Slot, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RetirementError reports a superseded reference whose remote object could not
// be deleted. The entity stays consistent; the object is orphaned.
type RetirementError struct {
	Slot      string
	Reference MediaReference
	Err       error
}

func (e *RetirementError) Error() string {
	return fmt.Sprintf("retire %s from slot %s failed: %v", e.Reference.ReferenceID, e.Slot, e.Err)
}

func (e *RetirementError) Unwrap() error {
	return e.Err
}

// CascadeDeletionError aggregates the reference deletions that failed while
// removing an entity. The entity document is removed regardless.
type CascadeDeletionError struct {
	Kind     Kind
	ID       uuid.UUID
	Failures []*RetirementError
}

func (e *CascadeDeletionError) Error() string {
	return fmt.Sprintf("%d of the media references of %s %s could not be deleted", len(e.Failures), e.Kind, e.ID)
}

func (e *CascadeDeletionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
