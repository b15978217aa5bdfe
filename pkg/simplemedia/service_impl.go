package simplemedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// service implements the Service interface
type service struct {
	repository Repository
	mediaStore MediaStore
	binder     *Binder
	eventSink  EventSink
	logger     *slog.Logger
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBinder sets the media binder for the service
func WithBinder(b *Binder) Option {
	return func(s *service) {
		s.binder = b
	}
}

// WithMediaStore creates a binder with default limits over store
func WithMediaStore(store MediaStore) Option {
	return func(s *service) {
		s.mediaStore = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp entities
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.binder == nil && s.mediaStore != nil {
		s.binder = NewBinder(s.mediaStore, WithBinderLogger(s.logger))
	}
	if s.binder == nil {
		return nil, fmt.Errorf("media store or binder is required")
	}

	return s, nil
}

// Entity operations

func (s *service) Create(ctx context.Context, req CreateRequest) (*MutationResult, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	if req.Kind.IsSingleton() {
		return nil, fmt.Errorf("create %s: %w", req.Kind, ErrSingletonKind)
	}
	return s.create(ctx, req.Kind, req.Fields, req.Uploads, req.Actor)
}

func (s *service) create(ctx context.Context, kind Kind, fields json.RawMessage, uploads Uploads, actor string) (*MutationResult, error) {
	e, err := NewEntity(kind)
	if err != nil {
		return nil, err
	}
	if err := overlayFields(e, fields); err != nil {
		return nil, err
	}
	e.Base().ID = uuid.New()

	if err := e.Validate(); err != nil {
		return nil, err
	}

	bound, err := s.binder.Bind(ctx, e, uploads, e.MediaCategory())
	if err != nil {
		return nil, err
	}
	bound.Apply(e)
	e.Normalize()

	now := s.now()
	m := e.Base()
	m.CreatedBy, m.UpdatedBy = actor, actor
	m.CreatedAt, m.UpdatedAt = now, now

	doc, err := EncodeDocument(e)
	if err == nil {
		err = s.repository.Create(ctx, doc)
	}
	if err != nil {
		s.binder.Discard(ctx, bound.Uploaded)
		return nil, &EntityError{Kind: kind, ID: m.ID, Op: "create", Err: err}
	}

	if err := s.eventSink.EntityCreated(ctx, e); err != nil {
		s.logger.Warn("Event sink failed", "event", "created", "kind", kind, "id", m.ID, "error", err)
	}
	s.logger.Info("Entity created", "kind", kind, "id", m.ID, "uploaded", len(bound.Uploaded))

	result := mutationResult(e, bound)
	result.Created = true
	return result, nil
}

func (s *service) Update(ctx context.Context, req UpdateRequest) (*MutationResult, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	e, err := s.Get(ctx, req.Kind, req.ID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, e, req.Fields, req.Uploads, req.Actor)
}

func (s *service) update(ctx context.Context, e Entity, fields json.RawMessage, uploads Uploads, actor string) (*MutationResult, error) {
	kind, m := e.Kind(), e.Base()
	if err := overlayFields(e, fields); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	bound, err := s.binder.Bind(ctx, e, uploads, e.MediaCategory())
	if err != nil {
		return nil, err
	}
	bound.Apply(e)
	e.Normalize()

	m.UpdatedBy = actor
	m.UpdatedAt = s.now()

	doc, err := EncodeDocument(e)
	if err == nil {
		err = s.repository.Update(ctx, doc)
	}
	if err != nil {
		s.binder.Discard(ctx, bound.Uploaded)
		return nil, &EntityError{Kind: kind, ID: m.ID, Op: "update", Err: err}
	}
	s.binder.Retire(ctx, bound)

	if err := s.eventSink.EntityUpdated(ctx, e); err != nil {
		s.logger.Warn("Event sink failed", "event", "updated", "kind", kind, "id", m.ID, "error", err)
	}
	s.logger.Info("Entity updated", "kind", kind, "id", m.ID, "uploaded", len(bound.Uploaded), "retired", len(bound.Retired))

	return mutationResult(e, bound), nil
}

func (s *service) Delete(ctx context.Context, kind Kind, id uuid.UUID) (*DeleteResult, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if kind.IsSingleton() {
		return nil, fmt.Errorf("delete %s: %w", kind, ErrSingletonKind)
	}
	e, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	cascade := s.binder.DeleteAll(ctx, e)

	if err := s.repository.Delete(ctx, kind, id); err != nil {
		return nil, &EntityError{Kind: kind, ID: id, Op: "delete", Err: err}
	}

	if err := s.eventSink.EntityDeleted(ctx, kind, id); err != nil {
		s.logger.Warn("Event sink failed", "event", "deleted", "kind", kind, "id", id, "error", err)
	}
	if cerr := cascade.Err(); cerr != nil {
		s.logger.Warn("Entity deleted with orphaned media", "kind", kind, "id", id, "error", cerr)
	} else {
		s.logger.Info("Entity deleted", "kind", kind, "id", id, "media_deleted", len(cascade.Deleted))
	}

	return &DeleteResult{
		Kind:        kind,
		ID:          id,
		Cascade:     cascade,
		Diagnostics: cascade.Diagnostics(),
	}, nil
}

func (s *service) Get(ctx context.Context, kind Kind, id uuid.UUID) (Entity, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	doc, err := s.repository.Get(ctx, kind, id)
	if err != nil {
		return nil, &EntityError{Kind: kind, ID: id, Op: "get", Err: err}
	}
	return DecodeDocument(doc)
}

func (s *service) List(ctx context.Context, req ListRequest) ([]Entity, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	docs, err := s.repository.List(ctx, ListFilter{
		Kind:   req.Kind,
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", req.Kind, err)
	}
	return decodeAll(docs)
}

func (s *service) Search(ctx context.Context, kind Kind, query string, limit int) ([]Entity, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	docs, err := s.repository.Search(ctx, kind, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	return decodeAll(docs)
}

// Singleton operations

func (s *service) GetSingleton(ctx context.Context, kind Kind) (Entity, error) {
	if !kind.IsSingleton() {
		return nil, fmt.Errorf("%w: %q", ErrNotSingletonKind, kind)
	}
	doc, err := s.repository.GetSingleton(ctx, kind)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return DecodeDocument(doc)
}

func (s *service) SaveSingleton(ctx context.Context, req SingletonRequest) (*MutationResult, error) {
	existing, err := s.GetSingleton(ctx, req.Kind)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.create(ctx, req.Kind, req.Fields, req.Uploads, req.Actor)
	}
	return s.update(ctx, existing, req.Fields, req.Uploads, req.Actor)
}

func (s *service) BuildURL(storedPath string, opts transform.Options) string {
	return s.binder.Store().BuildURL(storedPath, opts)
}

// overlayFields decodes the JSON field patch into e. Identity, audit fields
// and media slots are owned by the service and survive the patch; status may
// be changed.
func overlayFields(e Entity, fields json.RawMessage) error {
	if len(fields) == 0 {
		return nil
	}
	meta := *e.Base()
	slots := make(SlotValues)
	for name, v := range e.Slots() {
		slots[name] = v.clone()
	}

	if err := json.Unmarshal(fields, e); err != nil {
		verr := &ValidationError{Kind: e.Kind()}
		verr.Add("fields", "malformed JSON: %v", err)
		return verr
	}
	var patch struct {
		Status *Status `json:"status"`
	}
	_ = json.Unmarshal(fields, &patch)

	*e.Base() = meta
	if patch.Status != nil {
		e.Base().Status = *patch.Status
	}
	for name, v := range slots {
		e.SetSlot(name, v)
	}
	return nil
}

func mutationResult(e Entity, bound *BindResult) *MutationResult {
	return &MutationResult{
		Entity:           e,
		Diagnostics:      bound.Diagnostics(),
		UploadErrors:     bound.UploadErrors,
		RetirementErrors: bound.RetirementErrors,
	}
}

func decodeAll(docs []*Document) ([]Entity, error) {
	out := make([]Entity, 0, len(docs))
	for _, doc := range docs {
		e, err := DecodeDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
