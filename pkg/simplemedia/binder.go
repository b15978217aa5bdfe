package simplemedia

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Binder limits
const (
	DefaultMaxConcurrentUploads = 10
	DefaultMaxFilesPerRequest   = 10
)

// Binder reconciles incoming uploads against an entity's current media
// references. Replaced single-slot references are retired only after their
// successor has been uploaded and stored; list slots are append-only.
type Binder struct {
	store         MediaStore
	logger        *slog.Logger
	maxConcurrent int
	maxFiles      int
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithBinderLogger sets the logger used for retirement diagnostics.
func WithBinderLogger(l *slog.Logger) BinderOption {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxConcurrentUploads caps in-flight store calls per Bind or DeleteAll.
func WithMaxConcurrentUploads(n int) BinderOption {
	return func(b *Binder) {
		if n > 0 {
			b.maxConcurrent = n
		}
	}
}

// WithMaxFilesPerRequest caps the number of payloads accepted by one Bind.
func WithMaxFilesPerRequest(n int) BinderOption {
	return func(b *Binder) {
		if n > 0 {
			b.maxFiles = n
		}
	}
}

// NewBinder creates a binder over store.
func NewBinder(store MediaStore, opts ...BinderOption) *Binder {
	b := &Binder{
		store:         store,
		logger:        slog.Default(),
		maxConcurrent: DefaultMaxConcurrentUploads,
		maxFiles:      DefaultMaxFilesPerRequest,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the media store the binder writes to.
func (b *Binder) Store() MediaStore {
	return b.store
}

// BindResult is the outcome of a Bind call.
type BindResult struct {
	// Slots is the full updated slot map to merge into the entity.
	Slots SlotValues
	// Changed lists the slots whose value differs from the entity's.
	Changed []string
	// Uploaded holds every reference created by this call.
	Uploaded []MediaReference
	// Retired holds superseded references whose objects were deleted by Retire.
	Retired []MediaReference

	UploadErrors     []*UploadError
	RetirementErrors []*RetirementError

	pending []retirement
}

// Apply merges the changed slots into e.
func (r *BindResult) Apply(e Entity) {
	for _, name := range r.Changed {
		e.SetSlot(name, r.Slots[name])
	}
}

// Diagnostics renders partial failures as admin-facing messages.
func (r *BindResult) Diagnostics() []string {
	var out []string
	for _, e := range r.UploadErrors {
		out = append(out, fmt.Sprintf("%s was not updated: %q could not be uploaded", e.Slot, e.FileName))
	}
	for _, e := range r.RetirementErrors {
		out = append(out, fmt.Sprintf("%s updated, but the previous %s could not be removed from storage", e.Slot, e.Slot))
	}
	return out
}

type uploadJob struct {
	slot    SlotSpec
	folder  string
	payload Payload
	ref     *MediaReference
	err     error
}

type retirement struct {
	slot string
	ref  MediaReference
}

// Bind uploads the payloads in uploads into the slots of current and returns
// the updated slot map. current is not modified; call Apply on the result.
//
// Caller errors (unknown slot, several payloads for a single slot, too many
// files) are returned as *BindError before anything is uploaded. A failed
// upload is reported per payload and leaves its slot's previous value in
// place; other payloads uploaded for that slot are deleted again.
//
// Superseded single-slot references are not deleted here. Pass the result to
// Retire after the document write succeeds, or Discard its Uploaded
// references when the write fails.
func (b *Binder) Bind(ctx context.Context, current Entity, uploads Uploads, category string) (*BindResult, error) {
	kind := current.Kind()
	if err := b.checkRequest(kind, uploads); err != nil {
		return nil, err
	}

	slots := current.Slots()
	result := &BindResult{Slots: make(SlotValues, len(slots))}
	for name, v := range slots {
		result.Slots[name] = v
	}

	var jobs []*uploadJob
	for _, spec := range SlotsFor(kind) {
		for _, p := range uploads[spec.Name] {
			jobs = append(jobs, &uploadJob{slot: spec, folder: spec.Folder(category), payload: p})
		}
	}
	if len(jobs) == 0 {
		return result, nil
	}

	b.runUploads(ctx, jobs)

	var abandoned []retirement
	for _, spec := range SlotsFor(kind) {
		var ok []MediaReference
		failed := false
		for _, job := range jobs {
			if job.slot.Name != spec.Name {
				continue
			}
			if job.err != nil {
				failed = true
				result.UploadErrors = append(result.UploadErrors, &UploadError{Slot: spec.Name, FileName: job.payload.FileName, Err: job.err})
				b.logger.Warn("Media upload failed", "kind", kind, "slot", spec.Name, "file", job.payload.FileName, "error", job.err)
				continue
			}
			ok = append(ok, *job.ref)
		}
		if failed {
			// The slot keeps its previous value; siblings that did upload are dropped.
			for _, ref := range ok {
				abandoned = append(abandoned, retirement{slot: spec.Name, ref: ref})
			}
			continue
		}
		if len(ok) == 0 {
			continue
		}
		result.Uploaded = append(result.Uploaded, ok...)
		result.Changed = append(result.Changed, spec.Name)

		prev := slots[spec.Name]
		switch spec.Kind {
		case SlotSingle:
			next := ok[0]
			result.Slots[spec.Name] = SlotValue{Single: &next}
			if prev.Single != nil && prev.Single.ReferenceID != next.ReferenceID {
				result.pending = append(result.pending, retirement{slot: spec.Name, ref: *prev.Single})
			}
		case SlotList:
			list := make([]MediaReference, 0, len(prev.List)+len(ok))
			list = append(list, prev.List...)
			list = append(list, ok...)
			result.Slots[spec.Name] = SlotValue{List: list}
		}
	}

	if len(abandoned) > 0 {
		for _, f := range b.deleteRefs(context.WithoutCancel(ctx), abandoned) {
			b.logger.Warn("Uploaded media could not be discarded", "kind", kind, "slot", f.Slot, "reference", f.Reference.ReferenceID, "error", f.Err)
		}
	}

	return result, nil
}

// Retire deletes the references superseded by r. Call it once the document
// holding r's slots has been written; until then the previous references are
// still the ones stored. Failures are recorded in r.RetirementErrors and
// logged. Deletions are not cancelled with ctx.
func (b *Binder) Retire(ctx context.Context, r *BindResult) {
	if r == nil || len(r.pending) == 0 {
		return
	}
	pending := r.pending
	r.pending = nil

	failures := b.deleteRefs(context.WithoutCancel(ctx), pending)
	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Reference.ReferenceID] = true
		b.logger.Warn("Previous media could not be retired", "slot", f.Slot, "reference", f.Reference.ReferenceID, "error", f.Err)
	}
	for _, p := range pending {
		if !failed[p.ref.ReferenceID] {
			r.Retired = append(r.Retired, p.ref)
		}
	}
	r.RetirementErrors = append(r.RetirementErrors, failures...)
}

// Superseded returns the references Retire would delete.
func (r *BindResult) Superseded() []MediaReference {
	out := make([]MediaReference, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p.ref)
	}
	return out
}

func (b *Binder) checkRequest(kind Kind, uploads Uploads) error {
	if n := uploads.Count(); n > b.maxFiles {
		return &BindError{Reason: fmt.Sprintf("%d files exceed the limit of %d per request", n, b.maxFiles)}
	}
	for name, payloads := range uploads {
		if len(payloads) == 0 {
			continue
		}
		spec, ok := LookupSlot(kind, name)
		if !ok {
			return &BindError{Slot: name, Reason: fmt.Sprintf("%s has no such media slot", kind)}
		}
		if spec.Kind == SlotSingle && len(payloads) > 1 {
			return &BindError{Slot: name, Reason: fmt.Sprintf("expected one file, got %d", len(payloads))}
		}
	}
	return nil
}

func (b *Binder) runUploads(ctx context.Context, jobs []*uploadJob) {
	var g errgroup.Group
	g.SetLimit(b.maxConcurrent)
	for _, job := range jobs {
		g.Go(func() error {
			job.ref, job.err = b.upload(ctx, job.payload, job.folder)
			return nil
		})
	}
	_ = g.Wait()
}

func (b *Binder) upload(ctx context.Context, p Payload, folder string) (*MediaReference, error) {
	if p.Open == nil {
		return nil, ErrEmptyPayload
	}
	rc, err := p.Open()
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer rc.Close()

	ref, err := b.store.Upload(ctx, rc, p.FileName, folder)
	if err != nil {
		return nil, err
	}
	if ref == nil || ref.ReferenceID == "" {
		return nil, fmt.Errorf("%w: store returned no reference", ErrUploadFailed)
	}
	return ref, nil
}

// deleteRefs deletes every reference concurrently and returns the failures.
func (b *Binder) deleteRefs(ctx context.Context, refs []retirement) []*RetirementError {
	errs := make([]error, len(refs))
	var g errgroup.Group
	g.SetLimit(b.maxConcurrent)
	for i, r := range refs {
		g.Go(func() error {
			errs[i] = b.store.Delete(ctx, r.ref.ReferenceID)
			return nil
		})
	}
	_ = g.Wait()

	var failures []*RetirementError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, &RetirementError{Slot: refs[i].slot, Reference: refs[i].ref, Err: err})
		}
	}
	return failures
}

// CascadeResult is the outcome of DeleteAll.
type CascadeResult struct {
	Kind      Kind
	ID        uuid.UUID
	Attempted int
	Deleted   []MediaReference
	Failures  []*RetirementError
}

// Err returns a *CascadeDeletionError when any deletion failed.
func (r *CascadeResult) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	return &CascadeDeletionError{Kind: r.Kind, ID: r.ID, Failures: r.Failures}
}

// Diagnostics renders failed deletions as admin-facing messages.
func (r *CascadeResult) Diagnostics() []string {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%s deleted, but %d of %d media files could not be removed from storage", r.Kind, len(r.Failures), r.Attempted)}
}

// DeleteAll attempts deletion of every reference bound to e, one store call
// per reference. It always runs to completion; failures are collected in the
// result. Deletions are not cancelled with ctx.
func (b *Binder) DeleteAll(ctx context.Context, e Entity) *CascadeResult {
	var refs []retirement
	for _, spec := range SlotsFor(e.Kind()) {
		for _, ref := range e.Slots()[spec.Name].References() {
			refs = append(refs, retirement{slot: spec.Name, ref: ref})
		}
	}

	result := &CascadeResult{Kind: e.Kind(), ID: e.Base().ID, Attempted: len(refs)}
	if len(refs) == 0 {
		return result
	}

	result.Failures = b.deleteRefs(context.WithoutCancel(ctx), refs)
	failed := make(map[string]bool, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.Reference.ReferenceID] = true
		b.logger.Warn("Media could not be deleted", "kind", e.Kind(), "id", e.Base().ID, "slot", f.Slot, "reference", f.Reference.ReferenceID, "error", f.Err)
	}
	for _, r := range refs {
		if !failed[r.ref.ReferenceID] {
			result.Deleted = append(result.Deleted, r.ref)
		}
	}
	return result
}

// Discard deletes references uploaded by a Bind whose document write failed.
// Failures are logged and otherwise ignored.
func (b *Binder) Discard(ctx context.Context, refs []MediaReference) {
	if len(refs) == 0 {
		return
	}
	rs := make([]retirement, 0, len(refs))
	for _, ref := range refs {
		rs = append(rs, retirement{ref: ref})
	}
	for _, f := range b.deleteRefs(context.WithoutCancel(ctx), rs) {
		b.logger.Warn("Uploaded media could not be discarded", "reference", f.Reference.ReferenceID, "error", f.Err)
	}
}
