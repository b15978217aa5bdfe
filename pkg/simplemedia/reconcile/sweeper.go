// Package reconcile finds stored objects that no entity references any more.
//
// Retirement and cascade deletion are best-effort, so failed deletes and
// interrupted requests can leave orphans behind. A Sweeper compares
// the blob store listing against every reference held by the repository and
// reports (or removes) the difference. The listing is taken before the
// references are read, so media committed during a sweep is never mistaken
// for an orphan; MinAge additionally protects uploads whose document write is
// still in flight.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// DefaultBatchSize is the page size used when walking the repository.
const DefaultBatchSize = 100

// Sweeper reconciles a blob store against the documents in a repository.
type Sweeper struct {
	repo   simplemedia.Repository
	blob   simplemedia.BlobStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the logger used for per-object diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for the MinAge cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Sweeper.
func New(repo simplemedia.Repository, blob simplemedia.BlobStore, opts ...Option) *Sweeper {
	s := &Sweeper{repo: repo, blob: blob, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepOptions configures a sweep.
type SweepOptions struct {
	// Prefix limits the listing to keys under this prefix
	Prefix string

	// DryRun reports orphans without deleting them
	DryRun bool

	// MinAge skips objects modified less than MinAge before the sweep started
	MinAge time.Duration

	// BatchSize controls how many documents are read per page (default: 100)
	BatchSize int

	// OnProgress is called after each page of documents (optional)
	OnProgress func(kind simplemedia.Kind, documents int)
}

// Report summarizes a sweep.
type Report struct {
	Documents  int      `json:"documents"`
	References int      `json:"references"`
	Objects    int      `json:"objects"`
	Recent     int      `json:"recent"`
	Orphans    []string `json:"orphans"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	FailedKeys []string `json:"failed_keys,omitempty"`
	Undecoded  []string `json:"undecoded,omitempty"`
}

// Sweep lists stored objects and deletes those no document references.
// Objects newer than opts.MinAge are counted in Report.Recent and left alone.
// A document that cannot be decoded aborts deletion, since its references
// are unknown; its ID is still reported.
func (s *Sweeper) Sweep(ctx context.Context, opts SweepOptions) (*Report, error) {
	report := &Report{}
	cutoff := s.now().Add(-opts.MinAge)

	objects, err := s.blob.List(ctx, opts.Prefix)
	if err != nil {
		return report, fmt.Errorf("failed to list objects: %w", err)
	}
	report.Objects = len(objects)

	refs, err := s.collect(ctx, opts, report)
	if err != nil {
		return report, err
	}
	report.References = len(refs)

	for _, obj := range objects {
		if _, ok := refs[obj.Key]; ok {
			continue
		}
		if opts.MinAge > 0 && obj.UpdatedAt.After(cutoff) {
			report.Recent++
			s.logger.DebugContext(ctx, "Skipping recent object", "key", obj.Key, "updated_at", obj.UpdatedAt)
			continue
		}
		report.Orphans = append(report.Orphans, obj.Key)
	}
	sort.Strings(report.Orphans)

	if opts.DryRun {
		for _, key := range report.Orphans {
			s.logger.InfoContext(ctx, "[DRY-RUN] Would delete orphan", "key", key)
		}
		return report, nil
	}
	if len(report.Undecoded) > 0 {
		return report, fmt.Errorf("refusing to delete: %d documents could not be decoded", len(report.Undecoded))
	}

	for _, key := range report.Orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.blob.Delete(ctx, key); err != nil {
			report.Failed++
			report.FailedKeys = append(report.FailedKeys, key)
			s.logger.ErrorContext(ctx, "Failed to delete orphan", "key", key, "error", err)
			continue
		}
		report.Deleted++
		s.logger.InfoContext(ctx, "Deleted orphan", "key", key)
	}
	return report, nil
}

// References returns the reference IDs held by every document in the repository.
func (s *Sweeper) References(ctx context.Context) (map[string]struct{}, error) {
	return s.collect(ctx, SweepOptions{}, &Report{})
}

func (s *Sweeper) collect(ctx context.Context, opts SweepOptions, report *Report) (map[string]struct{}, error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	refs := make(map[string]struct{})
	for _, kind := range simplemedia.Kinds {
		seen := 0
		for offset := 0; ; offset += batch {
			docs, err := s.repo.List(ctx, simplemedia.ListFilter{Kind: kind, Limit: batch, Offset: offset})
			if err != nil {
				return nil, fmt.Errorf("failed to list %s documents: %w", kind, err)
			}

			for _, doc := range docs {
				entity, err := simplemedia.DecodeDocument(doc)
				if err != nil {
					report.Undecoded = append(report.Undecoded, doc.ID.String())
					s.logger.WarnContext(ctx, "Failed to decode document", "kind", kind, "id", doc.ID, "error", err)
					continue
				}
				for _, ref := range entity.Slots().References() {
					if ref.ReferenceID != "" {
						refs[ref.ReferenceID] = struct{}{}
					}
				}
			}

			seen += len(docs)
			report.Documents += len(docs)
			if opts.OnProgress != nil {
				opts.OnProgress(kind, seen)
			}
			if len(docs) < batch {
				break
			}
		}
	}
	return refs, nil
}
