package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Repository implements simplemedia.Repository using in-memory storage
type Repository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*simplemedia.Document
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		docs: make(map[uuid.UUID]*simplemedia.Document),
	}
}

func clone(doc *simplemedia.Document) *simplemedia.Document {
	c := *doc
	c.Keywords = append([]string(nil), doc.Keywords...)
	c.Body = append([]byte(nil), doc.Body...)
	return &c
}

func (r *Repository) Create(ctx context.Context, doc *simplemedia.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[doc.ID]; exists {
		return simplemedia.ErrAlreadyExists
	}
	if doc.Kind.IsSingleton() {
		for _, d := range r.docs {
			if d.Kind == doc.Kind {
				return simplemedia.ErrAlreadyExists
			}
		}
	}

	// Store a copy to avoid external modifications
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *Repository) Get(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) (*simplemedia.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id]
	if !exists || doc.Kind != kind {
		return nil, simplemedia.ErrNotFound
	}
	return clone(doc), nil
}

func (r *Repository) Update(ctx context.Context, doc *simplemedia.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.docs[doc.ID]
	if !exists || current.Kind != doc.Kind {
		return simplemedia.ErrNotFound
	}
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.docs[id]
	if !exists || doc.Kind != kind {
		return simplemedia.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// List returns documents newest first
func (r *Repository) List(ctx context.Context, filter simplemedia.ListFilter) ([]*simplemedia.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*simplemedia.Document
	for _, doc := range r.docs {
		if doc.Kind != filter.Kind {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		out = append(out, clone(doc))
	}
	sortNewestFirst(out)
	return page(out, filter.Offset, filter.Limit), nil
}

// Search matches every whitespace separated term, case-insensitively,
// against title, summary and keywords
func (r *Repository) Search(ctx context.Context, kind simplemedia.Kind, query string, limit int) ([]*simplemedia.Document, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*simplemedia.Document
	for _, doc := range r.docs {
		if doc.Kind != kind {
			continue
		}
		text := strings.ToLower(doc.Title + " " + doc.Summary + " " + strings.Join(doc.Keywords, " "))
		matched := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, clone(doc))
		}
	}
	sortNewestFirst(out)
	return page(out, 0, limit), nil
}

func (r *Repository) GetSingleton(ctx context.Context, kind simplemedia.Kind) (*simplemedia.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, doc := range r.docs {
		if doc.Kind == kind {
			return clone(doc), nil
		}
	}
	return nil, simplemedia.ErrNotFound
}

func sortNewestFirst(docs []*simplemedia.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID.String() < docs[j].ID.String()
	})
}

func page(docs []*simplemedia.Document, offset, limit int) []*simplemedia.Document {
	if offset > 0 {
		if offset >= len(docs) {
			return nil
		}
		docs = docs[offset:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
