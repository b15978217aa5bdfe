package simplemedia

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the managed content entity types.
type Kind string

const (
	KindEvent   Kind = "event"
	KindProgram Kind = "program"
	KindFounder Kind = "founder"
	KindHistory Kind = "history"
	KindTeam    Kind = "team"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindEvent, KindProgram, KindFounder, KindHistory, KindTeam}

// IsValid reports whether k is a known entity kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindEvent, KindProgram, KindFounder, KindHistory, KindTeam:
		return true
	}
	return false
}

// IsSingleton reports whether at most one entity of this kind exists.
func (k Kind) IsSingleton() bool {
	return k == KindFounder || k == KindHistory
}

// Status gates storefront visibility of an entity.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// MediaReference is the durable pointer to a remote media object stored inside
// an entity document. It is treated as an immutable value.
type MediaReference struct {
	ReferenceID  string `json:"reference_id" bson:"reference_id"`
	StoredPath   string `json:"stored_path" bson:"stored_path"`
	URL          string `json:"url" bson:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	DisplayName  string `json:"display_name" bson:"display_name"`
}

// SlotKind says whether a slot holds one reference or an ordered list.
type SlotKind string

const (
	SlotSingle SlotKind = "single"
	SlotList   SlotKind = "list"
)

// MediaType is the class of payload a slot accepts.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// SlotSpec describes a named media attachment point on an entity kind.
type SlotSpec struct {
	Name  string
	Kind  SlotKind
	Media MediaType
	// Folder resolves the remote store folder from the entity's category context.
	Folder func(category string) string
}

// SlotValue is the content of one slot: Single for single slots, List for list slots.
type SlotValue struct {
	Single *MediaReference
	List   []MediaReference
}

func (v SlotValue) clone() SlotValue {
	var out SlotValue
	if v.Single != nil {
		ref := *v.Single
		out.Single = &ref
	}
	if v.List != nil {
		out.List = append([]MediaReference(nil), v.List...)
	}
	return out
}

// IsEmpty reports whether the slot holds no reference.
func (v SlotValue) IsEmpty() bool {
	return v.Single == nil && len(v.List) == 0
}

// References returns every reference held by the slot.
func (v SlotValue) References() []MediaReference {
	if v.Single != nil {
		return []MediaReference{*v.Single}
	}
	return v.List
}

// SlotValues maps slot names to their current references.
type SlotValues map[string]SlotValue

// References flattens all slots into a single list.
func (s SlotValues) References() []MediaReference {
	var refs []MediaReference
	for _, v := range s {
		refs = append(refs, v.References()...)
	}
	return refs
}

// Payload is one named byte payload delivered by the upload transport.
type Payload struct {
	FileName string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Uploads groups payloads by slot (form field) name.
type Uploads map[string][]Payload

// Count returns the total number of payloads across all slots.
func (u Uploads) Count() int {
	n := 0
	for _, p := range u {
		n += len(p)
	}
	return n
}

// Meta carries identity and lifecycle fields shared by every entity.
type Meta struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	Status    Status    `json:"status" bson:"status"`
	CreatedBy string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Base returns the embedded Meta.
func (m *Meta) Base() *Meta {
	return m
}
