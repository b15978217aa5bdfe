package simplemedia

import (
	"fmt"
	"time"
)

// Entity is implemented by every content entity kind.
type Entity interface {
	Kind() Kind
	Base() *Meta

	// MediaCategory is the taxonomy context used to resolve media folders.
	MediaCategory() string

	// Slots returns the entity's current media references by slot name.
	Slots() SlotValues

	// SetSlot replaces the value of a named slot.
	SetSlot(name string, v SlotValue)

	// Validate checks required fields and closed enumerations.
	Validate() error

	// Normalize computes derived and default fields.
	Normalize()

	// SearchFields returns the text indexed for search.
	SearchFields() (title, summary string, keywords []string)
}

// NewEntity returns an empty entity of kind.
func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindEvent:
		return &Event{}, nil
	case KindProgram:
		return &EducationProgram{}, nil
	case KindFounder:
		return &FounderProfile{}, nil
	case KindHistory:
		return &HistoryPage{}, nil
	case KindTeam:
		return &TeamMember{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

func single(ref *MediaReference) SlotValue {
	return SlotValue{Single: ref}
}

func list(refs []MediaReference) SlotValue {
	return SlotValue{List: refs}
}

// Event is a dated program entry with poster, video and gallery.
type Event struct {
	Meta
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Type        string           `json:"type,omitempty"`
	Location    string           `json:"location,omitempty"`
	StartsAt    *time.Time       `json:"starts_at,omitempty"`
	EndsAt      *time.Time       `json:"ends_at,omitempty"`
	Keywords    []string         `json:"keywords,omitempty"`
	Poster      *MediaReference  `json:"poster,omitempty"`
	Video       *MediaReference  `json:"video,omitempty"`
	Gallery     []MediaReference `json:"gallery,omitempty"`
}

func (e *Event) Kind() Kind { return KindEvent }

func (e *Event) MediaCategory() string { return e.Category }

func (e *Event) Slots() SlotValues {
	return SlotValues{
		SlotPoster:  single(e.Poster),
		SlotVideo:   single(e.Video),
		SlotGallery: list(e.Gallery),
	}
}

func (e *Event) SetSlot(name string, v SlotValue) {
	switch name {
	case SlotPoster:
		e.Poster = v.Single
	case SlotVideo:
		e.Video = v.Single
	case SlotGallery:
		e.Gallery = v.List
	}
}

func (e *Event) SearchFields() (string, string, []string) {
	return e.Title, e.Description, e.Keywords
}

// EducationProgram is a course offering.
type EducationProgram struct {
	Meta
	Title       string           `json:"title"`
	Heading     string           `json:"heading,omitempty"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Level       string           `json:"level,omitempty"`
	AgeGroup    string           `json:"age_group,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Keywords    []string         `json:"keywords,omitempty"`
	Image       *MediaReference  `json:"image,omitempty"`
	Gallery     []MediaReference `json:"gallery,omitempty"`
}

func (p *EducationProgram) Kind() Kind { return KindProgram }

func (p *EducationProgram) MediaCategory() string { return p.Category }

func (p *EducationProgram) Slots() SlotValues {
	return SlotValues{
		SlotImage:   single(p.Image),
		SlotGallery: list(p.Gallery),
	}
}

func (p *EducationProgram) SetSlot(name string, v SlotValue) {
	switch name {
	case SlotImage:
		p.Image = v.Single
	case SlotGallery:
		p.Gallery = v.List
	}
}

func (p *EducationProgram) SearchFields() (string, string, []string) {
	return p.Title, p.Description, p.Keywords
}

// FounderProfile is the singleton founder page.
type FounderProfile struct {
	Meta
	Name      string           `json:"name"`
	Role      string           `json:"role,omitempty"`
	Biography string           `json:"biography,omitempty"`
	Quote     string           `json:"quote,omitempty"`
	Keywords  []string         `json:"keywords,omitempty"`
	Image     *MediaReference  `json:"image,omitempty"`
	Gallery   []MediaReference `json:"gallery,omitempty"`
}

func (f *FounderProfile) Kind() Kind { return KindFounder }

func (f *FounderProfile) MediaCategory() string { return "" }

func (f *FounderProfile) Slots() SlotValues {
	return SlotValues{
		SlotImage:   single(f.Image),
		SlotGallery: list(f.Gallery),
	}
}

func (f *FounderProfile) SetSlot(name string, v SlotValue) {
	switch name {
	case SlotImage:
		f.Image = v.Single
	case SlotGallery:
		f.Gallery = v.List
	}
}

func (f *FounderProfile) SearchFields() (string, string, []string) {
	return f.Name, f.Biography, f.Keywords
}

// Milestone is one dated entry of the history page.
type Milestone struct {
	Year  int    `json:"year"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

// HistoryPage is the singleton organizational history page.
type HistoryPage struct {
	Meta
	Title       string           `json:"title"`
	Heading     string           `json:"heading,omitempty"`
	Description string           `json:"description"`
	Milestones  []Milestone      `json:"milestones,omitempty"`
	Keywords    []string         `json:"keywords,omitempty"`
	Image       *MediaReference  `json:"image,omitempty"`
	Gallery     []MediaReference `json:"gallery,omitempty"`
}

func (h *HistoryPage) Kind() Kind { return KindHistory }

func (h *HistoryPage) MediaCategory() string { return "" }

func (h *HistoryPage) Slots() SlotValues {
	return SlotValues{
		SlotImage:   single(h.Image),
		SlotGallery: list(h.Gallery),
	}
}

func (h *HistoryPage) SetSlot(name string, v SlotValue) {
	switch name {
	case SlotImage:
		h.Image = v.Single
	case SlotGallery:
		h.Gallery = v.List
	}
}

func (h *HistoryPage) SearchFields() (string, string, []string) {
	return h.Title, h.Description, h.Keywords
}

// TeamMember is one person on the team page.
type TeamMember struct {
	Meta
	Name       string          `json:"name"`
	Role       string          `json:"role"`
	Department string          `json:"department"`
	Bio        string          `json:"bio,omitempty"`
	Order      int             `json:"order"`
	Keywords   []string        `json:"keywords,omitempty"`
	Image      *MediaReference `json:"image,omitempty"`
}

func (m *TeamMember) Kind() Kind { return KindTeam }

func (m *TeamMember) MediaCategory() string { return m.Department }

func (m *TeamMember) Slots() SlotValues {
	return SlotValues{SlotImage: single(m.Image)}
}

func (m *TeamMember) SetSlot(name string, v SlotValue) {
	if name == SlotImage {
		m.Image = v.Single
	}
}

func (m *TeamMember) SearchFields() (string, string, []string) {
	return m.Name, m.Role + " " + m.Bio, m.Keywords
}
