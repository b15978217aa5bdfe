package simplemedia

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxBiographyLength   = 5000
	MaxKeywords          = 20
)

// Closed enumerations
var (
	EventCategories   = []string{"festival", "concert", "workshop", "exhibition", "competition"}
	ProgramCategories = []string{"music", "dance", "theatre", "visual-arts", "languages"}
	ProgramLevels     = []string{"beginner", "intermediate", "advanced"}
	TeamDepartments   = []string{"management", "artistic", "teaching", "production", "administration"}
)

// eventTypes maps an event category to its display type label.
var eventTypes = map[string]string{
	"festival":    "Festival",
	"concert":     "Performance",
	"workshop":    "Masterclass",
	"exhibition":  "Exhibition",
	"competition": "Competition",
}

// EventType returns the type label derived from category.
func EventType(category string) string {
	return eventTypes[category]
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type checker struct {
	*ValidationError
}

func newChecker(kind Kind) checker {
	return checker{&ValidationError{Kind: kind}}
}

func (c checker) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		c.Add(field, "is required")
	}
}

func (c checker) maxLen(field, v string, n int) {
	if utf8.RuneCountInString(v) > n {
		c.Add(field, "must be at most %d characters", n)
	}
}

func (c checker) enum(field, v string, set []string, optional bool) {
	if v == "" && optional {
		return
	}
	if !oneOf(v, set) {
		c.Add(field, "must be one of %s", strings.Join(set, ", "))
	}
}

func (c checker) meta(m *Meta) {
	if m.Status != "" && !m.Status.IsValid() {
		c.Add("status", "must be one of draft, published, archived")
	}
}

func (c checker) keywords(k []string) {
	if len(k) > MaxKeywords {
		c.Add("keywords", "must have at most %d entries", MaxKeywords)
	}
}

func (e *Event) Validate() error {
	c := newChecker(KindEvent)
	c.meta(&e.Meta)
	c.required("title", e.Title)
	c.maxLen("title", e.Title, MaxTitleLength)
	c.required("description", e.Description)
	c.maxLen("description", e.Description, MaxDescriptionLength)
	c.enum("category", e.Category, EventCategories, false)
	c.maxLen("location", e.Location, MaxTitleLength)
	if e.StartsAt != nil && e.EndsAt != nil && e.EndsAt.Before(*e.StartsAt) {
		c.Add("ends_at", "must not be before starts_at")
	}
	c.keywords(e.Keywords)
	return c.OrNil()
}

func (e *Event) Normalize() {
	normalizeMeta(&e.Meta)
	e.Type = EventType(e.Category)
	e.Keywords = normalizeKeywords(e.Keywords)
}

func (p *EducationProgram) Validate() error {
	c := newChecker(KindProgram)
	c.meta(&p.Meta)
	c.required("title", p.Title)
	c.maxLen("title", p.Title, MaxTitleLength)
	c.maxLen("heading", p.Heading, MaxTitleLength)
	c.required("description", p.Description)
	c.maxLen("description", p.Description, MaxDescriptionLength)
	c.enum("category", p.Category, ProgramCategories, false)
	c.enum("level", p.Level, ProgramLevels, true)
	c.keywords(p.Keywords)
	return c.OrNil()
}

func (p *EducationProgram) Normalize() {
	normalizeMeta(&p.Meta)
	if strings.TrimSpace(p.Heading) == "" {
		p.Heading = p.Title
	}
	p.Keywords = normalizeKeywords(p.Keywords)
}

func (f *FounderProfile) Validate() error {
	c := newChecker(KindFounder)
	c.meta(&f.Meta)
	c.required("name", f.Name)
	c.maxLen("name", f.Name, MaxTitleLength)
	c.maxLen("role", f.Role, MaxTitleLength)
	c.maxLen("biography", f.Biography, MaxBiographyLength)
	c.maxLen("quote", f.Quote, MaxDescriptionLength)
	c.keywords(f.Keywords)
	return c.OrNil()
}

func (f *FounderProfile) Normalize() {
	normalizeMeta(&f.Meta)
	f.Keywords = normalizeKeywords(f.Keywords)
}

func (h *HistoryPage) Validate() error {
	c := newChecker(KindHistory)
	c.meta(&h.Meta)
	c.required("title", h.Title)
	c.maxLen("title", h.Title, MaxTitleLength)
	c.maxLen("heading", h.Heading, MaxTitleLength)
	c.maxLen("description", h.Description, MaxDescriptionLength)
	for _, m := range h.Milestones {
		if m.Year < 1000 || m.Year > 9999 {
			c.Add("milestones", "year %d is out of range", m.Year)
		}
		if strings.TrimSpace(m.Title) == "" {
			c.Add("milestones", "title is required")
		}
	}
	c.keywords(h.Keywords)
	return c.OrNil()
}

func (h *HistoryPage) Normalize() {
	normalizeMeta(&h.Meta)
	if strings.TrimSpace(h.Heading) == "" {
		h.Heading = h.Title
	}
	sort.SliceStable(h.Milestones, func(i, j int) bool {
		return h.Milestones[i].Year < h.Milestones[j].Year
	})
	h.Keywords = normalizeKeywords(h.Keywords)
}

func (m *TeamMember) Validate() error {
	c := newChecker(KindTeam)
	c.meta(&m.Meta)
	c.required("name", m.Name)
	c.maxLen("name", m.Name, MaxTitleLength)
	c.required("role", m.Role)
	c.maxLen("role", m.Role, MaxTitleLength)
	c.enum("department", m.Department, TeamDepartments, false)
	c.maxLen("bio", m.Bio, MaxDescriptionLength)
	if m.Order < 0 {
		c.Add("order", "must not be negative")
	}
	c.keywords(m.Keywords)
	return c.OrNil()
}

func (m *TeamMember) Normalize() {
	normalizeMeta(&m.Meta)
	m.Keywords = normalizeKeywords(m.Keywords)
}

func normalizeMeta(m *Meta) {
	if m.Status == "" {
		m.Status = StatusDraft
	}
}

// normalizeKeywords trims, lowercases and de-duplicates keywords, keeping order.
func normalizeKeywords(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
