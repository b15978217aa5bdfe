package simplemedia

import (
	"encoding/json"
	"fmt"
)

// EncodeDocument wraps e in its stored envelope.
func EncodeDocument(e Entity) (*Document, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	m := e.Base()
	title, summary, keywords := e.SearchFields()
	return &Document{
		ID:        m.ID,
		Kind:      e.Kind(),
		Status:    m.Status,
		Title:     title,
		Summary:   summary,
		Keywords:  keywords,
		Body:      body,
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// DecodeDocument rebuilds the entity stored in doc. Envelope fields win over
// the body for identity and lifecycle metadata.
func DecodeDocument(doc *Document) (Entity, error) {
	e, err := NewEntity(doc.Kind)
	if err != nil {
		return nil, err
	}
	if len(doc.Body) > 0 {
		if err := json.Unmarshal(doc.Body, e); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", doc.Kind, doc.ID, err)
		}
	}
	m := e.Base()
	m.ID = doc.ID
	m.Status = doc.Status
	m.CreatedBy = doc.CreatedBy
	m.UpdatedBy = doc.UpdatedBy
	m.CreatedAt = doc.CreatedAt
	m.UpdatedAt = doc.UpdatedAt
	return e, nil
}
