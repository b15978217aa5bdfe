package simplemedia_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *simplemedia.ValidationError
	require.ErrorAs(t, err, &verr)
	var names []string
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestEvent_Validate(t *testing.T) {
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	tests := []struct {
		name   string
		event  simplemedia.Event
		fields []string
	}{
		{
			name:  "valid",
			event: simplemedia.Event{Title: "Gala", Description: "Annual gala", Category: "concert"},
		},
		{
			name:   "missing required",
			event:  simplemedia.Event{},
			fields: []string{"title", "description", "category"},
		},
		{
			name:   "title too long",
			event:  simplemedia.Event{Title: strings.Repeat("a", simplemedia.MaxTitleLength+1), Description: "d", Category: "festival"},
			fields: []string{"title"},
		},
		{
			name:   "ends before start",
			event:  simplemedia.Event{Title: "t", Description: "d", Category: "workshop", StartsAt: &start, EndsAt: &end},
			fields: []string{"ends_at"},
		},
		{
			name:   "bad status",
			event:  simplemedia.Event{Meta: simplemedia.Meta{Status: "deleted"}, Title: "t", Description: "d", Category: "workshop"},
			fields: []string{"status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldNames(t, err))
		})
	}
}

func TestEvent_Normalize(t *testing.T) {
	e := &simplemedia.Event{Category: "concert", Keywords: []string{" Jazz", "jazz", "", "Live "}}
	e.Normalize()
	assert.Equal(t, simplemedia.StatusDraft, e.Status)
	assert.Equal(t, "Performance", e.Type)
	assert.Equal(t, []string{"jazz", "live"}, e.Keywords)
}

func TestProgram_ValidateAndNormalize(t *testing.T) {
	p := &simplemedia.EducationProgram{Title: "Violin", Description: "Strings", Category: "music", Level: "expert"}
	assert.Equal(t, []string{"level"}, fieldNames(t, p.Validate()))

	p.Level = ""
	require.NoError(t, p.Validate())
	p.Normalize()
	assert.Equal(t, "Violin", p.Heading)
}

func TestFounder_Validate(t *testing.T) {
	f := &simplemedia.FounderProfile{Name: "Maria", Biography: strings.Repeat("b", simplemedia.MaxBiographyLength+1)}
	assert.Equal(t, []string{"biography"}, fieldNames(t, f.Validate()))
}

func TestHistory_ValidateAndNormalize(t *testing.T) {
	h := &simplemedia.HistoryPage{
		Title:      "History",
		Milestones: []simplemedia.Milestone{{Year: 12, Title: "x"}, {Year: 2001}},
	}
	assert.Equal(t, []string{"milestones", "milestones"}, fieldNames(t, h.Validate()))

	h.Milestones = []simplemedia.Milestone{{Year: 2010, Title: "b"}, {Year: 1998, Title: "a"}}
	require.NoError(t, h.Validate())
	h.Normalize()
	assert.Equal(t, 1998, h.Milestones[0].Year)
	assert.Equal(t, "History", h.Heading)

	h.Description = strings.Repeat("d", simplemedia.MaxDescriptionLength)
	require.NoError(t, h.Validate())
	h.Description += "d"
	assert.Equal(t, []string{"description"}, fieldNames(t, h.Validate()))
}

func TestTeamMember_Validate(t *testing.T) {
	m := &simplemedia.TeamMember{Name: "Ana", Role: "Director", Department: "sales", Order: -1}
	assert.Equal(t, []string{"department", "order"}, fieldNames(t, m.Validate()))

	tooMany := make([]string, simplemedia.MaxKeywords+1)
	m = &simplemedia.TeamMember{Name: "Ana", Role: "Director", Department: "management", Keywords: tooMany}
	assert.Equal(t, []string{"keywords"}, fieldNames(t, m.Validate()))
}
