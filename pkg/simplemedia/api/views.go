package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

// collections maps URL path segments to multi-instance kinds.
var collections = map[string]simplemedia.Kind{
	"events":   simplemedia.KindEvent,
	"programs": simplemedia.KindProgram,
	"team":     simplemedia.KindTeam,
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// MutationResponse is the response body for create and update calls
type MutationResponse struct {
	Entity      simplemedia.Entity `json:"entity"`
	Created     bool               `json:"created"`
	Diagnostics []string           `json:"diagnostics,omitempty"`
}

// DeleteResponse is the response body for delete calls
type DeleteResponse struct {
	Kind         simplemedia.Kind `json:"kind"`
	ID           string           `json:"id"`
	MediaDeleted int              `json:"media_deleted"`
	Diagnostics  []string         `json:"diagnostics,omitempty"`
}

// ListResponse is the response body for list and search calls
type ListResponse struct {
	Items  []interface{} `json:"items"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// MediaView is a media reference as rendered for public consumers
type MediaView struct {
	ReferenceID  string            `json:"reference_id"`
	DisplayName  string            `json:"display_name,omitempty"`
	URL          string            `json:"url"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	Variants     map[string]string `json:"variants,omitempty"`
}

// URLBuilder derives delivery URLs for stored paths
type URLBuilder interface {
	BuildURL(storedPath string, opts transform.Options) string
}

func mediaView(b URLBuilder, ref simplemedia.MediaReference) MediaView {
	v := MediaView{
		ReferenceID:  ref.ReferenceID,
		DisplayName:  ref.DisplayName,
		URL:          ref.URL,
		ThumbnailURL: ref.ThumbnailURL,
	}
	if transform.IsVideo(ref.StoredPath) {
		return v
	}
	if u := b.BuildURL(ref.StoredPath, transform.Options{}); u != "" {
		v.URL = u
	}
	v.Variants = make(map[string]string, len(transform.VariantOrder))
	for _, variant := range transform.VariantOrder {
		if u := b.BuildURL(ref.StoredPath, transform.Presets[variant]); u != "" {
			v.Variants[string(variant)] = u
		}
	}
	if v.ThumbnailURL == "" {
		v.ThumbnailURL = v.Variants[string(transform.VariantThumbnail)]
	}
	return v
}

// publicView renders e as a JSON object whose media slots carry delivery URLs.
func publicView(b URLBuilder, e simplemedia.Entity) (map[string]interface{}, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var view map[string]interface{}
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, err
	}
	delete(view, "created_by")
	delete(view, "updated_by")

	slots := e.Slots()
	for _, spec := range simplemedia.SlotsFor(e.Kind()) {
		v := slots[spec.Name]
		switch {
		case spec.Kind == simplemedia.SlotSingle && v.Single != nil:
			view[spec.Name] = mediaView(b, *v.Single)
		case spec.Kind == simplemedia.SlotList:
			list := make([]MediaView, 0, len(v.List))
			for _, ref := range v.List {
				list = append(list, mediaView(b, ref))
			}
			view[spec.Name] = list
		default:
			view[spec.Name] = nil
		}
	}
	return view, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", simplemedia.ErrNotFound, raw)
	}
	return id, nil
}

func parsePaging(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
