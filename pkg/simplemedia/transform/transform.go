// Package transform derives cacheable, parameterized media URLs from stored
// paths. The directive format understood by the media endpoint is
//
//	<base><storedPath>?tr:w-400,h-300,q-80,f-webp,ar-16-9,c-maintain_ratio,fo-auto
//
// where only the options that are set are emitted, always in that order.
package transform

import (
	"path"
	"strconv"
	"strings"
)

// Defaults applied by WithDefaults and the variant presets.
const (
	DefaultQuality = 80
	DefaultFormat  = "webp"
)

// DirectivePrefix starts the transformation segment of a URL.
const DirectivePrefix = "tr:"

// Options are the transformation parameters. Zero values are unset.
// Numeric values are passed through verbatim.
type Options struct {
	Width       int
	Height      int
	Quality     int
	Format      string
	AspectRatio string
	Crop        string
	Focus       string
}

// IsZero reports whether no option is set.
func (o Options) IsZero() bool {
	return o == Options{}
}

// WithDefaults fills Quality and Format when they are unset.
func (o Options) WithDefaults() Options {
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	return o
}

// Directive renders the set options as comma-joined key-value pairs in the
// fixed order width, height, quality, format, aspectRatio, crop, focus.
func (o Options) Directive() string {
	var parts []string
	if o.Width != 0 {
		parts = append(parts, "w-"+strconv.Itoa(o.Width))
	}
	if o.Height != 0 {
		parts = append(parts, "h-"+strconv.Itoa(o.Height))
	}
	if o.Quality != 0 {
		parts = append(parts, "q-"+strconv.Itoa(o.Quality))
	}
	if o.Format != "" {
		parts = append(parts, "f-"+o.Format)
	}
	if o.AspectRatio != "" {
		parts = append(parts, "ar-"+o.AspectRatio)
	}
	if o.Crop != "" {
		parts = append(parts, "c-"+o.Crop)
	}
	if o.Focus != "" {
		parts = append(parts, "fo-"+o.Focus)
	}
	return strings.Join(parts, ",")
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
}

// IsVideo reports whether storedPath names a video, which is served as-is.
func IsVideo(storedPath string) bool {
	return videoExtensions[strings.ToLower(path.Ext(storedPath))]
}

// Engine builds URLs against a media endpoint.
type Engine struct {
	Endpoint string // e.g. "https://media.example.com/studio"
}

// NewEngine creates an engine for endpoint.
func NewEngine(endpoint string) *Engine {
	// Ensure endpoint doesn't have trailing slash
	return &Engine{Endpoint: strings.TrimSuffix(endpoint, "/")}
}

// Enabled reports whether an endpoint is configured.
func (e *Engine) Enabled() bool {
	return e != nil && e.Endpoint != ""
}

// BaseURL returns the untransformed URL of storedPath.
func (e *Engine) BaseURL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	if !strings.HasPrefix(storedPath, "/") {
		storedPath = "/" + storedPath
	}
	if e == nil {
		return storedPath
	}
	return e.Endpoint + storedPath
}

// BuildURL returns the URL of storedPath with opts applied. An empty path
// yields "", no options or a video path yield the base URL.
func (e *Engine) BuildURL(storedPath string, opts Options) string {
	if storedPath == "" {
		return ""
	}
	base := e.BaseURL(storedPath)
	if opts.IsZero() || IsVideo(storedPath) {
		return base
	}
	return base + "?" + DirectivePrefix + opts.Directive()
}
