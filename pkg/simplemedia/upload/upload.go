// Package upload turns admin form submissions into field patches and
// per-slot media payloads.
package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Limits
const (
	DefaultMaxFileSize = 50 << 20
	DefaultMaxFiles    = 10

	// DataField is the form field carrying the JSON field patch.
	DataField = "data"

	formMemory = 32 << 20
)

var (
	ErrTooManyFiles    = errors.New("too many files")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrUnknownField    = errors.New("unknown upload field")
	ErrMalformedForm   = errors.New("malformed form")
)

// Allowed content types per media type of a slot.
var (
	ImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	VideoTypes = []string{"video/mp4", "video/x-msvideo", "video/avi", "video/quicktime", "video/x-ms-wmv", "video/x-ms-asf", "video/webm"}
)

// Form is a parsed admin submission.
type Form struct {
	Fields  json.RawMessage
	Uploads simplemedia.Uploads

	form *multipart.Form
}

// Close removes temporary files kept for the uploads.
func (f *Form) Close() error {
	if f == nil || f.form == nil {
		return nil
	}
	return f.form.RemoveAll()
}

// Parser reads admin submissions.
type Parser struct {
	maxFileSize int64
	maxFiles    int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxFileSize caps the size of each uploaded file.
func WithMaxFileSize(n int64) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// WithMaxFiles caps the number of files per request.
func WithMaxFiles(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxFiles = n
		}
	}
}

// NewParser creates a parser with default limits.
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize, maxFiles: DefaultMaxFiles}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads r as either a JSON field patch or a multipart form whose file
// fields are the media slots of kind.
func (p *Parser) Parse(w http.ResponseWriter, r *http.Request, kind simplemedia.Kind) (*Form, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType == "application/json" {
		return p.parseJSON(w, r)
	}
	if mediaType != "multipart/form-data" {
		return nil, fmt.Errorf("%w: content type %q", ErrMalformedForm, mediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, p.maxFileSize*int64(p.maxFiles)+formMemory)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", ErrFileTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}

	form := &Form{Uploads: simplemedia.Uploads{}, form: r.MultipartForm}
	if data := r.MultipartForm.Value[DataField]; len(data) > 0 && strings.TrimSpace(data[0]) != "" {
		form.Fields = json.RawMessage(data[0])
	}

	count := 0
	for field, headers := range r.MultipartForm.File {
		spec, ok := simplemedia.LookupSlot(kind, field)
		if !ok {
			form.Close()
			return nil, fmt.Errorf("%w: %s has no %q slot", ErrUnknownField, kind, field)
		}
		for _, fh := range headers {
			count++
			if count > p.maxFiles {
				form.Close()
				return nil, fmt.Errorf("%w: at most %d files per request", ErrTooManyFiles, p.maxFiles)
			}
			payload, err := p.payload(spec, fh)
			if err != nil {
				form.Close()
				return nil, err
			}
			form.Uploads[field] = append(form.Uploads[field], payload)
		}
	}
	return form, nil
}

func (p *Parser) parseJSON(w http.ResponseWriter, r *http.Request) (*Form, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, formMemory))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	form := &Form{Uploads: simplemedia.Uploads{}}
	if len(strings.TrimSpace(string(body))) > 0 {
		form.Fields = body
	}
	return form, nil
}

func (p *Parser) payload(spec simplemedia.SlotSpec, fh *multipart.FileHeader) (simplemedia.Payload, error) {
	if fh.Size > p.maxFileSize {
		return simplemedia.Payload{}, fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrFileTooLarge, fh.Filename, fh.Size, p.maxFileSize)
	}

	contentType, err := p.contentType(fh)
	if err != nil {
		return simplemedia.Payload{}, err
	}
	allowed := ImageTypes
	if spec.Media == simplemedia.MediaVideo {
		allowed = VideoTypes
	}
	if !contains(allowed, contentType) {
		return simplemedia.Payload{}, fmt.Errorf("%w: %q is %s, %s accepts %s", ErrUnsupportedType, fh.Filename, contentType, spec.Name, strings.Join(allowed, ", "))
	}

	return simplemedia.Payload{
		FileName: fh.Filename,
		MimeType: contentType,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

// contentType returns the declared type, sniffing the content when the
// client sent none or a generic one.
func (p *Parser) contentType(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = mt
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect type of %q: %w", fh.Filename, err)
	}
	mt, _, _ := mime.ParseMediaType(detected.String())
	return mt, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
