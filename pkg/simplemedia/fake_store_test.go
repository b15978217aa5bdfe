package simplemedia_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is a recording MediaStore. Uploads whose name is in failUploads
// and deletes whose reference is in failDeletes return errStoreDown.
type fakeStore struct {
	mu          sync.Mutex
	seq         int
	objects     map[string]string
	uploads     []string
	deletes     []string
	failUploads map[string]bool
	failDeletes map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:     make(map[string]string),
		failUploads: make(map[string]bool),
		failDeletes: make(map[string]bool),
	}
}

func (s *fakeStore) Upload(ctx context.Context, r io.Reader, name, folder string) (*simplemedia.MediaReference, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, folder+"/"+name)
	if s.failUploads[name] {
		return nil, errStoreDown
	}
	s.seq++
	id := fmt.Sprintf("%s/%03d_%s", folder, s.seq, name)
	s.objects[id] = string(data)
	return &simplemedia.MediaReference{
		ReferenceID: id,
		StoredPath:  "/" + id,
		URL:         "https://files.example.com/" + id,
		DisplayName: name,
	}, nil
}

func (s *fakeStore) Delete(ctx context.Context, referenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, referenceID)
	if s.failDeletes[referenceID] {
		return errStoreDown
	}
	delete(s.objects, referenceID)
	return nil
}

func (s *fakeStore) BuildURL(storedPath string, opts transform.Options) string {
	return transform.NewEngine("https://media.example.com").BuildURL(storedPath, opts)
}

func (s *fakeStore) deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func (s *fakeStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func (s *fakeStore) has(referenceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[referenceID]
	return ok
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func payload(name, body string) simplemedia.Payload {
	return simplemedia.Payload{
		FileName: name,
		MimeType: "image/jpeg",
		Size:     int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// gatedStore holds every call until open is called and records the peak
// number of calls in flight. full is closed once limit calls are waiting.
type gatedStore struct {
	mu       sync.Mutex
	seq      int
	inFlight int
	peak     int
	limit    int
	full     chan struct{}
	release  chan struct{}
	fullOnce sync.Once
}

func newGatedStore(limit int) *gatedStore {
	return &gatedStore{limit: limit, full: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) enter() {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	if g.inFlight >= g.limit {
		g.fullOnce.Do(func() { close(g.full) })
	}
	g.mu.Unlock()

	<-g.release

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
}

func (g *gatedStore) Upload(ctx context.Context, r io.Reader, name, folder string) (*simplemedia.MediaReference, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	g.enter()

	g.mu.Lock()
	g.seq++
	id := fmt.Sprintf("%s/%03d_%s", folder, g.seq, name)
	g.mu.Unlock()
	return &simplemedia.MediaReference{ReferenceID: id, StoredPath: "/" + id, URL: "https://files.example.com/" + id, DisplayName: name}, nil
}

func (g *gatedStore) Delete(ctx context.Context, referenceID string) error {
	g.enter()
	return nil
}

func (g *gatedStore) BuildURL(storedPath string, opts transform.Options) string {
	return storedPath
}

// waitFull blocks until limit calls are in flight, then gives any call
// beyond the limit a moment to show up.
func (g *gatedStore) waitFull(t *testing.T) {
	t.Helper()
	select {
	case <-g.full:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected %d calls in flight", g.limit)
	}
	time.Sleep(20 * time.Millisecond)
}

func (g *gatedStore) open() {
	close(g.release)
}

func (g *gatedStore) peakInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}
