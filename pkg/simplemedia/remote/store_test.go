package remote_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/remote"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x01}, 64)...)

type failingBlobStore struct {
	*memorystorage.Backend
	uploadErr error
	deleteErr error
}

func (f *failingBlobStore) UploadWithParams(ctx context.Context, r io.Reader, p simplemedia.UploadParams) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.Backend.UploadWithParams(ctx, r, p)
}

func (f *failingBlobStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Backend.Delete(ctx, key)
}

func TestStore_Upload(t *testing.T) {
	blob := memorystorage.NewWithBaseURL("https://files.example.com")
	store := remote.New(blob,
		remote.WithBackendName("memory"),
		remote.WithEngine(transform.NewEngine("https://media.example.com/studio")),
	)

	ref, err := store.Upload(context.Background(), bytes.NewReader(jpegBytes), "poster.jpg", "programs/festival")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.ReferenceID, "programs/festival/"))
	assert.True(t, strings.HasSuffix(ref.ReferenceID, "_poster.jpg"))
	assert.Equal(t, "/"+ref.ReferenceID, ref.StoredPath)
	assert.Equal(t, "https://files.example.com/"+ref.ReferenceID, ref.URL)
	assert.Equal(t, "https://media.example.com/studio"+ref.StoredPath+"?tr:w-150,h-150,q-70,f-webp,c-maintain_ratio", ref.ThumbnailURL)
	assert.Equal(t, "poster.jpg", ref.DisplayName)

	meta, err := blob.GetObjectMeta(context.Background(), ref.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", meta.ContentType)
	assert.Equal(t, int64(len(jpegBytes)), meta.Size)
}

func TestStore_UploadVideoHasNoThumbnail(t *testing.T) {
	store := remote.New(memorystorage.New(), remote.WithEngine(transform.NewEngine("https://media.example.com")))

	ref, err := store.Upload(context.Background(), strings.NewReader("not really a video"), "clip.mp4", "programs/concert/videos")
	require.NoError(t, err)
	assert.Empty(t, ref.ThumbnailURL)
	assert.Equal(t, "https://media.example.com"+ref.StoredPath, ref.URL)
}

func TestStore_UploadEmptyPayload(t *testing.T) {
	store := remote.New(memorystorage.New())
	ref, err := store.Upload(context.Background(), strings.NewReader(""), "a.jpg", "history")
	assert.Nil(t, ref)
	assert.ErrorIs(t, err, simplemedia.ErrEmptyPayload)
}

func TestStore_UploadFailure(t *testing.T) {
	blob := &failingBlobStore{Backend: memorystorage.New(), uploadErr: errors.New("connection reset")}
	store := remote.New(blob, remote.WithBackendName("flaky"))

	ref, err := store.Upload(context.Background(), bytes.NewReader(jpegBytes), "a.jpg", "history")
	assert.Nil(t, ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, simplemedia.ErrUploadFailed)

	var storeErr *simplemedia.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "flaky", storeErr.Backend)
	assert.Equal(t, "upload", storeErr.Op)
	assert.Equal(t, 0, blob.Len())
}

func TestStore_UploadCancelled(t *testing.T) {
	blob := memorystorage.New()
	store := remote.New(blob, remote.WithTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, bytes.NewReader(jpegBytes), "a.jpg", "history")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, blob.Len())
}

func TestStore_Delete(t *testing.T) {
	blob := memorystorage.New()
	store := remote.New(blob)
	ctx := context.Background()

	ref, err := store.Upload(ctx, bytes.NewReader(jpegBytes), "a.jpg", "team/artistic")
	require.NoError(t, err)
	require.True(t, blob.Has(ref.ReferenceID))

	require.NoError(t, store.Delete(ctx, ref.ReferenceID))
	assert.False(t, blob.Has(ref.ReferenceID))

	// deleting again is not an error
	assert.NoError(t, store.Delete(ctx, ref.ReferenceID))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestStore_DeleteFailure(t *testing.T) {
	blob := &failingBlobStore{Backend: memorystorage.New(), deleteErr: errors.New("access denied")}
	store := remote.New(blob)

	err := store.Delete(context.Background(), "history/x.jpg")
	var storeErr *simplemedia.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "delete", storeErr.Op)
	assert.Equal(t, "history/x.jpg", storeErr.Key)
}

func TestStore_BuildURL(t *testing.T) {
	t.Run("with endpoint", func(t *testing.T) {
		store := remote.New(memorystorage.New(), remote.WithEngine(transform.NewEngine("https://media.example.com/studio")))
		got := store.BuildURL("/history/bg.jpg", transform.Options{Width: 300, Height: 200, Crop: "maintain_ratio"})
		assert.Equal(t, "https://media.example.com/studio/history/bg.jpg?tr:w-300,h-200,c-maintain_ratio", got)
	})

	t.Run("falls back to direct url", func(t *testing.T) {
		store := remote.New(memorystorage.NewWithBaseURL("https://files.example.com"))
		got := store.BuildURL("/history/bg.jpg", transform.Options{Width: 300})
		assert.Equal(t, "https://files.example.com/history/bg.jpg", got)
	})

	t.Run("empty path", func(t *testing.T) {
		store := remote.New(memorystorage.New())
		assert.Empty(t, store.BuildURL("", transform.Options{Width: 300}))
	})
}
