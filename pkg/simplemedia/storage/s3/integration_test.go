//go:build integration

package s3

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Runs against MinIO by default: docker run -p 9000:9000 minio/minio server /data
func newIntegrationBackend(t *testing.T) *Backend {
	t.Helper()
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	backend, err := New(Config{
		Region:                 "us-east-1",
		Bucket:                 "simple-media-test",
		AccessKeyID:            "minioadmin",
		SecretAccessKey:        "minioadmin",
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	if err != nil {
		t.Skipf("S3 endpoint not available: %v", err)
	}
	return backend
}

func TestIntegration_UploadListDelete(t *testing.T) {
	backend := newIntegrationBackend(t)
	ctx := context.Background()
	prefix := "it-" + uuid.NewString() + "/"
	key := prefix + "programs/concert/poster.jpg"

	err := backend.UploadWithParams(ctx, strings.NewReader("jpeg bytes"), simplemedia.UploadParams{
		ObjectKey: key,
		MimeType:  "image/jpeg",
	})
	require.NoError(t, err)

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("jpeg bytes")), meta.Size)
	assert.Equal(t, "image/jpeg", meta.ContentType)

	objects, err := backend.List(ctx, prefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.GetObjectMeta(ctx, key)
	assert.ErrorIs(t, err, simplemedia.ErrObjectNotFound)

	// Deleting an absent key is not an error
	require.NoError(t, backend.Delete(ctx, key))
}
