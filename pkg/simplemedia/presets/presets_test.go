package presets

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/transform"
)

func imagePayload(name string) simplemedia.Payload {
	data := []byte("\x89PNG\r\n\x1a\n fake image body")
	return simplemedia.Payload{
		FileName: name,
		MimeType: "image/png",
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestNewTesting(t *testing.T) {
	t.Run("empty service", func(t *testing.T) {
		svc := NewTesting(t)
		founder, err := svc.GetSingleton(context.Background(), simplemedia.KindFounder)
		require.NoError(t, err)
		assert.Nil(t, founder)
	})

	t.Run("with fixtures", func(t *testing.T) {
		svc := NewTesting(t, WithTestFixtures())
		ctx := context.Background()

		founder, err := svc.GetSingleton(ctx, simplemedia.KindFounder)
		require.NoError(t, err)
		require.NotNil(t, founder)
		assert.Equal(t, "fixtures", founder.Base().CreatedBy)

		published := simplemedia.StatusPublished
		events, err := svc.List(ctx, simplemedia.ListRequest{Kind: simplemedia.KindEvent, Status: &published})
		require.NoError(t, err)
		assert.Len(t, events, 1)

		programs, err := svc.List(ctx, simplemedia.ListRequest{Kind: simplemedia.KindProgram, Status: &published})
		require.NoError(t, err)
		assert.Empty(t, programs)
	})

	t.Run("uploads resolve test addresses", func(t *testing.T) {
		svc := NewTesting(t)
		result, err := svc.Create(context.Background(), simplemedia.CreateRequest{
			Kind:    simplemedia.KindTeam,
			Fields:  []byte(`{"name":"Ana","role":"Coach","department":"teaching"}`),
			Uploads: simplemedia.Uploads{simplemedia.SlotImage: {imagePayload("ana.png")}},
		})
		require.NoError(t, err)

		member := result.Entity.(*simplemedia.TeamMember)
		require.NotNil(t, member.Image)
		assert.True(t, strings.HasPrefix(member.Image.URL, TestBaseURL+"/team/teaching/"), member.Image.URL)

		url := svc.BuildURL(member.Image.StoredPath, transform.Options{Width: 100})
		assert.True(t, strings.HasPrefix(url, TestMediaEndpoint+"/team/teaching/"), url)
	})
}

func TestNewDevelopment(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dev-data")
	svc, cleanup, err := NewDevelopment(WithDevStorage(dir))
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	result, err := svc.SaveSingleton(context.Background(), simplemedia.SingletonRequest{
		Kind:    simplemedia.KindHistory,
		Fields:  []byte(`{"title":"Our Story"}`),
		Uploads: simplemedia.Uploads{simplemedia.SlotImage: {imagePayload("cover.png")}},
	})
	require.NoError(t, err)
	assert.True(t, result.Created)

	page := result.Entity.(*simplemedia.HistoryPage)
	require.NotNil(t, page.Image)
	assert.True(t, strings.HasPrefix(page.Image.URL, "/media/history/"), page.Image.URL)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(page.Image.ReferenceID)))
	require.NoError(t, err, "uploaded file should exist on disk")

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "storage directory should be removed after cleanup")
}
