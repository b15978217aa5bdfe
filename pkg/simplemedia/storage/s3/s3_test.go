package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
	})

	t.Run("CustomEndpoint", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "media",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.NotNil(t, backend.client)
		assert.NotNil(t, backend.uploader)
	})
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "aws virtual host",
			config: Config{Bucket: "media", Region: "eu-west-1"},
			want:   "https://media.s3.eu-west-1.amazonaws.com/history/a.jpg",
		},
		{
			name:   "custom endpoint",
			config: Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000/"},
			want:   "http://localhost:9000/media/history/a.jpg",
		},
		{
			name:   "public base url wins",
			config: Config{Bucket: "media", Endpoint: "http://localhost:9000", PublicBaseURL: "https://files.example.com/"},
			want:   "https://files.example.com/history/a.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.config, "history/a.jpg"))
		})
	}
}

func TestResolverV2(t *testing.T) {
	r := &resolverV2{endpoint: "http://localhost:9000", region: "us-east-1"}

	ep, err := r.ResolveEndpoint(context.Background(), s3.EndpointParameters{
		Region: aws.String("us-east-1"),
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media", ep.URI.String())

	ep, err = r.ResolveEndpoint(context.Background(), s3.EndpointParameters{Region: aws.String("us-east-1")})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", ep.URI.String())
}

func TestApplySSE(t *testing.T) {
	b := &Backend{config: Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"}}
	input := &s3.PutObjectInput{}
	b.applySSE(input)
	assert.Equal(t, "key-1", aws.ToString(input.SSEKMSKeyId))

	b = &Backend{}
	input = &s3.PutObjectInput{}
	b.applySSE(input)
	assert.Empty(t, input.ServerSideEncryption)
}
