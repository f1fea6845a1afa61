package s3blob

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"https://e2.example.com", false, "https://e2.example.com"},
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseEndpoint(tt.in, tt.useSSL), tt.in)
	}
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrap: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(statusErr(404)))
	assert.False(t, isNotFound(statusErr(500)))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestNew_RequiresBucketAndRegion(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	require.Error(t, err)
	_, err = New(context.Background(), ClientConfig{Bucket: "b"})
	require.Error(t, err)
}
