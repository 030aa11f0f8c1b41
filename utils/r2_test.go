package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = *in.Bucket
	f.key = *in.Key
	f.contentType = *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestR2Uploader_Upload(t *testing.T) {
	fake := &fakePutter{}
	u := NewR2UploaderWithClient(fake, "reports", "https://cdn.example.com/")

	url, err := u.Upload(context.Background(), "reports/churn.csv", "text/csv", []byte("a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/reports/churn.csv", url)
	assert.Equal(t, "reports", fake.bucket)
	assert.Equal(t, "reports/churn.csv", fake.key)
	assert.Equal(t, "text/csv", fake.contentType)
	assert.Equal(t, "a,b\n", string(fake.body))
}

func TestR2Uploader_UploadError(t *testing.T) {
	u := NewR2UploaderWithClient(&fakePutter{err: errors.New("denied")}, "reports", "https://cdn.example.com")

	_, err := u.Upload(context.Background(), "k", "text/csv", nil)
	assert.ErrorContains(t, err, "denied")
}
