package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/errors"
)

type fakeS3 struct {
	objects map[string]string
	err     error
	lastKey string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(strings.NewReader(body)),
		ContentType: aws.String("text/plain"),
	}, nil
}

func TestFetch(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"resumes/jane.txt": "Jane Doe"}}
	f := newFetcher(client, "bucket", 0)

	obj, err := f.Fetch(context.Background(), "resumes/jane.txt")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, "resumes/jane.txt", client.lastKey)
}

func TestFetchErrors(t *testing.T) {
	f := newFetcher(&fakeS3{objects: map[string]string{"big": strings.Repeat("x", 11)}}, "bucket", 10)

	_, err := f.Fetch(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	_, err = f.Fetch(context.Background(), "big")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))

	f = newFetcher(&fakeS3{err: fmt.Errorf("connection reset")}, "bucket", 0)
	_, err = f.Fetch(context.Background(), "any")
	assert.True(t, errors.HasCode(err, errors.ErrCodeBlobFailed))
}

func TestNewS3FetcherRequiresBucket(t *testing.T) {
	_, err := NewS3Fetcher(context.Background(), Config{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestNewS3FetcherStaticCredentials(t *testing.T) {
	f, err := NewS3Fetcher(context.Background(), Config{
		Bucket:    "resumes",
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "resumes", f.bucket)
	assert.Equal(t, DefaultMaxSize, f.maxSize)
}
