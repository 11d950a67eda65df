// Package blob fetches uploaded resume files from S3 compatible object
// storage.
package blob

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"resumescore/internal/errors"
)

// DefaultMaxSize caps how much of an object is read.
const DefaultMaxSize int64 = 10 << 20

// Config describes the bucket and credentials.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
	MaxSize   int64
}

// Object is a downloaded file.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Fetcher downloads objects by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*Object, error)
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher implements Fetcher on an S3 bucket.
type S3Fetcher struct {
	client  objectGetter
	bucket  string
	maxSize int64
}

// NewS3Fetcher builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Fetcher(ctx context.Context, cfg Config) (*S3Fetcher, error) {
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "blob bucket is required", nil)
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newFetcher(client, cfg.Bucket, cfg.MaxSize), nil
}

func newFetcher(client objectGetter, bucket string, maxSize int64) *S3Fetcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &S3Fetcher{client: client, bucket: bucket, maxSize: maxSize}
}

// Fetch downloads key. Objects over the size limit are rejected.
func (f *S3Fetcher) Fetch(ctx context.Context, key string) (*Object, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if stderrors.As(err, &noSuchKey) {
			return nil, errors.NewStorageError(errors.ErrCodeNotFound, "object not found", err).
				WithContext("key", key)
		}
		return nil, errors.NewNetworkError(errors.ErrCodeBlobFailed, "failed to get object", err).
			WithContext("key", key)
	}
	defer func() { _ = out.Body.Close() }()

	if out.ContentLength != nil && *out.ContentLength > f.maxSize {
		return nil, tooLarge(key, f.maxSize)
	}

	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(out.Body, f.maxSize+1))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeBlobFailed, "failed to read object body", err).
			WithContext("key", key)
	}
	if n > f.maxSize {
		return nil, tooLarge(key, f.maxSize)
	}

	return &Object{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Data:        buf.Bytes(),
	}, nil
}

func tooLarge(key string, limit int64) error {
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("object exceeds the %d byte limit", limit), nil).
		WithContext("key", key)
}
