package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for the S3 archive.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint     string
	UsePathStyle bool
}

// PutObjectAPI is the subset of the S3 client used by the archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores reports in a bucket.
type S3Archive struct {
	client     PutObjectAPI
	bucket     string
	prefix     string
	maxRetries int
	backoff    time.Duration
}

// NewS3Archive loads the default AWS configuration and builds a client.
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive: empty bucket")
	}
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3ArchiveWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiveWithClient builds an archive on a pre-configured client.
func NewS3ArchiveWithClient(client PutObjectAPI, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix, maxRetries: 3, backoff: 100 * time.Millisecond}
}

func (a *S3Archive) Backend() string { return BackendS3 }

// Put uploads body with exponential backoff between attempts.
func (a *S3Archive) Put(ctx context.Context, key, contentType string, body []byte) (location string, err error) {
	defer func() { observe(BackendS3, err) }()
	objectKey := path.Join(a.prefix, key)
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return "", err
		}
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err == nil {
			return fmt.Sprintf("s3://%s/%s", a.bucket, objectKey), nil
		}
		if attempt < a.maxRetries {
			wait := time.Duration(math.Pow(2, float64(attempt))) * a.backoff
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return "", fmt.Errorf("archive: put %s: %w", objectKey, err)
}
