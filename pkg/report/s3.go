package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eunmann/gcpressure/pkg/sampler"
)

// PutObjectAPI is the subset of the S3 client used by S3Object.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Object uploads the CSV report to an S3 key, replacing any existing
// object.
type S3Object struct {
	client PutObjectAPI
	bucket string
	key    string
}

// NewS3Object creates a sink for an s3://bucket/key URI using the default
// AWS configuration chain.
func NewS3Object(ctx context.Context, uri string) (*S3Object, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewS3ObjectWithClient(s3.NewFromConfig(cfg), bucket, key), nil
}

// NewS3ObjectWithClient creates a sink with an explicit client.
func NewS3ObjectWithClient(client PutObjectAPI, bucket, key string) *S3Object {
	return &S3Object{client: client, bucket: bucket, key: key}
}

// Name returns the s3:// URI.
func (o *S3Object) Name() string {
	return "s3://" + o.bucket + "/" + o.key
}

// Write encodes the records in memory and uploads them in one PutObject.
func (o *S3Object) Write(ctx context.Context, records []sampler.SampleRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}

	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket),
		Key:           aws.String(o.key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", o.Name(), err)
	}
	return nil
}

// ParseS3URI parses an s3://bucket/key URI. The key is required.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	bucket, key, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.New("invalid S3 URI: missing object key")
	}
	return bucket, key, nil
}
