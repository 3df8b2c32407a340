package interactionlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/pgzip"
)

// ObjectPutter is the subset of the S3 client used by the archive sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives each entry as a gzip JSON object.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Client loads the default AWS config for region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// NewS3Sink constructs an archive sink. Keys are prefix/YYYY/MM/DD/<id>.json.gz.
func NewS3Sink(client ObjectPutter, bucket, prefix string) (*S3Sink, error) {
	if client == nil {
		return nil, errors.New("interactionlog: nil s3 client")
	}
	if bucket == "" {
		return nil, errors.New("interactionlog: empty bucket")
	}
	if prefix == "" {
		prefix = "interactions"
	}
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Name implements Sink.
func (s *S3Sink) Name() string { return "s3" }

// Key returns the object key for an entry.
func (s *S3Sink) Key(entry Entry) string {
	ts := entry.Timestamp.UTC()
	return path.Join(s.prefix, ts.Format("2006"), ts.Format("01"), ts.Format("02"), entry.ID+".json.gz")
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, entry Entry) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: s3 sink not initialized", ErrLogFailure)
	}
	body, err := compressEntry(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(s.Key(entry)),
		Body:            bytes.NewReader(body),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	return nil
}

func compressEntry(entry Entry) ([]byte, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
