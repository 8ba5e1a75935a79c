// Package storage manages generated artifacts after they are written: the
// optional S3 mirror, the retention sweeper and path resolution under the
// storage roots.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const pdfContentType = "application/pdf"

// S3Config configures the S3 mirror.
type S3Config struct {
	// Bucket is the S3 bucket name.
	Bucket string
	// Region is the AWS region.
	Region string
	// Prefix is the key prefix for all artifacts.
	Prefix string
	// Endpoint is an optional custom endpoint for S3-compatible services.
	Endpoint string
	// UsePathStyle forces path-style addressing (required for MinIO).
	UsePathStyle bool
}

// putObjectAPI is the subset of the S3 client the publisher needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads finalized documents to a bucket.
type S3Publisher struct {
	client putObjectAPI
	config S3Config
}

// NewS3Publisher creates a publisher using the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}
	return &S3Publisher{client: s3.NewFromConfig(awsCfg, s3Opts...), config: cfg}, nil
}

// Publish uploads the file at p under the key <prefix>/<name>.
func (s *S3Publisher) Publish(ctx context.Context, p, name string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("storage: publish %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("storage: publish %s: %w", name, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(s.key(name)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(pdfContentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put s3://%s/%s: %w", s.config.Bucket, s.key(name), err)
	}
	return nil
}

func (s *S3Publisher) key(name string) string {
	if s.config.Prefix == "" {
		return name
	}
	return path.Join(s.config.Prefix, name)
}
