package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kce-spotlight/console/internal/config"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive copies generated workbooks to S3-compatible storage. A nil
// *Archive is valid and archives nothing.
type Archive struct {
	client s3Client
	bucket string
	logger *slog.Logger
}

// NewArchive returns nil when S3 is not configured.
func NewArchive(cfg config.S3Config, logger *slog.Logger) *Archive {
	if !cfg.Configured() {
		return nil
	}
	return &Archive{client: newS3Client(cfg), bucket: cfg.Bucket, logger: logger}
}

func newS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Key is the object key for one archived export.
func Key(resource string) string {
	return fmt.Sprintf("exports/%s/%s.xlsx", resource, uuid.NewString())
}

// Store uploads the file and returns its object key.
func (a *Archive) Store(ctx context.Context, f *File) (string, error) {
	if a == nil {
		return "", nil
	}
	key := Key(f.Resource)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Data),
		ContentLength: aws.Int64(int64(len(f.Data))),
		ContentType:   aws.String(ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if a.logger != nil {
		a.logger.Info("export archived", "resource", f.Resource, "key", key, "bytes", len(f.Data))
	}
	return key, nil
}
