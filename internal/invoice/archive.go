package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
)

// Archiver keeps a copy of generated invoice documents.
type Archiver interface {
	Archive(ctx context.Context, doc *Document) (string, error)
}

// ObjectPutter is the subset of *s3.Client used by S3Archive.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores invoices in an S3-compatible bucket under
// "invoices/{YYYY-MM-DD}/{uuid}-{filename}". Every call writes a new object,
// so batches sharing a filename never overwrite each other.
type S3Archive struct {
	client ObjectPutter
	bucket string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("invoice archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint))
		}
	})

	return NewS3ArchiveWithClient(client, cfg.Bucket, logger), nil
}

func NewS3ArchiveWithClient(client ObjectPutter, bucket string, logger *zap.Logger) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (a *S3Archive) Archive(ctx context.Context, doc *Document) (string, error) {
	key := a.key(doc.Filename)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(doc.Data),
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(int64(len(doc.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	a.logger.Info("invoice archived", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("bytes", len(doc.Data)))
	return key, nil
}

func (a *S3Archive) key(filename string) string {
	day := a.now().UTC().Format(time.DateOnly)
	return path.Join("invoices", day, a.newID()+"-"+filename)
}

func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
