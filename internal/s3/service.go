package s3

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/academyhub/paycore/internal/config"
	ierr "github.com/academyhub/paycore/internal/errors"
)

const (
	defaultPresignExpiryDuration = 60 * time.Minute

	ContentTypePDF = "application/pdf"
)

// BlobStore stores generated documents such as payment invoices
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// URL returns a time limited download link for path
	URL(ctx context.Context, path string) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type s3BlobStore struct {
	client *s3.Client
	config config.S3Config
}

// NewBlobStore returns nil when S3 is disabled so callers can skip uploads
func NewBlobStore(cfg *config.Configuration) (BlobStore, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}

	awsCfg, err := config.LoadAwsConfig(context.Background(), cfg.S3.Region)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to load aws config").
			Mark(ierr.ErrConfiguration)
	}

	return &s3BlobStore{
		config: cfg.S3,
		client: s3.NewFromConfig(awsCfg),
	}, nil
}

func (s *s3BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.InvoiceBucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to upload document").
			WithMessagef("bucket:%s, key:%s", s.config.InvoiceBucket, path).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (s *s3BlobStore) URL(ctx context.Context, path string) (string, error) {
	duration := time.Duration(s.config.PresignExpiryDurationM) * time.Minute
	if duration <= 0 {
		duration = defaultPresignExpiryDuration
	}

	presigner := s3.NewPresignClient(s.client)
	result, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.InvoiceBucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("failed to get presigned url").
			WithMessagef("bucket:%s, key:%s", s.config.InvoiceBucket, path).
			Mark(ierr.ErrHTTPClient)
	}
	return result.URL, nil
}

func (s *s3BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.InvoiceBucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return false, nil
		}
		return false, ierr.WithError(err).
			WithHint("failed to check if document exists").
			Mark(ierr.ErrHTTPClient)
	}
	return true, nil
}
