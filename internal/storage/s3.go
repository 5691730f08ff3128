package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// ArchiveConfig holds configuration for the transcript archive
type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// TranscriptArchive stores raw transcript payloads in S3-compatible
// storage, keyed by video id. The pipeline writes to it; the raw
// transcript endpoint reads it back.
type TranscriptArchive struct {
	client *s3.Client
	bucket string
}

// NewTranscriptArchive creates a TranscriptArchive with the given configuration
func NewTranscriptArchive(ctx context.Context, cfg ArchiveConfig) (*TranscriptArchive, error) {
	// Custom resolver for S3-compatible endpoints (MinIO, RustFS)
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &TranscriptArchive{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Store uploads the raw transcript payload for a video, overwriting any
// previous archive of the same id.
func (a *TranscriptArchive) Store(ctx context.Context, videoID string, payload []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(archiveKey(videoID)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store transcript archive: %w", err)
	}
	return nil
}

// Fetch returns the archived raw transcript payload of a video. A video
// that was never archived reports domain.ErrArchivedTranscriptNotFound.
func (a *TranscriptArchive) Fetch(ctx context.Context, videoID string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(archiveKey(videoID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrArchivedTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to fetch transcript archive: %w", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("failed to read transcript archive: %w", err)
	}
	return buf.Bytes(), nil
}

// EnsureBucket creates the archive bucket if it doesn't exist
func (a *TranscriptArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func archiveKey(videoID string) string {
	return "transcripts/" + videoID + ".json"
}
