package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// defaultRegion skips the bucket location lookup on every request.
const defaultRegion = "us-east-1"

// MinIO stores attachments as objects in one bucket.
type MinIO struct {
	client  *miniogo.Client
	bucket  string
	baseURL string
	log     logger.Logger
}

// NewMinIO creates the client. baseURL overrides the public object URL
// prefix; when empty the endpoint URL plus bucket is used.
func NewMinIO(cfg config.MinIOConfig, baseURL string, log logger.Logger) (*MinIO, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + cfg.Bucket
	}

	return &MinIO{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With(logger.Component("attachment")),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}

	if err = m.client.MakeBucket(ctx, m.bucket, miniogo.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.log.Info("Created attachment bucket", logger.String("bucket", m.bucket))
	return nil
}

// Attach implements Store.
func (m *MinIO) Attach(ctx context.Context, f File) (string, error) {
	if err := f.validate(); err != nil {
		return "", err
	}

	key := f.key()
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		key,
		bytes.NewReader(f.Data),
		int64(len(f.Data)),
		miniogo.PutObjectOptions{
			ContentType: f.contentType(),
			UserMetadata: map[string]string{
				"entity-kind": f.EntityKind,
				"entity-id":   f.EntityID,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	m.log.Debug("Uploaded attachment",
		logger.String("object_key", key),
		logger.Int("size", len(f.Data)),
	)

	return m.baseURL + "/" + escapeKey(key), nil
}

// Remove implements Store.
func (m *MinIO) Remove(ctx context.Context, f File) error {
	if err := f.validateOwner(); err != nil {
		return err
	}
	key := f.key()
	if err := m.client.RemoveObject(ctx, m.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove attachment: %w", err)
	}
	m.log.Debug("Removed attachment", logger.String("object_key", key))
	return nil
}
