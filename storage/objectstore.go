package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig configures the optional S3-compatible artifact store
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// ObjectStoreConfigFromEnv reads the object-store settings from the
// environment. An empty endpoint means uploads are disabled.
func ObjectStoreConfigFromEnv() ObjectStoreConfig {
	return ObjectStoreConfig{
		Endpoint:  os.Getenv("TRAINER_S3_ENDPOINT"),
		AccessKey: os.Getenv("TRAINER_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("TRAINER_S3_SECRET_KEY"),
		Region:    envOr("TRAINER_S3_REGION", "us-east-1"),
		Bucket:    envOr("TRAINER_S3_BUCKET", "training-artifacts"),
		UseSSL:    os.Getenv("TRAINER_S3_USE_SSL") == "true",
	}
}

// Enabled reports whether an object store is configured
func (c ObjectStoreConfig) Enabled() bool { return c.Endpoint != "" }

// Validate checks the configuration for an enabled store
func (c ObjectStoreConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return fmt.Errorf("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("secret key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}

// Uploader copies run artifacts into an S3-compatible bucket
type Uploader struct {
	client *minio.Client
	bucket string
}

// NewUploader creates an uploader and makes sure the bucket exists
func NewUploader(ctx context.Context, cfg ObjectStoreConfig) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// UploadFile copies a local file into the bucket under key
func (u *Uploader) UploadFile(ctx context.Context, key, path, contentType string) error {
	_, err := u.client.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
