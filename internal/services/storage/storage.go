// Package storage uploads processed videos to S3-compatible object
// storage. Credentials come from the standard AWS environment variables;
// endpoint, bucket, and key prefix come from pipeline configuration.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gavel/internal/config"
)

// Credentials holds the AWS access keys read from the environment.
type Credentials struct {
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID" required:"true"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY" required:"true"`
}

// objectPutter is the subset of the minio client the uploader needs;
// narrowed for testing.
type objectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader stores video files in an S3 bucket.
type Uploader struct {
	client objectPutter
	bucket string
	prefix string
}

// NewUploader builds an Uploader from pipeline configuration plus AWS
// credentials in the environment.
func NewUploader(cfg *config.Config) (*Uploader, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("load S3 credentials: %w", err)
	}

	endpoint := cfg.S3.Endpoint
	secure := true
	if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.S3.Bucket,
		prefix: cfg.S3.Prefix,
	}, nil
}

// Key returns the object key for a local video path.
func (u *Uploader) Key(videoPath string) string {
	return u.prefix + filepath.Base(videoPath)
}

// Bucket returns the configured bucket name.
func (u *Uploader) Bucket() string {
	return u.bucket
}

// Upload stores the file at videoPath and returns its object key.
func (u *Uploader) Upload(ctx context.Context, videoPath string) (string, error) {
	key := u.Key(videoPath)
	_, err := u.client.FPutObject(ctx, u.bucket, key, videoPath, minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(videoPath), err)
	}
	return key, nil
}
