package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rentalintel/internal/jsonutil"
	"rentalintel/internal/types"
)

// S3Config configures the optional report archive (S3 or MinIO).
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Archive mirrors every report into object storage, one JSON object and
// one rendered text summary per run. Archival is best-effort and sits
// behind the primary store.
type S3Archive struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewS3Archive(cfg S3Config) (*S3Archive, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Archive{client: client, bucket: bucket, region: region}, nil
}

func (a *S3Archive) ensureBucket(ctx context.Context) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("archive is nil")
	}
	a.initOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.initErr = err
			return
		}
		if exists {
			return
		}
		a.initErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
	})
	return a.initErr
}

// Archive stores the report JSON plus an optional rendered summary under
// reports/<run-id>/.
func (a *S3Archive) Archive(ctx context.Context, r types.Report, summary string) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	b, err := jsonutil.MarshalNoEscapeIndent(r, "", "  ")
	if err != nil {
		return err
	}
	key := "reports/" + r.RunID + "/report.json"
	if _, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(b), int64(len(b)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("archive report %s: %w", r.RunID, err)
	}
	if summary == "" {
		return nil
	}
	key = "reports/" + r.RunID + "/summary.txt"
	if _, err := a.client.PutObject(ctx, a.bucket, key, strings.NewReader(summary), int64(len(summary)),
		minio.PutObjectOptions{ContentType: "text/plain"}); err != nil {
		return fmt.Errorf("archive summary %s: %w", r.RunID, err)
	}
	return nil
}
