package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Vault stores catalog snapshots in an S3 bucket under
// <prefix>/snapshots/<hostID>.db, with a sibling .version object as the
// version marker. Uploads go through the multipart upload manager so large
// catalogs stream without buffering in memory.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Vault creates an S3 vault. When accessKey is non-empty, static
// credentials are used; otherwise the default AWS credential chain applies.
func NewS3Vault(name, bucket, prefix, region, accessKey, secretKey string) (*S3Vault, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// snapshotKey returns the object key for a host's snapshot.
func (v *S3Vault) snapshotKey(hostID string) string {
	return path.Join(v.prefix, "snapshots", hostID+".db")
}

// versionKey returns the object key for a host's version marker.
func (v *S3Vault) versionKey(hostID string) string {
	return path.Join(v.prefix, "snapshots", hostID+".version")
}

// PutSnapshot uploads the snapshot, then the version marker. The marker is
// written last so a crashed upload never advertises a version it lacks.
func (v *S3Vault) PutSnapshot(hostID string, r io.Reader, size int64, version int64) error {
	ctx := context.Background()

	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(v.bucket),
		Key:           aws.String(v.snapshotKey(hostID)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}

	versionData := strconv.FormatInt(version, 10)
	_, err = v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.versionKey(hostID)),
		Body:   strings.NewReader(versionData),
	})
	if err != nil {
		return fmt.Errorf("uploading version marker: %w", err)
	}

	return nil
}

// GetSnapshot downloads the snapshot for a host and writes it to w.
func (v *S3Vault) GetSnapshot(hostID string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.snapshotKey(hostID)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return fmt.Errorf("no snapshot stored for host: %s", hostID)
		}
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion reads the version marker, or returns 0 if none exists.
func (v *S3Vault) SnapshotVersion(hostID string) (int64, error) {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.versionKey(hostID)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("downloading version marker: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, fmt.Errorf("reading version marker: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies the bucket is reachable with the configured credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket not accessible: %w", err)
	}
	return nil
}

// Compile-time check that S3Vault implements Vault interface
var _ Vault = (*S3Vault)(nil)
