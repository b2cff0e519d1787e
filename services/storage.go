// services/storage.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const signedURLExpiry = time.Hour

// Storage wraps the S3 client for certificate and post image blobs. When no
// bucket is configured every upload falls back to local disk and signing is
// a no-op.
type Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
}

// Blobs is the process-wide storage handle, configured from the environment
// in main.
var Blobs = &Storage{}

// NewStorage builds a storage handle from AWS_REGION and AWS_S3_BUCKET.
// Static credentials are used when provided, otherwise the default chain.
func NewStorage(ctx context.Context) (*Storage, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-south-1"
	}
	bucket := os.Getenv("AWS_S3_BUCKET")
	if bucket == "" {
		return &Storage{region: region}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  region,
	}, nil
}

// Enabled reports whether a bucket is configured.
func (s *Storage) Enabled() bool {
	return s.bucket != ""
}

// Upload puts a blob under the given key and returns its public URL.
func (s *Storage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes a blob. Best-effort callers log and continue on error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// PublicURL builds the virtual-hosted-style URL for a key.
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, url.PathEscape(key))
}

// KeyFromURL extracts the object key when the URL points at the configured
// bucket. Returns false for local paths and foreign URLs.
func (s *Storage) KeyFromURL(raw string) (string, bool) {
	if s.bucket == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if !strings.Contains(u.Host, s.bucket+".s3.") {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return "", false
	}
	return key, true
}

// SignIfOwned issues a time-limited read URL for blobs in the configured
// bucket. Unrecognized URLs and signing failures return the input unchanged;
// signing errors never block a response.
func (s *Storage) SignIfOwned(ctx context.Context, raw string) string {
	key, ok := s.KeyFromURL(raw)
	if !ok {
		return raw
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(signedURLExpiry))
	if err != nil {
		log.Printf("[s3] failed to sign url for %s: %v", key, err)
		return raw
	}
	return req.URL
}
