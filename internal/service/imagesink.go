package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/wellmirror/backend/config"
)

// NewImageSink picks the durable S3 sink when a bucket is configured and the
// inline data-URL sink otherwise. A missing sink is never a nil check at call
// sites; the data-URL sink is the explicit degraded variant.
func NewImageSink(s3cfg *config.S3Config) ImageSink {
	if s3cfg == nil {
		return &DataURLSink{}
	}
	return &S3ImageSink{s3cfg: s3cfg}
}

// presignedURLTTL bounds how long a stored image stays fetchable by clients
const presignedURLTTL = 24 * time.Hour

// S3ImageSink writes generated images to S3 and returns a presigned URL so
// clients can fetch them from a private bucket
type S3ImageSink struct {
	s3cfg *config.S3Config
}

var _ ImageSink = (*S3ImageSink)(nil)

// Store uploads the image and returns a presigned URL for it
func (s *S3ImageSink) Store(ctx context.Context, image []byte) (string, error) {
	key := fmt.Sprintf("%sfuture-%s.png",
		ensureTrailingSlash(s.s3cfg.KeyPrefix), uuid.New().String())

	_, err := s.s3cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url, err := s.s3cfg.GeneratePresignedURL(ctx, key, presignedURLTTL)
	if err != nil {
		// The object is uploaded; fall back to its plain URL
		log.Printf("[ImageSink] Presign failed for %s: %v", key, err)
		url = fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3cfg.BucketName, key)
	}

	log.Printf("[ImageSink] Uploaded generated image to s3://%s/%s", s.s3cfg.BucketName, key)
	return url, nil
}

// DataURLSink returns the image inline as a self-contained data URL, usable
// directly by a display layer when no durable sink is configured
type DataURLSink struct{}

var _ ImageSink = (*DataURLSink)(nil)

// Store encodes the image as a base64 data URL
func (s *DataURLSink) Store(_ context.Context, image []byte) (string, error) {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image), nil
}

func ensureTrailingSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}
