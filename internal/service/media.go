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
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"chatwave/internal/config"
	"chatwave/internal/model"
)

const (
	maxImageSizeBytes = 10 << 20 // 10 MiB decoded

	avatarWidth  = 200
	avatarHeight = 200
	avatarFolder = "avatars"
	imageFolder  = "messages"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MediaService uploads images to an S3-compatible bucket (Cloudflare R2).
// Clients submit images as base64 data URIs; the service stores the decoded
// bytes and returns a public URL. PutObject is retried a bounded number of
// times with a fixed delay; exhausting the attempts fails the whole calling
// operation with nothing persisted.
type MediaService struct {
	s3Client    *s3.Client
	bucket      string
	publicURL   string
	maxAttempts int
	retryDelay  time.Duration
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:    s3Client,
		bucket:      cfg.R2BucketName,
		publicURL:   strings.TrimSuffix(cfg.R2PublicURL, "/"),
		maxAttempts: cfg.UploadMaxAttempts,
		retryDelay:  cfg.UploadRetryDelay,
	}, nil
}

// UploadImage stores a message attachment as-is and returns its public URL.
func (s *MediaService) UploadImage(ctx context.Context, dataURI string) (string, error) {
	data, contentType, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	key := fmt.Sprintf("%s/%s%s", imageFolder, uuid.NewString(), ext)
	if err := s.putObjectWithRetry(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

// UploadAvatar normalizes a profile picture to 200x200 JPEG before storing.
func (s *MediaService) UploadAvatar(ctx context.Context, dataURI string) (string, error) {
	data, contentType, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	if _, ok := allowedImageTypes[contentType]; !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	jpegBytes, err := resizeToJPEG(data, avatarWidth, avatarHeight, 85)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.jpg", avatarFolder, uuid.NewString())
	if err := s.putObjectWithRetry(ctx, key, jpegBytes, "image/jpeg"); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

// decodeDataURI splits "data:<type>;base64,<payload>" into bytes and type.
func decodeDataURI(dataURI string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, "", fmt.Errorf("image must be a base64 data URI")
	}

	meta, payload, ok := strings.Cut(dataURI[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	contentType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	if len(data) > maxImageSizeBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageSizeBytes)
	}
	return data, contentType, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// putObjectWithRetry uploads with bounded attempts and a fixed delay between
// them. The context cancels the wait as well as the upload itself.
func (s *MediaService) putObjectWithRetry(ctx context.Context, key string, body []byte, contentType string) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("[Media] upload attempt %d/%d failed: key=%s err=%v", attempt, s.maxAttempts, key, err)

		if attempt < s.maxAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", model.ErrUploadFailed, s.maxAttempts, lastErr)
}
