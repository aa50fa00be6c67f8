package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// Folder groups uploaded objects by what they illustrate.
type Folder string

const (
	FolderBusinesses Folder = "businesses"
	FolderReviews    Folder = "reviews"
	FolderForum      Folder = "forum"
)

func (f Folder) Valid() bool {
	switch f {
	case FolderBusinesses, FolderReviews, FolderForum:
		return true
	}
	return false
}

// AllowedImageTypes are the only content types a client may upload.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var (
	ErrUnsupportedContentType = apperrors.Validation(apperrors.UploadInvalidContentType, "only jpeg, png, webp and gif images can be uploaded")
	ErrUnknownFolder          = apperrors.Validation(apperrors.UploadInvalidFolder, "folder must be businesses, reviews or forum")
)

type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	PresignExpiry   time.Duration
}

type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
	expiry  time.Duration
	log     *logger.Logger
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(ctx context.Context, cfg Config, log *logger.Logger) *S3Storage {
	log = log.Component("s3_storage")

	var awsCfg aws.Config
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		// Default credential chain (environment, ~/.aws/credentials, IAM role)
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			log.Warn("Failed to load default AWS config, falling back to region only", logger.Fields{
				"error": err.Error(),
			})
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		expiry:  expiry,
		log:     log,
	}
}

// PresignUpload returns a PUT URL for a new object under folder. The object
// key is random and its extension follows the content type, never filename.
func (s *S3Storage) PresignUpload(ctx context.Context, folder Folder, filename, contentType string) (*PresignedURLResponse, error) {
	if !folder.Valid() {
		return nil, ErrUnknownFolder
	}
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedContentType
	}

	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.log.Error("Failed to presign upload", err, logger.Fields{"key": key})
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	s.log.Debug("Presigned upload URL generated", logger.Fields{
		"key":          key,
		"filename":     filename,
		"content_type": contentType,
	})

	return &PresignedURLResponse{
		UploadURL: req.URL,
		FileURL:   s.FileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

// FileURL is the public URL an uploaded object is served from.
func (s *S3Storage) FileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}
