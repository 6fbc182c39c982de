// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
)

const (
	productImageFolder = "products"
	// LocalURLPrefix is where the router serves the upload directory.
	LocalURLPrefix = "/uploads"
)

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// ImageStore persists product images and returns the reference stored on the product.
type ImageStore interface {
	SaveProductImage(ctx context.Context, upload Upload) (string, error)
	DeleteImage(ctx context.Context, ref string) error
}

type StorageService struct {
	s3Client  *s3.S3
	aws       config.AWSConfig
	uploadDir string
	maxSize   int64
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	s := &StorageService{
		aws:       cfg.AWS,
		uploadDir: cfg.Server.UploadDir,
		maxSize:   int64(cfg.Server.MaxUploadMB) * 1024 * 1024,
	}

	if !cfg.AWS.Enabled() {
		// Images go to the local upload directory
		return s, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

func (s *StorageService) SaveProductImage(ctx context.Context, upload Upload) (string, error) {
	// Validate file size
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", apperror.Validation(i18n.KeyFileTooLarge)
	}

	// Validate file type
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !lo.Contains(allowedImageExtensions, ext) {
		return "", apperror.Validation(i18n.KeyFileInvalidType)
	}

	// Read one byte past the limit so oversized bodies with a lying header are caught
	limit := s.maxSize
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	fileBytes, err := io.ReadAll(io.LimitReader(upload.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(fileBytes)) > limit {
		return "", apperror.Validation(i18n.KeyFileTooLarge)
	}
	if !isValidImageType(fileBytes) {
		return "", apperror.Validation(i18n.KeyFileInvalidType)
	}

	key := generateFileName(ext, productImageFolder)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, fileBytes, key, upload.ContentType)
	}
	return s.uploadToLocal(fileBytes, key)
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		ACL:           aws.String("public-read"),
	}
	if contentType != "" {
		params.ContentType = aws.String(contentType)
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key string) (string, error) {
	target := filepath.Join(s.uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(target, fileBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path.Join(LocalURLPrefix, key), nil
}

// DeleteImage removes a previously stored image. References this service did not
// produce are ignored.
func (s *StorageService) DeleteImage(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	if s.s3Client == nil {
		key, ok := strings.CutPrefix(ref, LocalURLPrefix+"/")
		if !ok || strings.Contains(key, "..") {
			return nil
		}
		err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(key)))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	key, ok := strings.CutPrefix(ref, s.baseURL()+"/")
	if !ok {
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	logrus.WithField("key", key).Debug("Deleted image from S3")
	return nil
}

func generateFileName(ext, folder string) string {
	// Create filename with timestamp and UUID
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) baseURL() string {
	if s.aws.CloudFrontURL != "" {
		return strings.TrimSuffix(s.aws.CloudFrontURL, "/")
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.aws.S3Bucket, s.aws.Region)
}

func (s *StorageService) getS3URL(key string) string {
	return s.baseURL() + "/" + key
}

// isValidImageType checks the file signature.
func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && bytes.Equal(buffer[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}) {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	// WebP
	if len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}
