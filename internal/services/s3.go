package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

const maxPhotoSize = 10 * 1024 * 1024

type S3Service struct {
	client     *s3.S3
	bucketName string
	region     string
}

func NewS3Service(region, bucketName, accessKey, secretKey string) (*S3Service, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3Service{
		client:     s3.New(sess),
		bucketName: bucketName,
		region:     region,
	}, nil
}

type UploadResult struct {
	Key         string
	URL         string
	FileName    string
	ContentType string
	Size        int64
}

func (s *S3Service) UploadImage(file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	contentType, err := validateImage(header)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reviews/photos/%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String(), filepath.Ext(header.Filename))

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(buffer.Bytes()),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %v", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}, nil
}

func (s *S3Service) DeleteImage(key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	return err
}

// validateImage returns the image content type of header, falling back to the file extension.
func validateImage(header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExtension(header.Filename)
	}
	if !isValidImageType(contentType) {
		return "", fmt.Errorf("invalid file type: %s", contentType)
	}
	if header.Size > maxPhotoSize {
		return "", fmt.Errorf("file size too large: %d bytes (max: %d bytes)", header.Size, maxPhotoSize)
	}
	return contentType, nil
}

func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, validType := range validTypes {
		if strings.EqualFold(contentType, validType) {
			return true
		}
	}
	return false
}

func contentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
