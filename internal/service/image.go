package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

const (
	imageKeyPrefix = "recipes"
	maxImageBytes  = 5 << 20
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// s3PutAPI is the part of the S3 client used for uploads
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads recipe images to an S3 bucket
type S3ImageStore struct {
	client    s3PutAPI
	bucket    string
	objectURL func(key string) string
}

// NewS3ImageStore creates an image store backed by the configured bucket
func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{
		client:    s3Config.Client,
		bucket:    s3Config.BucketName,
		objectURL: s3Config.ObjectURL,
	}
}

// Save uploads the image under recipes/<uuid>.<ext> and returns its public URL
func (s *S3ImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	key := path.Join(imageKeyPrefix, imageName(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.objectURL(key)
	logging.Ctx(ctx).Info().Str("url", url).Msg("uploaded recipe image to S3")
	return url, nil
}

// DiskImageStore writes recipe images below a local media directory
type DiskImageStore struct {
	dir       string
	urlPrefix string
}

// NewDiskImageStore stores files in dir/recipes and serves them under urlPrefix/recipes
func NewDiskImageStore(dir, urlPrefix string) (*DiskImageStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, imageKeyPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskImageStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *DiskImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	name := imageName(contentType)
	if err := os.WriteFile(filepath.Join(s.dir, imageKeyPrefix, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	url := s.urlPrefix + "/" + imageKeyPrefix + "/" + name
	logging.Ctx(ctx).Info().Str("url", url).Msg("stored recipe image on disk")
	return url, nil
}

func imageName(contentType string) string {
	return uuid.NewString() + "." + imageExtensions[contentType]
}

// decodeDataURI decodes data:image/<type>;base64,<payload> and sniffs the payload type
func decodeDataURI(raw string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", errors.New("image must be a base64 data URI or an http(s) URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.New("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fmt.Errorf("unsupported image type %s", contentType)
	}
	return data, contentType, nil
}
