package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	a "bitwise74/rental-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

var (
	ErrImageTooLarge = errors.New("image exceeds the upload limit")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
)

// Images stores item pictures and hands back their public URLs
type Images interface {
	Upload(ctx context.Context, ownerID string, r io.Reader) (string, error)
	Delete(ctx context.Context, urls []string)
}

type objectAPI interface {
	manager.UploadAPIClient
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3Images struct {
	api       objectAPI
	uploader  *manager.Uploader
	bucket    *string
	publicURL string
	maxSize   int64
}

func NewS3Images(c *a.S3Client, publicURL string, maxSize int64) *S3Images {
	return newS3Images(c.C, c.Bucket, publicURL, maxSize)
}

func newS3Images(api objectAPI, bucket *string, publicURL string, maxSize int64) *S3Images {
	return &S3Images{
		api: api,
		uploader: manager.NewUploader(api, func(u *manager.Uploader) {
			u.Concurrency = 2
		}),
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		maxSize:   maxSize,
	}
}

// Upload sniffs the content, rejects anything that isn't an image and stores
// it under items/<owner>/
func (u *S3Images) Upload(ctx context.Context, ownerID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image, %w", err)
	}

	if int64(len(data)) > u.maxSize {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotAnImage
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate image key, %w", err)
	}

	key := fmt.Sprintf("items/%s/%s%s", ownerID, id, mt.Extension())

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       u.bucket,
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mt.String()),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to s3, %w", err)
	}

	return u.publicURL + "/" + key, nil
}

// Delete removes the objects behind urls that live in our bucket. It's best
// effort, failures are only logged
func (u *S3Images) Delete(ctx context.Context, urls []string) {
	prefix := u.publicURL + "/"

	var keys []string
	for _, url := range urls {
		if key, ok := strings.CutPrefix(url, prefix); ok && key != "" {
			keys = append(keys, key)
		}
	}

	// S3 can delete at most 1000 files in one batch request
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))

		objects := make([]types.ObjectIdentifier, end-start)
		for i, key := range keys[start:end] {
			objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		_, err := u.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: u.bucket,
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			zap.L().Error("Failed to delete images from S3", zap.Error(err), zap.Int("count", len(objects)))
		}
	}
}
