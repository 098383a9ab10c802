package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/utils"
)

// allowed image content types for product uploads.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MediaService uploads product images to S3 and returns their public URL.
type MediaService struct {
	client *s3.Client
	bucket string
	region string
}

// NewMediaService builds the S3 client from the ambient AWS credential chain.
func NewMediaService(ctx context.Context, region, bucket string) (*MediaService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &MediaService{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// UploadProductImage stores one product image under products/<id>/ and
// returns its URL. The caller persists the URL on the variant.
func (s *MediaService) UploadProductImage(ctx context.Context, productID int, contentType string, body io.Reader) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", &utils.ValidationError{Field: "image", Message: "unsupported image type " + contentType}
	}

	key := path.Join("products", fmt.Sprintf("%d", productID), uuid.New().String()+ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	log.Info().Int("product_id", productID).Str("key", key).Msg("Product image uploaded")
	return url, nil
}
