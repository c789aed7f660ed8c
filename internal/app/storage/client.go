package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"vcturbo/internal/pkg/logx"
)

// s3Client implements StorageService against an S3-compatible endpoint.
type s3Client struct {
	cfg     ServiceConfig
	presign *s3.PresignClient
	logger  zerolog.Logger
}

func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:     cfg,
		presign: s3.NewPresignClient(client),
		logger:  logx.Component("storage"),
	}, nil
}

// PresignUpload signs a PUT of exactly fileSize bytes of mimeType to key.
func (c *s3Client) PresignUpload(
	ctx context.Context,
	key string,
	mimeType string,
	fileSize int64,
	duration time.Duration,
) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.S3BucketName),
		Key:           aws.String(key),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(fileSize),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to generate presigned upload URL")
		return "", errors.Wrapf(err, "presign upload of %s", key)
	}

	return req.URL, nil
}

func (c *s3Client) PublicURL(key string) string {
	return c.cfg.S3PublicBaseURL + "/" + key
}
