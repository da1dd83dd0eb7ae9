package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	UsePathStyle    bool
	// PublicBaseURL is what clients use to fetch objects, e.g. a CDN or bucket URL.
	PublicBaseURL string
}

// S3Store uploads avatars to an S3-compatible bucket (AWS, MinIO, R2).
type S3Store struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
	lg      zerolog.Logger
}

func NewS3Store(ctx context.Context, cfg S3Config, lg zerolog.Logger) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		lg:      lg.With().Str("component", "s3_avatar_store").Logger(),
	}, nil
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Save uploads r under the configured prefix and returns its public URL.
func (s *S3Store) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if err := safeName(name); err != nil {
		return "", err
	}
	key := s.key(name)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.lg.Debug().Str("key", key).Msg("avatar uploaded")
	return s.baseURL + "/" + key, nil
}
