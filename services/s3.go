package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rs/zerolog/log"
)

// S3Options configures an S3Uploader. Endpoint and the static keys are only needed for
// S3-compatible hosts; on AWS the default credential chain is used.
type S3Options struct {
	Bucket          string
	Region          string
	PublicBaseURL   string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// UploadTimeout bounds one PutObject. Zero means defaultUploadTimeout.
	UploadTimeout time.Duration
}

// S3Uploader writes media objects under projects/ in one bucket.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
	timeout time.Duration
}

func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_PROVIDER=s3")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimSuffix(opts.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	timeout := opts.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}

	return &S3Uploader{client: client, bucket: opts.Bucket, baseURL: baseURL, timeout: timeout}, nil
}

func (u *S3Uploader) Provider() string {
	return "s3"
}

func (u *S3Uploader) Upload(ctx context.Context, file MediaFile) (string, error) {
	key := "projects/" + objectName(file.Name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	uctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.client.PutObject(uctx, input); err != nil {
		if ctx.Err() == nil && uctx.Err() != nil {
			return "", errs.NewUpstreamError(u.Provider(), err)
		}
		return "", errs.NewMediaUploadError(u.Provider(), err)
	}

	url := u.baseURL + "/" + key
	log.Debug().Str("bucket", u.bucket).Str("key", key).Msg("Uploaded media to S3")
	return url, nil
}
