package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config locates the receipt bucket. BaseEndpoint is for S3-compatible
// stores such as MinIO and may be empty for AWS itself.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// putObjectAPI is the part of *s3.Client the exporter needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads receipts to a bucket under
// receipts/<yyyy>/<mm>/<dd>/<name>.
type S3Exporter struct {
	client putObjectAPI
	bucket string
}

// NewS3Exporter builds an S3 client from cfg. Static credentials are used
// when AccessKey is set; otherwise the default AWS chain applies.
func NewS3Exporter(ctx context.Context, cfg S3Config) (*S3Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 exporter: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Exporter{client: client, bucket: cfg.Bucket}, nil
}

// ReceiptKey is the object key of a sale's receipt.
func ReceiptKey(sale models.Sale) string {
	d := sale.CreatedAt.UTC()
	return path.Join("receipts",
		fmt.Sprintf("%04d", d.Year()), fmt.Sprintf("%02d", d.Month()), fmt.Sprintf("%02d", d.Day()),
		ReceiptName(sale))
}

// Export uploads the rendered receipt and returns its s3:// URI.
func (e *S3Exporter) Export(ctx context.Context, sale models.Sale) (string, error) {
	body, err := renderReceipt(sale)
	if err != nil {
		return "", err
	}

	key := ReceiptKey(sale)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", e.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}
