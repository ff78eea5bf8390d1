package s3

import (
	"scene-service/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Client represents the S3 client wrapper
type Client struct {
	bucketName string
	svc        *s3.S3
}

// NewClient creates a new S3 client instance
func NewClient(cfg *config.ArchiveConfig) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})

	if err != nil {
		return nil, err
	}

	svc := s3.New(sess)

	return &Client{
		bucketName: cfg.Bucket,
		svc:        svc,
	}, nil
}
