package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	From         string
}

// putObjectAPI is the part of *s3.Client the outbox uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Outbox writes each message as an .eml object into a bucket, where a
// separate relay picks it up. Works against MinIO and AWS alike.
type S3Outbox struct {
	client putObjectAPI
	bucket string
	from   string
	now    func() time.Time
}

func NewS3Outbox(ctx context.Context, cfg S3Config) (*S3Outbox, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Outbox{client: client, bucket: cfg.Bucket, from: cfg.From, now: time.Now}, nil
}

func (o *S3Outbox) Send(ctx context.Context, address, subject, htmlBody string) error {
	for _, v := range []string{address, subject, o.from} {
		if err := validHeader(v); err != nil {
			return err
		}
	}

	now := o.now().UTC()
	key := fmt.Sprintf("outbox/%s/%s.eml", now.Format("2006/01/02"), uuid.NewString())
	msg := buildMessage(o.from, address, subject, htmlBody, now)

	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(msg),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}
