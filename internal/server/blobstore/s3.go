package blobstore

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/podmate/internal/netx"
	sc "github.com/dmitrijs2005/podmate/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	putPresigned = netx.PutPresigned
)

// S3Store uploads through presigned PUT URLs and hands out presigned GET
// URLs for downloads. Clients are built on first use.
type S3Store struct {
	config     *sc.Config
	httpClient *http.Client

	once    sync.Once
	initErr error
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Store(cfg *sc.Config, httpClient *http.Client) *S3Store {
	return &S3Store{config: cfg, httpClient: httpClient}
}

func (s *S3Store) clients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	s.once.Do(func() {
		cfg, err := loadDefaultAWSConfig(ctx,
			config.WithRegion(s.config.S3Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				s.config.S3RootUser,
				s.config.S3RootPassword,
				"",
			)))
		if err != nil {
			s.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
			if s.config.S3BaseEndpoint != "" {
				o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
				o.UsePathStyle = true
			}
		})
		s.presign = newS3PresignClient(s.client)
	})
	return s.client, s.presign, s.initErr
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, pc, err := s.clients(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return fmt.Errorf("presign put: %w", err)
	}

	if err := putPresigned(ctx, s.httpClient, req.URL, data, contentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	_, pc, err := s.clients(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	c, _, err := s.clients(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	if err := deleteObject(c, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
