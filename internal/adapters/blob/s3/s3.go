// Package s3 implements the blob store seam on AWS S3 or any S3-compatible
// endpoint (MinIO in local stacks). Keys map one-to-one onto object keys
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"turna/internal/platform/blob"
	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
)

// Options configures the S3 client
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // non-empty for S3-compatible stores
	AccessKey string
	SecretKey string
	PathStyle bool // MinIO needs path-style addressing
}

// FromConfig reads BLOB_* options
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("BLOB_")
	return Options{
		Bucket:    c.MustString("BUCKET"),
		Region:    c.MayString("REGION", "us-east-1"),
		Endpoint:  c.MayString("ENDPOINT", ""),
		AccessKey: c.MayString("ACCESS_KEY", ""),
		SecretKey: c.MayString("SECRET_KEY", ""),
		PathStyle: c.MayBool("PATH_STYLE", false),
	}
}

// Store is the S3-backed blob.Store
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ blob.Store = (*Store)(nil)

// New dials nothing; the SDK connects lazily on first call
func New(ctx context.Context, opt Options) (*Store, error) {
	if opt.Bucket == "" {
		return nil, perr.InvalidArgf("blob bucket is required")
	}
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opt.Region)}
	if opt.AccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opt.AccessKey, opt.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opt.Endpoint != "" {
			o.BaseEndpoint = aws.String(opt.Endpoint)
		}
		o.UsePathStyle = opt.PathStyle
	})
	return &Store{client: client, presign: s3.NewPresignClient(client), bucket: opt.Bucket}, nil
}

// Put uploads one object
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 put")
	}
	return nil
}

// Get streams one object; the caller owns the ReadCloser
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, perr.NotFoundf("blob not found")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 get")
	}
	return out.Body, nil
}

// Exists heads the object
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 head")
	}
	return true, nil
}

// Delete removes the object; deleting a missing key is not an error
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 delete")
	}
	return nil
}

// PresignGet returns a time-limited download URL
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 presign")
	}
	return req.URL, nil
}
