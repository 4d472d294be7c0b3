package emit

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketConfig configures an S3 compatible bucket sink.
type BucketConfig struct {
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKey string `json:"accessKey,omitempty" yaml:"accessKey,omitempty" mapstructure:"accessKey"`
	SecretKey string `json:"secretKey,omitempty" yaml:"secretKey,omitempty" mapstructure:"secretKey"`
	UseSSL    bool   `json:"useSSL,omitempty" yaml:"useSSL,omitempty" mapstructure:"useSSL"`
}

// Enabled reports whether a bucket is configured.
func (c BucketConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" || strings.TrimSpace(c.Name) != ""
}

// Validate checks the required fields.
func (c BucketConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Endpoint) == "":
		return fmt.Errorf("bucket endpoint is required")
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("bucket name is required")
	case strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "":
		return fmt.Errorf("bucket access key and secret key are required")
	}
	return nil
}

// BucketSink uploads assets to an S3 compatible bucket.
type BucketSink struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error
}

// NewBucketSink creates a sink from cfg. It does not contact the server.
func NewBucketSink(cfg BucketConfig) (*BucketSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init bucket client: %w", err)
	}

	return &BucketSink{
		client: client,
		bucket: strings.TrimSpace(cfg.Name),
		region: region,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *BucketSink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Key returns the object key for name.
func (s *BucketSink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads content as name.
func (s *BucketSink) Put(ctx context.Context, name string, content []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.Key(name), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	return err
}

// Location implements Sink.
func (s *BucketSink) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.Key(name)
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".js", ".mjs", ".cjs":
		return "text/javascript; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
