package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/baditaflorin/go_spectral_similarity/internal/core/domain"
	"github.com/baditaflorin/go_spectral_similarity/internal/ports"
)

// Environment variables read by S3ConfigFromEnv.
const (
	EnvBucket       = "SPECTRA_BUCKET"
	EnvPrefix       = "SPECTRA_PREFIX"
	EnvEndpoint     = "SPECTRA_S3_ENDPOINT"
	EnvPathStyle    = "SPECTRA_S3_PATH_STYLE"
	EnvRegion       = "AWS_REGION"
	EnvAccessKey    = "AWS_ACCESS_KEY_ID"
	EnvSecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken = "AWS_SESSION_TOKEN"
)

// DefaultSuffixes selects spectrum files in a listing.
var DefaultSuffixes = []string{".csv"}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config locates the bucket holding spectrum files.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // "" for AWS
	AccessKey    string // "" uses the default credential chain
	SecretKey    string
	SessionToken string
	PathStyle    bool
	PageSize     int32
	Suffixes     []string
}

// S3ConfigFromEnv fills an S3Config from the environment.
func S3ConfigFromEnv() S3Config {
	return S3Config{
		Bucket:       EnvOr(EnvBucket, ""),
		Prefix:       EnvOr(EnvPrefix, ""),
		Region:       EnvOr(EnvRegion, "us-east-1"),
		Endpoint:     EnvOr(EnvEndpoint, ""),
		AccessKey:    EnvOr(EnvAccessKey, ""),
		SecretKey:    EnvOr(EnvSecretKey, ""),
		SessionToken: EnvOr(EnvSessionToken, ""),
		PathStyle:    EnvBoolOr(EnvPathStyle, false),
	}
}

// Validate checks if the configuration is valid.
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("access key and secret key must be set together")
	}
	if c.PageSize < 0 || c.PageSize > 1000 {
		return errors.New("page size must be between 0 and 1000")
	}
	return nil
}

// NewS3Client builds an S3 client from static keys or the default chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loaders []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loaders = append(loaders, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// S3Store lists and fetches spectrum files from an S3 bucket.
type S3Store struct {
	cli      S3API
	bucket   string
	prefix   string
	pageSize int32
	suffixes []string
	logger   ports.Logger
}

// NewS3Store wraps an existing client.
func NewS3Store(cli S3API, cfg S3Config, logger ports.Logger) (*S3Store, error) {
	if cli == nil {
		return nil, errors.New("s3 client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 1000
	}
	suffixes := cfg.Suffixes
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	return &S3Store{
		cli:      cli,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		pageSize: pageSize,
		suffixes: suffixes,
		logger:   logger,
	}, nil
}

// OpenS3Store builds a client from cfg and wraps it.
func OpenS3Store(ctx context.Context, cfg S3Config, logger ports.Logger) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cli, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, &domain.IOFailure{Op: "connect", Name: cfg.Bucket, Err: err}
	}
	return NewS3Store(cli, cfg, logger)
}

// List returns the sorted keys under the prefix that carry a spectrum suffix.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	var cont *string

	for {
		out, err := s.cli.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: cont,
			MaxKeys:           aws.Int32(s.pageSize),
		})
		if err != nil {
			s.logger.Error("Listing bucket failed", "bucket", s.bucket, "prefix", s.prefix, "error", err)
			return nil, &domain.IOFailure{Op: "list", Name: s.bucket, Err: err}
		}
		for _, o := range out.Contents {
			k := aws.ToString(o.Key)
			if hasSuffixFold(k, s.suffixes) {
				keys = append(keys, k)
			}
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			cont = out.NextContinuationToken
			continue
		}
		break
	}

	sort.Strings(keys)
	s.logger.Debug("Listed bucket", "bucket", s.bucket, "prefix", s.prefix, "files", len(keys))
	return keys, nil
}

// Fetch downloads the object named name.
func (s *S3Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	out, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		s.logger.Error("Download failed", "bucket", s.bucket, "key", name, "error", err)
		return nil, &domain.IOFailure{Op: "fetch", Name: name, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &domain.IOFailure{Op: "fetch", Name: name, Err: fmt.Errorf("read body: %w", err)}
	}
	s.logger.Debug("Downloaded object", "bucket", s.bucket, "key", name, "bytes", len(data))
	return data, nil
}

func hasSuffixFold(key string, suffixes []string) bool {
	lower := strings.ToLower(key)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
