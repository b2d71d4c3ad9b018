package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LogoResolver превращает ключ логотипа команды в URL для браузера.
type LogoResolver interface {
	LogoURL(ctx context.Context, key string) (string, error)
}

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	PresignTTL      time.Duration
}

// NewLogoResolver возвращает резолвер публичных URL, если задан PublicBaseURL,
// подписывающий, если заданы только ключи бакета, и иначе резолвер,
// который всегда возвращает "".
func NewLogoResolver(ctx context.Context, cfg CloudflareR2Config) (LogoResolver, error) {
	if cfg.PublicBaseURL != "" {
		return NewPublicResolver(cfg.PublicBaseURL)
	}
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return noopResolver{}, nil
	}
	return NewPresignResolver(ctx, cfg)
}

type noopResolver struct{}

func (noopResolver) LogoURL(context.Context, string) (string, error) { return "", nil }

type publicResolver struct {
	base *url.URL
}

func NewPublicResolver(publicBaseURL string) (LogoResolver, error) {
	base, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public base URL %q: %w", publicBaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("public base URL %q must be absolute", publicBaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &publicResolver{base: base}, nil
}

func (r *publicResolver) LogoURL(_ context.Context, key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", nil
	}
	ref, err := url.Parse(key)
	if err != nil {
		return "", fmt.Errorf("invalid logo key %q: %w", key, err)
	}
	return r.base.ResolveReference(ref).String(), nil
}

type presignResolver struct {
	presigner  *s3.PresignClient
	bucketName string
	ttl        time.Duration
}

func NewPresignResolver(ctx context.Context, cfg CloudflareR2Config) (LogoResolver, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: account, keys and bucket are required")
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"), // R2 подписывает запросы с регионом "auto"
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &presignResolver{
		presigner:  s3.NewPresignClient(client),
		bucketName: cfg.BucketName,
		ttl:        ttl,
	}, nil
}

func (r *presignResolver) LogoURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", nil
	}
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign logo (key: %s): %w", key, err)
	}
	return req.URL, nil
}
