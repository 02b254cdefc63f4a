package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

type URLMode string

const (
	URLModePresigned URLMode = "presigned"
	URLModePublic    URLMode = "public"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         URLMode
	PresignedTTL    time.Duration
}

// ExportStorage хранит выгруженные отчеты в S3-совместимом хранилище.
// Реализует port.ExportSink и port.ExportObjectLister
type ExportStorage struct {
	client       *s3.Client
	presign      *s3.PresignClient
	bucket       string
	endpoint     string
	usePathStyle bool
	urlMode      URLMode
	presignedTTL time.Duration
}

func NewExportStorage(ctx context.Context, cfg Config) (*ExportStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, fmt.Errorf("s3 access key id and secret are required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "ru-central1"
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = "https://storage.yandexcloud.net"
	}
	if cfg.URLMode == "" {
		cfg.URLMode = URLModePresigned
	}
	if cfg.URLMode != URLModePresigned && cfg.URLMode != URLModePublic {
		return nil, fmt.Errorf("unsupported s3 url mode: %s", cfg.URLMode)
	}
	if cfg.PresignedTTL <= 0 {
		cfg.PresignedTTL = 15 * time.Minute
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = &cfg.Endpoint
		options.UsePathStyle = cfg.UsePathStyle
	})

	return &ExportStorage{
		client:       client,
		presign:      s3.NewPresignClient(client),
		bucket:       strings.TrimSpace(cfg.Bucket),
		endpoint:     strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		usePathStyle: cfg.UsePathStyle,
		urlMode:      cfg.URLMode,
		presignedTTL: cfg.PresignedTTL,
	}, nil
}

// Export загружает payload и возвращает ссылку для чтения
func (s *ExportStorage) Export(ctx context.Context, payload port.Payload) (port.ExportLocation, error) {
	key := strings.TrimSpace(payload.Key)
	if key == "" {
		return port.ExportLocation{}, fmt.Errorf("%w: object key is required", errs.ErrExport)
	}

	disposition := fmt.Sprintf("attachment; filename=%q", payload.Filename)
	input := &s3.PutObjectInput{
		Bucket:             &s.bucket,
		Key:                &key,
		Body:               bytes.NewReader(payload.Body),
		ContentType:        &payload.ContentType,
		ContentDisposition: &disposition,
	}
	if payload.SessionID != "" {
		input.Metadata = map[string]string{"session-id": payload.SessionID}
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: put object failed: %v", errs.ErrExport, err)
	}

	url, err := s.GetObjectURL(ctx, key)
	if err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: %v", errs.ErrExport, err)
	}

	return port.ExportLocation{
		Key:        key,
		URL:        url,
		SizeBytes:  int64(len(payload.Body)),
		ExportedAt: time.Now().UTC(),
	}, nil
}

func (s *ExportStorage) ListObjects(ctx context.Context, prefix string, limit int) ([]port.ExportObject, error) {
	normalizedPrefix := strings.TrimSpace(prefix)
	if normalizedPrefix == "" {
		return nil, fmt.Errorf("prefix is required")
	}
	if limit <= 0 {
		limit = 24
	}
	if limit > 200 {
		limit = 200
	}

	maxKeys := int32(limit)
	input := &s3.ListObjectsV2Input{
		Bucket:  &s.bucket,
		Prefix:  &normalizedPrefix,
		MaxKeys: &maxKeys,
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects failed: %w", err)
	}

	objects := make([]port.ExportObject, 0, len(output.Contents))
	for _, object := range output.Contents {
		if object.Key == nil || strings.TrimSpace(*object.Key) == "" {
			continue
		}
		objects = append(objects, port.ExportObject{
			Key:          *object.Key,
			SizeBytes:    valueInt64(object.Size),
			LastModified: valueTime(object.LastModified),
			URL:          s.readURLOrEmpty(ctx, *object.Key),
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})

	return objects, nil
}

func (s *ExportStorage) GetObjectURL(ctx context.Context, key string) (string, error) {
	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return "", fmt.Errorf("object key is required")
	}

	if s.urlMode == URLModePublic {
		return s.publicURL(normalizedKey), nil
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &normalizedKey,
	}, s3.WithPresignExpires(s.presignedTTL))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}

	return request.URL, nil
}

func (s *ExportStorage) publicURL(key string) string {
	escapedKey := url.PathEscape(key)
	escapedKey = strings.ReplaceAll(escapedKey, "%2F", "/")
	if s.usePathStyle {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escapedKey)
	}
	endpoint := strings.TrimPrefix(s.endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, endpoint, escapedKey)
}

func (s *ExportStorage) readURLOrEmpty(ctx context.Context, key string) string {
	url, err := s.GetObjectURL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}

func valueTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.UTC()
}

func valueInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
