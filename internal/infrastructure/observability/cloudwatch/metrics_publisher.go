package cloudwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
)

const (
	maxMetricsPerRequest = 1000
	maxRetries           = 3
	initialBackoff       = 100 * time.Millisecond
)

// Имена метрик в CloudWatch
const (
	metricResponseTime = "ResponseTime"
	metricActiveUsers  = "ActiveUsers"
	metricErrorRate    = "ErrorRate"
	metricMemoryUsage  = "MemoryUsage"
	metricHealthStatus = "HealthStatus"
	metricAlertCount   = "AlertCount"
)

// MetricsPublisherConfig - настройки публикации health-метрик
type MetricsPublisherConfig struct {
	Namespace         string // например "RecyclingDashboard/Health"
	Region            string
	Endpoint          string // LocalStack
	AccessKeyID       string
	SecretAccessKey   string
	DefaultDimensions map[string]string
	BufferSize        int
	FlushInterval     time.Duration
	StorageResolution int32 // 1 или 60
}

// MetricsPublisher буферизует health snapshot'ы и отправляет их в CloudWatch пачками.
// Реализует port.HealthMetricsPublisher
type MetricsPublisher struct {
	client            *cloudwatch.Client
	namespace         string
	defaultDimensions map[string]string
	storageResolution int32
	logger            *logger.Logger

	buffer     []types.MetricDatum
	bufferSize int
	mu         sync.Mutex

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewMetricsPublisher создает publisher и запускает периодический flush
func NewMetricsPublisher(ctx context.Context, cfg MetricsPublisherConfig, log *logger.Logger) (*MetricsPublisher, error) {
	if err := normalizeMetricsConfig(&cfg); err != nil {
		return nil, err
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	p := &MetricsPublisher{
		client:            cloudwatch.NewFromConfig(awsCfg),
		namespace:         cfg.Namespace,
		defaultDimensions: cfg.DefaultDimensions,
		storageResolution: cfg.StorageResolution,
		logger:            log,
		buffer:            make([]types.MetricDatum, 0, cfg.BufferSize),
		bufferSize:        cfg.BufferSize,
		flushTicker:       time.NewTicker(cfg.FlushInterval),
		stopCh:            make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p, nil
}

func normalizeMetricsConfig(cfg *MetricsPublisherConfig) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if cfg.Region == "" {
		return fmt.Errorf("region is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 60
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Minute
	}
	if cfg.StorageResolution != 1 && cfg.StorageResolution != 60 {
		cfg.StorageResolution = 60
	}
	return nil
}

// PublishSnapshot добавляет метрики snapshot'а в буфер
func (p *MetricsPublisher) PublishSnapshot(ctx context.Context, snapshot *entity.HealthSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer = append(p.buffer, p.snapshotToData(snapshot)...)
	if len(p.buffer) >= p.bufferSize {
		if err := p.flushBufferUnsafe(ctx); err != nil {
			return fmt.Errorf("failed to flush buffer: %w", err)
		}
	}
	return nil
}

// Flush немедленно отправляет накопленные метрики
func (p *MetricsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// Close останавливает фоновый flush и отправляет остаток буфера
func (p *MetricsPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

func (p *MetricsPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Flush(ctx); err != nil && p.logger != nil {
				p.logger.Warn("CloudWatch metrics flush failed", "error", err.Error())
			}
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// flushBufferUnsafe вызывается под p.mu
func (p *MetricsPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	for i := 0; i < len(p.buffer); i += maxMetricsPerRequest {
		end := i + maxMetricsPerRequest
		if end > len(p.buffer) {
			end = len(p.buffer)
		}
		if err := p.putWithRetry(ctx, p.buffer[i:end]); err != nil {
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	p.buffer = p.buffer[:0]
	return nil
}

func (p *MetricsPublisher) putWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// snapshotToData раскладывает snapshot на datum'ы CloudWatch
func (p *MetricsPublisher) snapshotToData(snapshot *entity.HealthSnapshot) []types.MetricDatum {
	metrics := snapshot.Metrics()
	ts := snapshot.Timestamp()

	return []types.MetricDatum{
		p.datum(metricResponseTime, metrics.ResponseTime, types.StandardUnitMilliseconds, ts),
		p.datum(metricActiveUsers, float64(metrics.ActiveUsers), types.StandardUnitCount, ts),
		p.datum(metricErrorRate, metrics.ErrorRate, types.StandardUnitPercent, ts),
		p.datum(metricMemoryUsage, metrics.MemoryUsage, types.StandardUnitPercent, ts),
		p.datum(metricHealthStatus, statusLevel(snapshot.Status()), types.StandardUnitNone, ts),
		p.datum(metricAlertCount, float64(len(snapshot.Alerts())), types.StandardUnitCount, ts),
	}
}

func (p *MetricsPublisher) datum(name string, value float64, unit types.StandardUnit, ts time.Time) types.MetricDatum {
	dimensions := make([]types.Dimension, 0, len(p.defaultDimensions))
	for key, dimValue := range p.defaultDimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(key),
			Value: aws.String(dimValue),
		})
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(ts),
		Dimensions: dimensions,
	}
	if p.storageResolution > 0 {
		datum.StorageResolution = aws.Int32(p.storageResolution)
	}
	return datum
}

// statusLevel: healthy=0, warning=1, error=2
func statusLevel(status valueobject.HealthStatus) float64 {
	switch status {
	case valueobject.Failing:
		return 2
	case valueobject.Warning:
		return 1
	default:
		return 0
	}
}

func buildAWSConfig(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}
