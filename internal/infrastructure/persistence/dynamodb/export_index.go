package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dreschagin/recycling-dashboard/internal/application/port"
)

const (
	defaultListLimit = 24
	maxListLimit     = 100

	attrPK          = "PK"
	attrSK          = "SK"
	attrExportID    = "export_id"
	attrReportType  = "report_type"
	attrFormat      = "format"
	attrObjectKey   = "object_key"
	attrURL         = "url"
	attrContentType = "content_type"
	attrSizeBytes   = "size_bytes"
	attrSessionID   = "session_id"
	attrGeneratedAt = "generated_at"
	attrExportedAt  = "exported_at"
	attrExpiresAt   = "expires_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// ExportIndex хранит записи о выгрузках отчетов.
// Ключи: PK = REPORT#<type>, SK = TS#<exported_at ms>#ID#<export_id>.
// Реализует port.ExportIndex
type ExportIndex struct {
	client      *dynamodb.Client
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	ReportType string                 `json:"report_type"`
	FromMS     int64                  `json:"from_ms,omitempty"`
	ToMS       int64                  `json:"to_ms,omitempty"`
	Key        map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewExportIndex(ctx context.Context, cfg Config) (*ExportIndex, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &ExportIndex{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}, nil
}

// Put сохраняет запись о выгрузке
func (r *ExportIndex) Put(ctx context.Context, record port.ExportRecord) error {
	item, err := toItem(record)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put item failed: %w", err)
	}
	return nil
}

// ListByType возвращает выгрузки типа отчета, новые первыми
func (r *ExportIndex) ListByType(ctx context.Context, query port.ExportListQuery) (port.ExportListPage, error) {
	reportType := strings.TrimSpace(query.ReportType)
	if reportType == "" {
		return port.ExportListPage{}, fmt.Errorf("report_type is required")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	fromMS, toMS, hasRange, err := normalizeTimeRange(query.From, query.To)
	if err != nil {
		return port.ExportListPage{}, err
	}

	keyCondition := "#pk = :pk"
	input := &dynamodb.QueryInput{
		TableName:                &r.tableName,
		Limit:                    int32Pointer(int32(limit)),
		ScanIndexForward:         boolPointer(false),
		ConsistentRead:           boolPointer(r.strongReads),
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(reportType)},
		},
	}
	if hasRange {
		input.ExpressionAttributeNames["#sk"] = attrSK
		input.ExpressionAttributeValues[":from"] = &types.AttributeValueMemberS{Value: buildSortLowerBound(fromMS)}
		input.ExpressionAttributeValues[":to"] = &types.AttributeValueMemberS{Value: buildSortUpperBound(toMS)}
		keyCondition += " AND #sk BETWEEN :from AND :to"
	}
	input.KeyConditionExpression = &keyCondition

	if cursor := strings.TrimSpace(query.Cursor); cursor != "" {
		exclusiveStartKey, err := decodeCursor(cursor, reportType, fromMS, toMS)
		if err != nil {
			return port.ExportListPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.ExportListPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.ExportRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.ExportListPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, reportType, fromMS, toMS)
		if err != nil {
			return port.ExportListPage{}, err
		}
	}

	return port.ExportListPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func toItem(record port.ExportRecord) (map[string]types.AttributeValue, error) {
	exportID := strings.TrimSpace(record.ExportID)
	reportType := strings.TrimSpace(record.ReportType)
	objectKey := strings.TrimSpace(record.Key)
	if exportID == "" {
		return nil, fmt.Errorf("export_id is required")
	}
	if reportType == "" {
		return nil, fmt.Errorf("report_type is required")
	}
	if objectKey == "" {
		return nil, fmt.Errorf("object_key is required")
	}

	exportedAt := record.ExportedAt.UTC()
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	generatedAt := record.GeneratedAt.UTC()
	if generatedAt.IsZero() {
		generatedAt = exportedAt
	}

	exportedAtMS := exportedAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:          &types.AttributeValueMemberS{Value: buildPK(reportType)},
		attrSK:          &types.AttributeValueMemberS{Value: buildSK(exportedAtMS, exportID)},
		attrExportID:    &types.AttributeValueMemberS{Value: exportID},
		attrReportType:  &types.AttributeValueMemberS{Value: reportType},
		attrObjectKey:   &types.AttributeValueMemberS{Value: objectKey},
		attrGeneratedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(generatedAt.UnixMilli(), 10)},
		attrExportedAt:  &types.AttributeValueMemberN{Value: strconv.FormatInt(exportedAtMS, 10)},
	}

	optional := map[string]string{
		attrFormat:      record.Format,
		attrURL:         record.URL,
		attrContentType: record.ContentType,
		attrSessionID:   record.SessionID,
	}
	for name, value := range optional {
		if value = strings.TrimSpace(value); value != "" {
			item[name] = &types.AttributeValueMemberS{Value: value}
		}
	}
	if record.SizeBytes > 0 {
		item[attrSizeBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes, 10)}
	}
	if !record.ExpiresAt.IsZero() {
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.ExpiresAt.UTC().Unix(), 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.ExportRecord, error) {
	exportID, err := attrString(item, attrExportID)
	if err != nil {
		return port.ExportRecord{}, err
	}
	reportType, err := attrString(item, attrReportType)
	if err != nil {
		return port.ExportRecord{}, err
	}
	objectKey, err := attrString(item, attrObjectKey)
	if err != nil {
		return port.ExportRecord{}, err
	}
	generatedAtMS, err := attrInt64(item, attrGeneratedAt)
	if err != nil {
		return port.ExportRecord{}, err
	}
	exportedAtMS, err := attrInt64(item, attrExportedAt)
	if err != nil {
		return port.ExportRecord{}, err
	}

	record := port.ExportRecord{
		ExportID:    exportID,
		ReportType:  reportType,
		Format:      optionalString(item, attrFormat),
		Key:         objectKey,
		URL:         optionalString(item, attrURL),
		ContentType: optionalString(item, attrContentType),
		SizeBytes:   optionalInt64(item, attrSizeBytes),
		SessionID:   optionalString(item, attrSessionID),
		GeneratedAt: time.UnixMilli(generatedAtMS).UTC(),
		ExportedAt:  time.UnixMilli(exportedAtMS).UTC(),
	}

	if expiresAtSeconds := optionalInt64(item, attrExpiresAt); expiresAtSeconds > 0 {
		record.ExpiresAt = time.Unix(expiresAtSeconds, 0).UTC()
	}

	return record, nil
}

func normalizeTimeRange(from, to time.Time) (int64, int64, bool, error) {
	if from.IsZero() && to.IsZero() {
		return 0, math.MaxInt64, false, nil
	}

	fromMS := int64(0)
	toMS := int64(math.MaxInt64)
	if !from.IsZero() {
		fromMS = from.UTC().UnixMilli()
	}
	if !to.IsZero() {
		toMS = to.UTC().UnixMilli()
	}

	if fromMS > toMS {
		return 0, 0, false, fmt.Errorf("from must be less than or equal to to")
	}

	return fromMS, toMS, true, nil
}

func buildPK(reportType string) string {
	return "REPORT#" + reportType
}

func buildSK(exportedAtMS int64, exportID string) string {
	return fmt.Sprintf("TS#%013d#ID#%s", exportedAtMS, exportID)
}

func buildSortLowerBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#", tsMS)
}

func buildSortUpperBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#~", tsMS)
}

func encodeCursor(key map[string]types.AttributeValue, reportType string, fromMS, toMS int64) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	serialized, err := json.Marshal(cursorPayload{
		ReportType: reportType,
		FromMS:     fromMS,
		ToMS:       toMS,
		Key:        values,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(cursor, reportType string, fromMS, toMS int64) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	if payload.ReportType != reportType || payload.FromMS != fromMS || payload.ToMS != toMS {
		return nil, fmt.Errorf("cursor does not match query filters")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		switch {
		case value.S != "":
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
		case value.N != "":
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
		default:
			return nil, fmt.Errorf("invalid cursor")
		}
	}

	return key, nil
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	if value, ok := item[name].(*types.AttributeValueMemberS); ok {
		return value.Value
	}
	return ""
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	value, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}
