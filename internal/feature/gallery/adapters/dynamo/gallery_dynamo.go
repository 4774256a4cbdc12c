// Package dynamo はgalleryフィーチャーのDynamoDBリポジトリ実装を提供します。
//
// 写真・マッピング・ロゴ集計の3種類のレコードを1つのワイドテーブルに格納する
// シングルテーブル設計です。
//
// キー設計:
//   - 写真:       pk=PHOTO#<id>   sk=META
//   - マッピング:  pk=LOGO#<slug>  sk=PHOTO#<photoID>
//   - ロゴ集計:    pk=LOGO#<slug>  sk=META
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"gallery_backend/internal/feature/gallery/domain/entity"
	"gallery_backend/internal/feature/gallery/usecase"
)

const (
	photoKeyPrefix = "PHOTO#"
	logoKeyPrefix  = "LOGO#"
	metaSortKey    = "META"

	recordTypePhoto     = "photo"
	recordTypePhotoLogo = "photo_logo"
	recordTypeSummary   = "logo_summary"

	// maxBatchGetSize はBatchGetItem1回あたりのキー数の上限です（DynamoDBの制約）。
	maxBatchGetSize = 100
	// maxBatchWriteSize はBatchWriteItem1回あたりの書き込み数の上限です（DynamoDBの制約）。
	maxBatchWriteSize = 25
	// maxBatchAttempts は未処理アイテムの再送を試みる最大回数です。
	maxBatchAttempts = 5
	// batchRetryBackoff は未処理アイテム再送前の待機時間の基準値です。
	batchRetryBackoff = 100 * time.Millisecond
)

// Client はリポジトリが使用するDynamoDB操作のインターフェースです。
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// galleryDynamo はGalleryRepository/GalleryWriterインターフェースのDynamoDB実装です。
type galleryDynamo struct {
	client Client
	table  string
}

// galleryDynamoが各インターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.GalleryRepository = (*galleryDynamo)(nil)
	_ usecase.GalleryWriter     = (*galleryDynamo)(nil)
)

// NewGalleryRepository は指定されたクライアントとテーブル名でgalleryDynamoの新しいインスタンスを生成します。
func NewGalleryRepository(client Client, table string) *galleryDynamo {
	return &galleryDynamo{client: client, table: table}
}

// photoItem は写真レコードのテーブル上の表現です。
type photoItem struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	RecordType string `dynamodbav:"record_type"`
	ID         string `dynamodbav:"id"`
	StorageKey string `dynamodbav:"storage_key"`
	PublicURL  string `dynamodbav:"public_url,omitempty"`
	CreatedAt  string `dynamodbav:"created_at"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

// mappingItem はマッピングレコードのテーブル上の表現です。
type mappingItem struct {
	PK         string       `dynamodbav:"pk"`
	SK         string       `dynamodbav:"sk"`
	RecordType string       `dynamodbav:"record_type"`
	LogoSlug   string       `dynamodbav:"logo_slug"`
	PhotoID    string       `dynamodbav:"photo_id"`
	Confidence float64      `dynamodbav:"confidence"`
	Bounds     []vertexItem `dynamodbav:"bounds,omitempty"`
	DetectedAt string       `dynamodbav:"detected_at"`
}

type vertexItem struct {
	X int32 `dynamodbav:"x"`
	Y int32 `dynamodbav:"y"`
}

// summaryItem はロゴ集計レコードのテーブル上の表現です。
type summaryItem struct {
	PK            string  `dynamodbav:"pk"`
	SK            string  `dynamodbav:"sk"`
	RecordType    string  `dynamodbav:"record_type"`
	Slug          string  `dynamodbav:"slug"`
	DisplayName   string  `dynamodbav:"display_name"`
	PhotoCount    int64   `dynamodbav:"photo_count"`
	MaxConfidence float64 `dynamodbav:"max_confidence"`
	UpdatedAt     string  `dynamodbav:"updated_at"`
}

func photoKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: photoKeyPrefix + id},
		"sk": &types.AttributeValueMemberS{Value: metaSortKey},
	}
}

func logoKey(slug string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: logoKeyPrefix + slug},
		"sk": &types.AttributeValueMemberS{Value: metaSortKey},
	}
}

func toPhotoItem(p entity.Photo) photoItem {
	return photoItem{
		PK:         photoKeyPrefix + p.ID,
		SK:         metaSortKey,
		RecordType: recordTypePhoto,
		ID:         p.ID,
		StorageKey: p.StorageKey,
		PublicURL:  p.PublicURL,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromPhotoItem(it photoItem) entity.Photo {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return entity.Photo{
		ID:         it.ID,
		StorageKey: it.StorageKey,
		PublicURL:  it.PublicURL,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}
}

// PutPhoto は写真レコードを保存します。同じIDのレコードは上書きされます。
func (r *galleryDynamo) PutPhoto(ctx context.Context, p entity.Photo) error {
	if p.ID == "" {
		return fmt.Errorf("photo id is required")
	}
	item, err := attributevalue.MarshalMap(toPhotoItem(p))
	if err != nil {
		return fmt.Errorf("failed to marshal photo: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put photo %q: %w", p.ID, err)
	}
	return nil
}

// GetPhoto はIDで写真を1件取得します。存在しない場合、usecase.ErrPhotoNotFoundを返します。
func (r *galleryDynamo) GetPhoto(ctx context.Context, id string) (*entity.Photo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       photoKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %q: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, usecase.ErrPhotoNotFound
	}
	var it photoItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo %q: %w", id, err)
	}
	p := fromPhotoItem(it)
	return &p, nil
}

// ListPhotos は全写真を作成日時の降順で返します。
// テーブルをスキャンし、写真レコードのみに絞り込みます。
func (r *galleryDynamo) ListPhotos(ctx context.Context) ([]entity.Photo, error) {
	var photos []entity.Photo
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.table),
			FilterExpression: aws.String("record_type = :rt"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":rt": &types.AttributeValueMemberS{Value: recordTypePhoto},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan photos: %w", err)
		}

		var items []photoItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal photos: %w", err)
		}
		for _, it := range items {
			photos = append(photos, fromPhotoItem(it))
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sortPhotosNewestFirst(photos)
	return photos, nil
}

// BatchGetPhotos は指定されたIDの写真を一括取得します。
// DynamoDBの上限に合わせてチャンク分割し、未処理キーは処理されるまで再送します。
// 存在しないIDは結果から除外されます。
func (r *galleryDynamo) BatchGetPhotos(ctx context.Context, ids []string) ([]entity.Photo, error) {
	photos := make([]entity.Photo, 0, len(ids))

	for start := 0; start < len(ids); start += maxBatchGetSize {
		end := min(start+maxBatchGetSize, len(ids))

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, photoKey(id))
		}

		for attempt := 0; len(keys) > 0; attempt++ {
			if attempt >= maxBatchAttempts {
				return nil, fmt.Errorf("batch get gave up after %d attempts with %d unprocessed keys", attempt, len(keys))
			}
			if attempt > 0 {
				time.Sleep(batchRetryBackoff * time.Duration(attempt))
			}

			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					r.table: {Keys: keys},
				},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get photos: %w", err)
			}

			var items []photoItem
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.table], &items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal photos: %w", err)
			}
			for _, it := range items {
				photos = append(photos, fromPhotoItem(it))
			}

			keys = out.UnprocessedKeys[r.table].Keys
		}
	}

	return photos, nil
}

// ListPhotosByLogo は指定されたロゴスラッグのマッピングを持つ写真のみを
// 作成日時の降順で返します。マッピングパーティションをクエリしてから写真を一括取得します。
func (r *galleryDynamo) ListPhotosByLogo(ctx context.Context, slug string) ([]entity.Photo, error) {
	var ids []string
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.table),
			KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: logoKeyPrefix + slug},
				":prefix": &types.AttributeValueMemberS{Value: photoKeyPrefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query mappings for %q: %w", slug, err)
		}

		var items []mappingItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mappings for %q: %w", slug, err)
		}
		for _, it := range items {
			ids = append(ids, it.PhotoID)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if len(ids) == 0 {
		return []entity.Photo{}, nil
	}

	photos, err := r.BatchGetPhotos(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortPhotosNewestFirst(photos)
	return photos, nil
}

// ListLogos は全ロゴの集計レコードを検出写真数の降順（同数ならスラッグ昇順）で返します。
func (r *galleryDynamo) ListLogos(ctx context.Context) ([]entity.LogoSummary, error) {
	var summaries []entity.LogoSummary
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.table),
			FilterExpression: aws.String("record_type = :rt"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":rt": &types.AttributeValueMemberS{Value: recordTypeSummary},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan logo summaries: %w", err)
		}

		var items []summaryItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logo summaries: %w", err)
		}
		for _, it := range items {
			updated, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
			summaries = append(summaries, entity.LogoSummary{
				Slug:          it.Slug,
				DisplayName:   it.DisplayName,
				PhotoCount:    it.PhotoCount,
				MaxConfidence: it.MaxConfidence,
				UpdatedAt:     updated,
			})
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].PhotoCount != summaries[j].PhotoCount {
			return summaries[i].PhotoCount > summaries[j].PhotoCount
		}
		return summaries[i].Slug < summaries[j].Slug
	})
	return summaries, nil
}

// PutMappingsBatch はマッピングレコードを一括保存します。
// DynamoDBの上限に合わせてチャンク分割し、未処理アイテムは処理されるまで再送します。
func (r *galleryDynamo) PutMappingsBatch(ctx context.Context, mappings []entity.PhotoLogo) error {
	if len(mappings) == 0 {
		return nil
	}

	requests := make([]types.WriteRequest, 0, len(mappings))
	for _, m := range mappings {
		if m.LogoSlug == "" || m.PhotoID == "" {
			return fmt.Errorf("mapping requires logo slug and photo id")
		}
		bounds := make([]vertexItem, 0, len(m.Bounds))
		for _, v := range m.Bounds {
			bounds = append(bounds, vertexItem{X: v.X, Y: v.Y})
		}
		item, err := attributevalue.MarshalMap(mappingItem{
			PK:         logoKeyPrefix + m.LogoSlug,
			SK:         photoKeyPrefix + m.PhotoID,
			RecordType: recordTypePhotoLogo,
			LogoSlug:   m.LogoSlug,
			PhotoID:    m.PhotoID,
			Confidence: m.Confidence,
			Bounds:     bounds,
			DetectedAt: m.DetectedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal mapping %s/%s: %w", m.LogoSlug, m.PhotoID, err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += maxBatchWriteSize {
		end := min(start+maxBatchWriteSize, len(requests))

		pending := requests[start:end]
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt >= maxBatchAttempts {
				return fmt.Errorf("batch write gave up after %d attempts with %d unprocessed items", attempt, len(pending))
			}
			if attempt > 0 {
				time.Sleep(batchRetryBackoff * time.Duration(attempt))
			}

			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					r.table: pending,
				},
			})
			if err != nil {
				return fmt.Errorf("failed to batch write mappings: %w", err)
			}

			pending = out.UnprocessedItems[r.table]
		}
	}

	return nil
}

// UpsertLogoSummary はロゴの集計レコードを更新します。
// 検出件数を1加算し、max_confidenceは新しい値が既存値を上回る場合のみ
// 条件付き更新で引き上げます。条件不成立はエラーとして扱いません。
func (r *galleryDynamo) UpsertLogoSummary(ctx context.Context, displayName string, confidence float64) error {
	slug := entity.Slugify(displayName)
	if slug == "" {
		return fmt.Errorf("logo display name %q produces an empty slug", displayName)
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return fmt.Errorf("confidence must be a finite number, got %v", confidence)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	// 1) 表示名・件数の更新（ADDで加算、レコードがなければ作成される）
	if _, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              logoKey(slug),
		UpdateExpression: aws.String("SET display_name = :name, slug = :slug, record_type = :rt, updated_at = :now ADD photo_count :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: displayName},
			":slug": &types.AttributeValueMemberS{Value: slug},
			":rt":   &types.AttributeValueMemberS{Value: recordTypeSummary},
			":now":  &types.AttributeValueMemberS{Value: now},
			":one":  &types.AttributeValueMemberN{Value: "1"},
		},
	}); err != nil {
		return fmt.Errorf("failed to update summary for %q: %w", slug, err)
	}

	// 2) 最大信頼度の条件付き更新
	if _, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 logoKey(slug),
		UpdateExpression:    aws.String("SET max_confidence = :c"),
		ConditionExpression: aws.String("attribute_not_exists(max_confidence) OR max_confidence < :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberN{Value: strconv.FormatFloat(confidence, 'f', -1, 64)},
		},
	}); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// 既存の最大値の方が大きい場合は何もしない
			return nil
		}
		return fmt.Errorf("failed to update max confidence for %q: %w", slug, err)
	}

	return nil
}

// sortPhotosNewestFirst は写真を作成日時の降順（同時刻ならID昇順）に並べ替えます。
func sortPhotosNewestFirst(photos []entity.Photo) {
	sort.Slice(photos, func(i, j int) bool {
		if !photos[i].CreatedAt.Equal(photos[j].CreatedAt) {
			return photos[i].CreatedAt.After(photos[j].CreatedAt)
		}
		return photos[i].ID < photos[j].ID
	})
}
