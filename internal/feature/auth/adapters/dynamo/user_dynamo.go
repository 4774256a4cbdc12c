// Package dynamo はauthフィーチャーのDynamoDBリポジトリ実装を提供します。
//
// ユーザーレコードはギャラリーと同じワイドテーブルに格納されます。
// キー設計: pk=USER#<email> sk=META
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"gallery_backend/internal/feature/auth/domain/entity"
	"gallery_backend/internal/feature/auth/usecase"
	gallerydynamo "gallery_backend/internal/feature/gallery/adapters/dynamo"
)

const (
	userKeyPrefix  = "USER#"
	metaSortKey    = "META"
	recordTypeUser = "user"
)

// userDynamo はUserRepositoryインターフェースのDynamoDB実装です。
type userDynamo struct {
	client gallerydynamo.Client
	table  string
}

// userDynamoがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userDynamo)(nil)

// NewUserRepository は指定されたクライアントとテーブル名でuserDynamoの新しいインスタンスを生成します。
func NewUserRepository(client gallerydynamo.Client, table string) *userDynamo {
	return &userDynamo{client: client, table: table}
}

// userItem はユーザーレコードのテーブル上の表現です。
type userItem struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	RecordType string `dynamodbav:"record_type"`
	ID         string `dynamodbav:"id"`
	Email      string `dynamodbav:"email"`
	Password   string `dynamodbav:"password"`
	CreatedAt  string `dynamodbav:"created_at"`
}

func userKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: userKeyPrefix + email},
		"sk": &types.AttributeValueMemberS{Value: metaSortKey},
	}
}

// Create はユーザーをテーブルに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userDynamo) Create(ctx context.Context, u *entity.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	item, err := attributevalue.MarshalMap(userItem{
		PK:         userKeyPrefix + u.Email,
		SK:         metaSortKey,
		RecordType: recordTypeUser,
		ID:         u.ID,
		Email:      u.Email,
		Password:   u.Password,
		CreatedAt:  createdAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	// 条件付き書き込みでメールアドレスの一意性を保証する
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	}); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return usecase.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userDynamo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       userKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, usecase.ErrUserNotFound
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	return &entity.User{
		ID:        it.ID,
		Email:     it.Email,
		Password:  it.Password,
		CreatedAt: createdAt,
	}, nil
}
