package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/modem-console/internal/domain"
)

// VerificationRepo manages pending OTP codes.
// PK: principal_id, SK: type ("otp")
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// Put stores v, replacing any previous code of the same principal and type
// as long as that code was created at or before notBefore (Unix seconds).
// A younger pending code makes Put fail with domain.ErrTooManyRequests.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.OTPVerification, notBefore int64) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, putInput(r.tableName, item, notBefore))
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("previous code still fresh: %w", domain.ErrTooManyRequests)
	}
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, principalID, verType string) (*domain.OTPVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("principal_id", principalID, "type", verType),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.OTPVerification
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// IncrementAttempts adds one to the attempt counter of an existing record
// whose counter is still below limit, and returns the new count.
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, principalID, verType string, limit int) (int, error) {
	out, err := r.client.UpdateItem(ctx, incrementAttemptsInput(r.tableName, principalID, verType, limit))
	if err != nil {
		return 0, incrementFailure(err)
	}
	var attempts int
	if err := attributevalue.Unmarshal(out.Attributes["attempts"], &attempts); err != nil {
		return 0, fmt.Errorf("unmarshal attempts: %w", err)
	}
	return attempts, nil
}

func (r *VerificationRepo) Delete(ctx context.Context, principalID, verType string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("principal_id", principalID, "type", verType),
	})
	return err
}
