package dynamo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/modem-console/internal/domain"
)

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// putInput writes item unless the stored record was created after notBefore.
func putInput(table string, item map[string]types.AttributeValue, notBefore int64) *dynamodb.PutItemInput {
	return &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(principal_id) OR created_at <= :not_before"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":not_before": &types.AttributeValueMemberN{Value: strconv.FormatInt(notBefore, 10)},
		},
	}
}

// incrementAttemptsInput adds one to attempts only on an existing record that
// is still below limit. A deleted record is never recreated.
func incrementAttemptsInput(table, principalID, verType string, limit int) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 compositeKey("principal_id", principalID, "type", verType),
		UpdateExpression:    aws.String("ADD attempts :one"),
		ConditionExpression: aws.String("attribute_exists(principal_id) AND attempts < :limit"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(limit)},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}
}

// incrementFailure maps a failed conditional increment to a domain error:
// no record left means ErrNotFound, an exhausted counter ErrTooManyRequests.
func incrementFailure(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return err
	}
	if len(ccf.Item) == 0 {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("attempts exhausted: %w", domain.ErrTooManyRequests)
}
