package credstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/models"
)

// Dynamo persists session state in a DynamoDB table, for AWS-hosted
// automation agents. Items live under an agent-scoped partition key with a
// TTL attribute derived from the refresh expiry.
type Dynamo struct {
	client    *dynamodb.Client
	tableName string
	scope     string
	logger    *logrus.Logger
}

// NewDynamo returns a DynamoDB-backed store. scope distinguishes agents
// sharing one table (e.g. a hostname or worker id).
func NewDynamo(client *dynamodb.Client, tableName, scope string, logger *logrus.Logger) *Dynamo {
	if scope == "" {
		scope = "default"
	}
	return &Dynamo{
		client:    client,
		tableName: tableName,
		scope:     scope,
		logger:    logger,
	}
}

func (d *Dynamo) pk() string { return fmt.Sprintf("SESSION#%s", d.scope) }

func (d *Dynamo) LoadCredentials(ctx context.Context) (*models.Credentials, error) {
	item, err := d.getItem(ctx, "CREDENTIALS")
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if item == nil {
		return nil, ErrNotFound
	}

	var creds models.Credentials
	if err := attributevalue.UnmarshalMap(item, &creds); err != nil {
		d.logger.WithError(err).Error("Failed to unmarshal credentials from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

func (d *Dynamo) SaveCredentials(ctx context.Context, creds *models.Credentials) error {
	item, err := attributevalue.MarshalMap(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: d.pk()}
	item["SK"] = &types.AttributeValueMemberS{Value: "CREDENTIALS"}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", creds.RefreshExpiresAt.Unix())}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		d.logger.WithError(err).Error("Failed to store credentials in DynamoDB")
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

func (d *Dynamo) LoadProfile(ctx context.Context) (*models.Profile, error) {
	item, err := d.getItem(ctx, "PROFILE")
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if item == nil {
		return nil, ErrNotFound
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		d.logger.WithError(err).Error("Failed to unmarshal profile from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (d *Dynamo) SaveProfile(ctx context.Context, profile *models.Profile) error {
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: d.pk()}
	item["SK"] = &types.AttributeValueMemberS{Value: "PROFILE"}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		d.logger.WithError(err).Error("Failed to store profile in DynamoDB")
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (d *Dynamo) Clear(ctx context.Context) error {
	for _, sk := range []string{"CREDENTIALS", "PROFILE"} {
		_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(d.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: d.pk()},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", sk, err)
		}
	}
	return nil
}

func (d *Dynamo) getItem(ctx context.Context, sk string) (map[string]types.AttributeValue, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: d.pk()},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, nil
	}
	return result.Item, nil
}
