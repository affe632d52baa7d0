package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Neither collection enforces a schema beyond the id key; documents keep
// whatever fields their writer used, which is exactly the drift the
// normalizers exist to absorb.

type dynamoAPI interface {
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// appointmentVisibility matches documents scoped to the tenant under either
// synonym key, plus legacy documents with no tenant key at all.
const appointmentVisibility = "clinicId = :cid OR clinic_name = :cid OR " +
	"((attribute_not_exists(clinicId) OR clinicId = :empty) AND (attribute_not_exists(clinic_name) OR clinic_name = :empty))"

// DynamoPatientStore is a PatientStore backed by a DynamoDB table.
type DynamoPatientStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewDynamoPatientStore builds a store over the given table.
func NewDynamoPatientStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoPatientStore {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: patients table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoPatientStore{client: client, tableName: tableName, logger: logger}
}

func (s *DynamoPatientStore) ListByClinic(ctx context.Context, clinicID string) ([]PatientRecord, error) {
	items, err := scanAll(ctx, s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("clinicId = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: clinicID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan patients: %w", err)
	}
	return unmarshalItems[PatientRecord](items, "patient")
}

func (s *DynamoPatientStore) Get(ctx context.Context, id string) (*PatientRecord, error) {
	item, err := getItem(ctx, s.client, s.tableName, id)
	if err != nil {
		return nil, fmt.Errorf("records: fetch patient: %w", err)
	}
	if item == nil {
		return nil, ErrRecordNotFound
	}
	var rec PatientRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("records: decode patient: %w", err)
	}
	return &rec, nil
}

func (s *DynamoPatientStore) Put(ctx context.Context, rec PatientRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("records: marshal patient: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("records: put patient: %w", err)
	}
	return nil
}

func (s *DynamoPatientStore) Delete(ctx context.Context, id string) error {
	if err := deleteItem(ctx, s.client, s.tableName, id); err != nil {
		return fmt.Errorf("records: delete patient: %w", err)
	}
	return nil
}

func (s *DynamoPatientStore) FindByPhone(ctx context.Context, clinicID, phone string) ([]PatientRecord, error) {
	items, err := scanAll(ctx, s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("clinicId = :cid AND phone = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid":   &types.AttributeValueMemberS{Value: clinicID},
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan patients by phone: %w", err)
	}
	return unmarshalItems[PatientRecord](items, "patient")
}

// DynamoAppointmentStore is an AppointmentStore backed by the shared
// appointments table.
type DynamoAppointmentStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewDynamoAppointmentStore builds a store over the given table.
func NewDynamoAppointmentStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoAppointmentStore {
	if client == nil {
		panic("records: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("records: appointments table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoAppointmentStore{client: client, tableName: tableName, logger: logger}
}

func (s *DynamoAppointmentStore) ListVisibleToClinic(ctx context.Context, clinicID string) ([]AppointmentRecord, error) {
	items, err := scanAll(ctx, s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String(appointmentVisibility),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid":   &types.AttributeValueMemberS{Value: clinicID},
			":empty": &types.AttributeValueMemberS{Value: ""},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan appointments: %w", err)
	}
	return unmarshalItems[AppointmentRecord](items, "appointment")
}

func (s *DynamoAppointmentStore) Get(ctx context.Context, id string) (*AppointmentRecord, error) {
	item, err := getItem(ctx, s.client, s.tableName, id)
	if err != nil {
		return nil, fmt.Errorf("records: fetch appointment: %w", err)
	}
	if item == nil {
		return nil, ErrRecordNotFound
	}
	var rec AppointmentRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("records: decode appointment: %w", err)
	}
	return &rec, nil
}

func (s *DynamoAppointmentStore) Put(ctx context.Context, rec AppointmentRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("records: marshal appointment: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("records: put appointment: %w", err)
	}
	return nil
}

func (s *DynamoAppointmentStore) Delete(ctx context.Context, id string) error {
	if err := deleteItem(ctx, s.client, s.tableName, id); err != nil {
		return fmt.Errorf("records: delete appointment: %w", err)
	}
	return nil
}

func (s *DynamoAppointmentStore) FindByPhone(ctx context.Context, clinicID, phone string) ([]AppointmentRecord, error) {
	items, err := scanAll(ctx, s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("phone = :phone AND (" + appointmentVisibility + ")"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid":   &types.AttributeValueMemberS{Value: clinicID},
			":empty": &types.AttributeValueMemberS{Value: ""},
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("records: scan appointments by phone: %w", err)
	}
	return unmarshalItems[AppointmentRecord](items, "appointment")
}

// scanAll follows LastEvaluatedKey until the table is exhausted.
func scanAll(ctx context.Context, client dynamoAPI, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func getItem(ctx context.Context, client dynamoAPI, tableName, id string) (map[string]types.AttributeValue, error) {
	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, err
	}
	return out.Item, nil
}

func deleteItem(ctx context.Context, client dynamoAPI, tableName, id string) error {
	_, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

func unmarshalItems[T any](items []map[string]types.AttributeValue, kind string) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var rec T
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("records: decode %s: %w", kind, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var (
	_ PatientStore     = (*DynamoPatientStore)(nil)
	_ AppointmentStore = (*DynamoAppointmentStore)(nil)
)
