package records

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDynamoPatientStore_ListByClinicScansWithFilter(t *testing.T) {
	mock := &mockDynamo{
		scanOutputs: []*dynamodb.ScanOutput{{
			Items: []map[string]types.AttributeValue{{
				"id":       &types.AttributeValueMemberS{Value: "p1"},
				"clinicId": &types.AttributeValueMemberS{Value: "clinic1"},
				"price":    &types.AttributeValueMemberN{Value: "200"},
			}},
		}},
	}
	store := NewDynamoPatientStore(mock, "patients", nil)

	recs, err := store.ListByClinic(context.Background(), "clinic1")
	if err != nil {
		t.Fatalf("ListByClinic returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "p1" || recs[0].Price != 200 {
		t.Fatalf("unexpected records: %#v", recs)
	}

	input := mock.scanInputs[0]
	if *input.TableName != "patients" {
		t.Fatalf("unexpected table: %s", *input.TableName)
	}
	if *input.FilterExpression != "clinicId = :cid" {
		t.Fatalf("unexpected filter: %s", *input.FilterExpression)
	}
	cid := input.ExpressionAttributeValues[":cid"].(*types.AttributeValueMemberS).Value
	if cid != "clinic1" {
		t.Fatalf("unexpected :cid value: %s", cid)
	}
}

func TestDynamoPatientStore_ListByClinicFollowsPagination(t *testing.T) {
	key := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "p1"}}
	mock := &mockDynamo{
		scanOutputs: []*dynamodb.ScanOutput{
			{
				Items: []map[string]types.AttributeValue{{
					"id": &types.AttributeValueMemberS{Value: "p1"},
				}},
				LastEvaluatedKey: key,
			},
			{
				Items: []map[string]types.AttributeValue{{
					"id": &types.AttributeValueMemberS{Value: "p2"},
				}},
			},
		},
	}
	store := NewDynamoPatientStore(mock, "patients", nil)

	recs, err := store.ListByClinic(context.Background(), "clinic1")
	if err != nil {
		t.Fatalf("ListByClinic returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected both pages, got %d records", len(recs))
	}
	if len(mock.scanInputs) != 2 {
		t.Fatalf("expected 2 scan calls, got %d", len(mock.scanInputs))
	}
	if mock.scanInputs[1].ExclusiveStartKey == nil {
		t.Fatal("expected second scan to resume from LastEvaluatedKey")
	}
}

func TestDynamoAppointmentStore_VisibilityCoversLegacyRows(t *testing.T) {
	mock := &mockDynamo{scanOutputs: []*dynamodb.ScanOutput{{}}}
	store := NewDynamoAppointmentStore(mock, "appointments", nil)

	if _, err := store.ListVisibleToClinic(context.Background(), "clinic1"); err != nil {
		t.Fatalf("ListVisibleToClinic returned error: %v", err)
	}

	filter := *mock.scanInputs[0].FilterExpression
	for _, clause := range []string{
		"clinicId = :cid",
		"clinic_name = :cid",
		"attribute_not_exists(clinicId)",
		"attribute_not_exists(clinic_name)",
	} {
		if !strings.Contains(filter, clause) {
			t.Fatalf("filter missing %q: %s", clause, filter)
		}
	}
	if mock.scanInputs[0].ExpressionAttributeValues[":empty"].(*types.AttributeValueMemberS).Value != "" {
		t.Fatal("expected :empty placeholder for blank tenant keys")
	}
}

func TestDynamoAppointmentStore_DecodesLegacyStringPrice(t *testing.T) {
	mock := &mockDynamo{
		scanOutputs: []*dynamodb.ScanOutput{{
			Items: []map[string]types.AttributeValue{{
				"id":           &types.AttributeValueMemberS{Value: "a1"},
				"clinic_name":  &types.AttributeValueMemberS{Value: "clinic1"},
				"patient_name": &types.AttributeValueMemberS{Value: "Asha"},
				"price":        &types.AttributeValueMemberS{Value: "150"},
			}},
		}},
	}
	store := NewDynamoAppointmentStore(mock, "appointments", nil)

	recs, err := store.ListVisibleToClinic(context.Background(), "clinic1")
	if err != nil {
		t.Fatalf("ListVisibleToClinic returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].Price != 150 {
		t.Fatalf("expected string price to decode as 150, got %#v", recs)
	}
}

func TestDynamoPatientStore_GetNotFound(t *testing.T) {
	mock := &mockDynamo{getOutput: &dynamodb.GetItemOutput{}}
	store := NewDynamoPatientStore(mock, "patients", nil)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDynamoPatientStore_PutMarshalsPriceAsNumber(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoPatientStore(mock, "patients", nil)

	err := store.Put(context.Background(), PatientRecord{ID: "p1", ClinicID: "clinic1", Price: 49.5})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	price, ok := mock.putInput.Item["price"].(*types.AttributeValueMemberN)
	if !ok || price.Value != "49.5" {
		t.Fatalf("expected numeric price attribute, got %#v", mock.putInput.Item["price"])
	}

	var stored PatientRecord
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored item: %v", err)
	}
	if stored.ClinicID != "clinic1" {
		t.Fatalf("unexpected stored record: %#v", stored)
	}
}

func TestDynamoPatientStore_DeleteMissingRowIsNotFound(t *testing.T) {
	mock := &mockDynamo{deleteErr: &types.ConditionalCheckFailedException{}}
	store := NewDynamoPatientStore(mock, "patients", nil)

	err := store.Delete(context.Background(), "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if expr := mock.deleteInput.ConditionExpression; expr == nil || *expr != "attribute_exists(id)" {
		t.Fatalf("expected existence condition, got %v", expr)
	}
}

func TestDynamoAppointmentStore_FindByPhoneCombinesFilters(t *testing.T) {
	mock := &mockDynamo{scanOutputs: []*dynamodb.ScanOutput{{}}}
	store := NewDynamoAppointmentStore(mock, "appointments", nil)

	if _, err := store.FindByPhone(context.Background(), "clinic1", "555"); err != nil {
		t.Fatalf("FindByPhone returned error: %v", err)
	}

	filter := *mock.scanInputs[0].FilterExpression
	if !strings.HasPrefix(filter, "phone = :phone AND (") {
		t.Fatalf("expected phone filter wrapping visibility, got %s", filter)
	}
	phone := mock.scanInputs[0].ExpressionAttributeValues[":phone"].(*types.AttributeValueMemberS).Value
	if phone != "555" {
		t.Fatalf("unexpected :phone value: %s", phone)
	}
}

func TestDynamoStore_ScanErrorsAreWrapped(t *testing.T) {
	mock := &mockDynamo{scanErr: errors.New("throttled")}
	store := NewDynamoAppointmentStore(mock, "appointments", nil)

	_, err := store.ListVisibleToClinic(context.Background(), "clinic1")
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped scan error, got %v", err)
	}
}

type mockDynamo struct {
	scanInputs  []*dynamodb.ScanInput
	scanOutputs []*dynamodb.ScanOutput
	scanErr     error
	getOutput   *dynamodb.GetItemOutput
	getErr      error
	putInput    *dynamodb.PutItemInput
	putErr      error
	deleteInput *dynamodb.DeleteItemInput
	deleteErr   error
}

func (m *mockDynamo) Scan(_ context.Context, input *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	// Copy: scanAll mutates the input between pages.
	saved := *input
	m.scanInputs = append(m.scanInputs, &saved)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	if len(m.scanOutputs) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	out := m.scanOutputs[0]
	m.scanOutputs = m.scanOutputs[1:]
	return out, nil
}

func (m *mockDynamo) GetItem(_ context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockDynamo) PutItem(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = input
	return &dynamodb.PutItemOutput{}, m.putErr
}

func (m *mockDynamo) DeleteItem(_ context.Context, input *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.deleteInput = input
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &dynamodb.DeleteItemOutput{}, nil
}
