// Package records implements the reconciliation layer between the two
// collections that describe clinic appointments: dashboard-authored patient
// documents and chatbot-authored appointment documents. The two schemas
// drifted apart over time (synonym field names, optional tenant keys), so
// everything downstream of this package consumes only UnifiedRecord.
package records

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record status values. Free strings in stored documents; these are the
// defaults and the values the dashboard writes.
const (
	StatusPending   = "Pending"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

// Record origin markers.
const (
	SourceDashboard = "dashboard"
	SourceWhatsApp  = "whatsapp"
)

// Price tolerates the numeric drift in stored documents and request bodies:
// JSON numbers, numeric strings, or garbage. Anything unparseable becomes 0.
type Price float64

// UnmarshalJSON accepts numbers, quoted numbers, null, and junk.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Price(f)
	return nil
}

// UnmarshalDynamoDBAttributeValue accepts N, S, and NULL attributes.
func (p *Price) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = strings.TrimSpace(v.Value)
	default:
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Price(f)
	return nil
}

// MarshalDynamoDBAttributeValue always writes a number attribute.
func (p Price) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(float64(p), 'f', -1, 64)}, nil
}

// PatientRecord is the dashboard-authored document shape stored in the
// patients collection.
type PatientRecord struct {
	ID       string `dynamodbav:"id" json:"id"`
	ClinicID string `dynamodbav:"clinicId" json:"clinicId"`
	Name     string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Phone    string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Email    string `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Service  string `dynamodbav:"service,omitempty" json:"service,omitempty"`
	Price    Price  `dynamodbav:"price" json:"price"`
	Date     string `dynamodbav:"date,omitempty" json:"date,omitempty"`
	Time     string `dynamodbav:"time,omitempty" json:"time,omitempty"`
	Status   string `dynamodbav:"status,omitempty" json:"status,omitempty"`
}

// AppointmentRecord is the shared appointments collection shape. Both naming
// conventions appear in stored documents, sometimes on the same document:
// the dashboard convention (clinicId/name/date/time) and the chatbot
// convention (clinic_name/patient_name/appointment_date/appointment_time).
// Tenant keys are optional on legacy rows.
type AppointmentRecord struct {
	ID              string `dynamodbav:"id" json:"id"`
	ClinicID        string `dynamodbav:"clinicId,omitempty" json:"clinicId,omitempty"`
	ClinicName      string `dynamodbav:"clinic_name,omitempty" json:"clinic_name,omitempty"`
	PatientName     string `dynamodbav:"patient_name,omitempty" json:"patient_name,omitempty"`
	Name            string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Phone           string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Email           string `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Service         string `dynamodbav:"service,omitempty" json:"service,omitempty"`
	Price           Price  `dynamodbav:"price" json:"price"`
	AppointmentDate string `dynamodbav:"appointment_date,omitempty" json:"appointment_date,omitempty"`
	AppointmentTime string `dynamodbav:"appointment_time,omitempty" json:"appointment_time,omitempty"`
	Date            string `dynamodbav:"date,omitempty" json:"date,omitempty"`
	Time            string `dynamodbav:"time,omitempty" json:"time,omitempty"`
	Status          string `dynamodbav:"status,omitempty" json:"status,omitempty"`
	Source          string `dynamodbav:"source,omitempty" json:"source,omitempty"`
	CreatedAt       string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt       string `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// UnifiedRecord is the only shape the API and exports expose. Every field is
// populated; defaults are applied by the normalizers.
type UnifiedRecord struct {
	ID       string  `json:"id"`
	ClinicID string  `json:"clinicId"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Service  string  `json:"service"`
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Status   string  `json:"status"`
	Source   string  `json:"source"`
}

// CreatePatientRequest is the add-patient form body.
type CreatePatientRequest struct {
	ClinicID string `json:"clinicId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Service  string `json:"service"`
	Price    Price  `json:"price"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Status   string `json:"status"`
}

// Validate checks the request carries a tenant key.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.ClinicID) == "" {
		return ErrClinicIDRequired
	}
	return nil
}

// UpdateRecordRequest carries the edit form's changes. Nil fields are left
// untouched on the stored document.
type UpdateRecordRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Service *string `json:"service,omitempty"`
	Price   *Price  `json:"price,omitempty"`
	Date    *string `json:"date,omitempty"`
	Time    *string `json:"time,omitempty"`
	Status  *string `json:"status,omitempty"`
}
