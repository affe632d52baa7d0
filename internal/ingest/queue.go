// Package ingest accepts chatbot booking events over a webhook, buffers them
// on a queue, and writes them into the appointments collection.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-crm/internal/records"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// AppointmentEvent is the booking payload the chatbot posts. Field names
// follow the chatbot's snake_case convention; clinic identification may be a
// tenant id, a clinic name, or only the WhatsApp number the booking came in
// on.
type AppointmentEvent struct {
	ClinicID        string        `json:"clinicId,omitempty"`
	ClinicName      string        `json:"clinic_name,omitempty"`
	PatientName     string        `json:"patient_name"`
	Phone           string        `json:"phone"`
	Email           string        `json:"email,omitempty"`
	Service         string        `json:"service,omitempty"`
	Price           records.Price `json:"price,omitempty"`
	AppointmentDate string        `json:"appointment_date,omitempty"`
	AppointmentTime string        `json:"appointment_time,omitempty"`
	Status          string        `json:"status,omitempty"`
	// Channel is the clinic-side WhatsApp number the booking arrived on.
	Channel string `json:"channel,omitempty"`
}

type queuePayload struct {
	ID    string           `json:"id"`
	Event AppointmentEvent `json:"event"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("ingest: failed to encode payload: %w", err)
	}

	return payload, string(body), nil
}
