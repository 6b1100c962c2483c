package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys for the two event kinds published by the web app.
const (
	KeyLesseeRegistered = "lease.registered"
	KeyPaymentRecorded  = "payment.recorded"
)

// LesseeRegisteredMessage announces a completed registration. Consumers
// fetch any further state from the store; the message carries identifiers
// only.
type LesseeRegisteredMessage struct {
	MessageID string    `json:"message_id"`
	LesseeID  string    `json:"lessee_id"`
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentRecordedMessage announces an appended payment.
type PaymentRecordedMessage struct {
	MessageID   string    `json:"message_id"`
	PaymentID   string    `json:"payment_id"`
	LesseeID    string    `json:"lessee_id"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLesseeRegisteredMessage(lesseeID, vehicleID string) *LesseeRegisteredMessage {
	return &LesseeRegisteredMessage{
		MessageID: uuid.NewString(),
		LesseeID:  lesseeID,
		VehicleID: vehicleID,
		Timestamp: time.Now(),
	}
}

func NewPaymentRecordedMessage(paymentID, lesseeID string, amountCents int64) *PaymentRecordedMessage {
	return &PaymentRecordedMessage{
		MessageID:   uuid.NewString(),
		PaymentID:   paymentID,
		LesseeID:    lesseeID,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

func (m *LesseeRegisteredMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func LesseeRegisteredFromJSON(data []byte) (*LesseeRegisteredMessage, error) {
	var m LesseeRegisteredMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func PaymentRecordedFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var m PaymentRecordedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
