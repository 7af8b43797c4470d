package amqp

import (
	"encoding/json"
	"time"
)

// SeriesCreatedMessage announces that a generation batch was committed.
// It carries only identifiers; consumers fetch the rows from the database.
type SeriesCreatedMessage struct {
	SeriesID  string    `json:"series_id"`
	OwnerID   int64     `json:"owner_id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSeriesCreatedMessage creates a series created notification.
func NewSeriesCreatedMessage(seriesID string, ownerID int64, count int) *SeriesCreatedMessage {
	return &SeriesCreatedMessage{
		SeriesID:  seriesID,
		OwnerID:   ownerID,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SeriesCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SeriesCreatedMessageFromJSON creates a message from JSON bytes
func SeriesCreatedMessageFromJSON(data []byte) (*SeriesCreatedMessage, error) {
	var msg SeriesCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// InstallmentPaidMessage announces a payment-flag change on one installment.
type InstallmentPaidMessage struct {
	ID        int64     `json:"id"`
	Paid      bool      `json:"paid"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInstallmentPaidMessage creates a payment toggle notification.
func NewInstallmentPaidMessage(id int64, paid bool) *InstallmentPaidMessage {
	return &InstallmentPaidMessage{
		ID:        id,
		Paid:      paid,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *InstallmentPaidMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InstallmentPaidMessageFromJSON creates a message from JSON bytes
func InstallmentPaidMessageFromJSON(data []byte) (*InstallmentPaidMessage, error) {
	var msg InstallmentPaidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
