package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"milksync/internal/core"
)

// DeliverySyncedMessage announces a delivery that was appended to the sheet.
type DeliverySyncedMessage struct {
	EventID      string    `json:"event_id"`
	CustomerID   *int64    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	Date         string    `json:"date,omitempty"`
	MilkType     string    `json:"milk_type,omitempty"`
	Quantity     *float64  `json:"quantity,omitempty"`
	MilkTotal    *float64  `json:"milk_total,omitempty"`
	SyncedAt     time.Time `json:"synced_at"`
}

// NewDeliverySyncedMessage creates a message with a fresh event id. The
// record's values are read loosely: a customer id of "12" becomes 12, a
// total that is not a number is left out.
func NewDeliverySyncedMessage(rec core.DeliveryRecord, syncedAt time.Time) *DeliverySyncedMessage {
	msg := &DeliverySyncedMessage{
		EventID:      uuid.NewString(),
		CustomerName: core.Text(rec.CustomerName),
		Date:         core.Text(rec.Date),
		MilkType:     core.Text(rec.MilkType),
		SyncedAt:     syncedAt.UTC(),
	}
	if id, ok := core.ParseLooseInt(rec.CustomerID); ok {
		id64 := int64(id)
		msg.CustomerID = &id64
	}
	if q, ok := core.ParseLooseFloat(rec.Quantity); ok {
		msg.Quantity = &q
	}
	if total, ok := core.ParseLooseFloat(rec.MilkTotal); ok {
		msg.MilkTotal = &total
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *DeliverySyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DeliverySyncedMessageFromJSON decodes a message and checks it carries an event id.
func DeliverySyncedMessageFromJSON(data []byte) (*DeliverySyncedMessage, error) {
	var msg DeliverySyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" {
		return nil, errors.New("message has no event_id")
	}
	return &msg, nil
}
