package payments

import (
	"encoding/json"
	"time"
)

const EventPaymentRecorded = "PaymentRecorded"

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // PaymentRecorded
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "payment-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// PaymentRecordedPayload dikonsumsi admin/reporting (read-only di sana).
// Amount dikirim sebagai string decimal, jangan float di wire.
type PaymentRecordedPayload struct {
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	Status        Status    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}
