package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order dibuat oleh subsystem ordering di hulu; service ini hanya baca
// dan set is_paid lewat InsertPayment.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	IsPaid     bool            `json:"is_paid"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Payment 1:1 dengan Order (UNIQUE di storage). Immutable setelah dibuat.
type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Status        Status          `json:"status"`
	TransactionID string          `json:"transaction_id"`
	PaidAt        time.Time       `json:"paid_at"`
}

// MethodUnknown dipakai kalau client tidak kirim method.
const MethodUnknown = "unknown"

type CreatePaymentInput struct {
	OrderID string
	Amount  string
	Method  string
}
