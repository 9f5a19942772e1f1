package payments

import "errors"

// Rejection: error validasi yang dikembalikan ke client, keyed per field.
type Rejection struct {
	Field   string
	Message string
}

func (r *Rejection) Error() string { return r.Field + ": " + r.Message }

var (
	ErrMissingField     = &Rejection{Field: "detail", Message: "order_id and amount are required"}
	ErrOrderNotFound    = &Rejection{Field: "order", Message: "order not found or not owned by user"}
	ErrDuplicatePayment = &Rejection{Field: "payment", Message: "order already has a payment"}
	ErrAmountMismatch   = &Rejection{Field: "amount", Message: "amount does not match order total"}
)

// ErrNotFound dari store: record tidak ada ATAU bukan milik principal.
// Sengaja tidak dibedakan supaya tidak bocor info kepemilikan.
var ErrNotFound = errors.New("not found")
