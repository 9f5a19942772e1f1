package redisx

import "time"

const (
	// Cache representasi payment per owner: payment:{user_id}:{payment_id} -> payment JSON.
	// Key di-scope per user supaya cache hit tidak bocor lintas principal.
	KeyPayment = "payment:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLPaymentCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
