package payments

type Status string

// Intake hanya pernah menulis completed; status lain dipakai oleh
// subsystem lain (refund, async gateway) yang baca tabel yang sama.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)
