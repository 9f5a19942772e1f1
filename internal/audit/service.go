package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-payment-intake.git/internal/payments"
	"github.com/ariefcatur/go-payment-intake.git/internal/redisx"
)

// Service: konsumer payment.recorded. Nulis audit trail yang dibaca
// layar admin (list/filter by status, method, tanggal). Admin cuma baca.
type Service struct {
	Repo  *Repo
	Redis *redis.Client
	Log   *zap.Logger
}

// HandlePaymentRecorded: dipasang sebagai handler consumer.
func (s *Service) HandlePaymentRecorded(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env payments.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != payments.EventPaymentRecorded {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id); DB tetap jadi kebenaran lewat
	// ON CONFLICT di insert.
	dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	// 3) decode payload
	var p payments.PaymentRecordedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	if err := s.Repo.Append(ctx, env.EventID, p); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	s.Log.Info("payment audited",
		zap.String("event_id", env.EventID),
		zap.String("payment_id", p.PaymentID),
		zap.String("order_id", p.OrderID),
	)
	return nil
}

type Repo struct{ DB *pgxpool.Pool }

// Append idempotent by event_id: event ulang tidak bikin row dobel.
func (r *Repo) Append(ctx context.Context, eventID string, p payments.PaymentRecordedPayload) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payment_audit(event_id, payment_id, order_id, user_id, amount, method, status, transaction_id, paid_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, p.PaymentID, p.OrderID, p.UserID, p.Amount, p.Method, p.Status, p.TransactionID, p.PaidAt, time.Now().UTC(),
	)
	return err
}
