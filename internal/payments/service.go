package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service: intake pembayaran. Validasi linear lalu satu insert;
// tidak ada partial write di jalur gagal.
type Service struct {
	Store Store
	Log   *zap.Logger

	// Clock & id generator di-inject supaya deterministik di test.
	Now   func() time.Time
	NewID func() string
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{
		Store: store,
		Log:   log,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// CreatePayment mencatat tepat satu payment untuk satu order.
// Urutan validasi mengikuti kontrak:
//  1. field wajib
//  2. order ada & milik caller (tanpa membedakan "bukan punyamu" vs "tidak ada")
//  3. belum pernah dibayar
//  4. amount == total order, dibandingkan sebagai decimal exact
func (s *Service) CreatePayment(ctx context.Context, userID string, in CreatePaymentInput) (Payment, error) {
	if in.OrderID == "" || in.Amount == "" {
		return Payment{}, ErrMissingField
	}

	order, err := s.Store.FindOrder(ctx, in.OrderID, userID)
	if errors.Is(err, ErrNotFound) {
		return Payment{}, ErrOrderNotFound
	}
	if err != nil {
		return Payment{}, err
	}

	if _, err := s.Store.FindPaymentByOrder(ctx, order.ID); err == nil {
		return Payment{}, ErrDuplicatePayment
	} else if !errors.Is(err, ErrNotFound) {
		return Payment{}, err
	}

	// Gagal parse dihitung mismatch juga (representasi beda = tidak cocok).
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil || !amount.Equal(order.TotalPrice) {
		return Payment{}, ErrAmountMismatch
	}

	method := in.Method
	if method == "" {
		method = MethodUnknown
	}

	p := Payment{
		ID:            s.NewID(),
		OrderID:       order.ID,
		Amount:        amount,
		Method:        method,
		Status:        StatusCompleted,
		TransactionID: s.NewID(),
		PaidAt:        s.Now().UTC(),
	}

	if err := s.Store.InsertPayment(ctx, p); err != nil {
		// Balapan dua request: yang kalah di unique constraint tetap
		// dilaporkan sebagai duplicate, bukan internal error.
		var rej *Rejection
		if errors.As(err, &rej) {
			return Payment{}, rej
		}
		return Payment{}, err
	}

	s.Log.Info("payment recorded",
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
		zap.String("amount", p.Amount.String()),
		zap.String("method", p.Method),
	)
	return p, nil
}

// GetPayment: read-only, tidak ada mutasi. ErrNotFound juga untuk payment
// yang ada tapi bukan lewat order milik caller.
func (s *Service) GetPayment(ctx context.Context, userID, paymentID string) (Payment, error) {
	return s.Store.FindPayment(ctx, paymentID, userID)
}

// ListPayments: riwayat pembayaran milik caller sendiri.
func (s *Service) ListPayments(ctx context.Context, userID string, limit, offset int) ([]Payment, error) {
	return s.Store.ListPayments(ctx, userID, limit, offset)
}
