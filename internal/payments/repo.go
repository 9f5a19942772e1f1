package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store: kontrak sempit ke durable store. Handler/service tidak boleh
// nyentuh SQL langsung.
type Store interface {
	// FindOrder resolve order by id DAN owner sekaligus (anti info-leak).
	FindOrder(ctx context.Context, orderID, userID string) (Order, error)
	FindPaymentByOrder(ctx context.Context, orderID string) (Payment, error)
	// FindPayment hanya return payment yang reachable lewat order milik userID.
	FindPayment(ctx context.Context, paymentID, userID string) (Payment, error)
	// InsertPayment: exactly-once per order, dijamin UNIQUE(order_id) di DB.
	// Unique violation dilaporkan sebagai ErrDuplicatePayment.
	InsertPayment(ctx context.Context, p Payment) error
	// ListPayments milik user, terbaru dulu. limit <= 0 artinya tanpa limit.
	ListPayments(ctx context.Context, userID string, limit, offset int) ([]Payment, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) FindOrder(ctx context.Context, orderID, userID string) (Order, error) {
	var (
		o     Order
		total string
	)
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, total_price::text, is_paid, created_at
		FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID).
		Scan(&o.ID, &o.UserID, &total, &o.IsPaid, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	// NUMERIC di-scan sebagai text -> decimal, jangan pernah lewat float.
	o.TotalPrice, err = decimal.NewFromString(total)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) FindPaymentByOrder(ctx context.Context, orderID string) (Payment, error) {
	return r.scanPayment(ctx, `
		SELECT id, order_id, amount::text, method, status, transaction_id, paid_at
		FROM payments WHERE order_id=$1`, orderID)
}

func (r *Repo) FindPayment(ctx context.Context, paymentID, userID string) (Payment, error) {
	return r.scanPayment(ctx, `
		SELECT p.id, p.order_id, p.amount::text, p.method, p.status, p.transaction_id, p.paid_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.id=$1 AND o.user_id=$2`, paymentID, userID)
}

func (r *Repo) scanPayment(ctx context.Context, q string, args ...any) (Payment, error) {
	var (
		p      Payment
		amount string
	)
	err := r.DB.QueryRow(ctx, q, args...).
		Scan(&p.ID, &p.OrderID, &amount, &p.Method, &p.Status, &p.TransactionID, &p.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

// InsertPayment tulis payment + set is_paid di order dalam satu tx.
// Dua request balapan di order yang sama: yang kalah kena unique violation
// di payments.order_id dan dapat ErrDuplicatePayment, bukan internal error.
func (r *Repo) InsertPayment(ctx context.Context, p Payment) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO payments(id, order_id, amount, method, status, transaction_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.Amount.String(), p.Method, p.Status, p.TransactionID, p.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET is_paid = TRUE WHERE id=$1`, p.OrderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) ListPayments(ctx context.Context, userID string, limit, offset int) ([]Payment, error) {
	q := `
		SELECT p.id, p.order_id, p.amount::text, p.method, p.status, p.transaction_id, p.paid_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.user_id=$1
		ORDER BY p.paid_at DESC, p.id`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var (
			p      Payment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &amount, &p.Method, &p.Status, &p.TransactionID, &p.PaidAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
