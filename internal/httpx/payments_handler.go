package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-payment-intake.git/internal/auth"
	kafkax "github.com/ariefcatur/go-payment-intake.git/internal/kafka"
	"github.com/ariefcatur/go-payment-intake.git/internal/payments"
	"github.com/ariefcatur/go-payment-intake.git/internal/redisx"
)

// Publisher dipenuhi *kafkax.Producer; di test diganti recorder.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type PaymentsHandler struct {
	Service  *payments.Service
	Redis    *redis.Client
	Producer Publisher
	Log      *zap.Logger
	Name     string // service name di envelope event
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/", h.createPayment)
		r.Get("/", h.listPayments)
		r.Get("/{id}", h.getPayment)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// amountField terima string maupun number JSON; dua-duanya disimpan
// mentah sebagai string dan diparse exact decimal di service.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*a = amountField(b)
	return nil
}

type CreatePaymentReq struct {
	OrderID string      `json:"order_id"`
	Amount  amountField `json:"amount"`
	Method  string      `json:"method"`
}

func (h *PaymentsHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.FromContext(r.Context())

	var req CreatePaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.CreatePayment(ctx, userID, payments.CreatePaymentInput{
		OrderID: req.OrderID,
		Amount:  string(req.Amount),
		Method:  req.Method,
	})
	if err != nil {
		var rej *payments.Rejection
		if errors.As(err, &rej) {
			writeJSON(w, http.StatusBadRequest, map[string]string{rej.Field: rej.Message})
			return
		}
		h.Log.Error("create payment", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	// Cache representasi payment buat GET cepat; key di-scope per owner.
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyPayment, userID, p.ID)
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(p), redisx.TTLPaymentCache).Err()
	}

	// Publish event buat sisi admin/reporting (envelope v1).
	if h.Producer != nil {
		ev := payments.Envelope{
			EventID:       uuid.NewString(),
			EventType:     payments.EventPaymentRecorded,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Name,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: p.OrderID,
		}
		ev.Payload = kafkax.MustMarshal(payments.PaymentRecordedPayload{
			PaymentID:     p.ID,
			OrderID:       p.OrderID,
			UserID:        userID,
			Amount:        p.Amount.String(),
			Method:        p.Method,
			Status:        p.Status,
			TransactionID: p.TransactionID,
			PaidAt:        p.PaidAt,
		})
		h.Producer.Publish(payments.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventPaymentRecorded)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentsHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.FromContext(r.Context())
	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache (hanya hit untuk owner karena key per user)
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyPayment, userID, paymentID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback DB
	p, err := h.Service.GetPayment(ctx, userID, paymentID)
	if errors.Is(err, payments.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		h.Log.Error("get payment", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyPayment, userID, paymentID)
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(p), redisx.TTLPaymentCache).Err()
	}
	writeJSON(w, http.StatusOK, p)
}

type ListPaymentsResp struct {
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Results  []payments.Payment `json:"results"`
}

func (h *PaymentsHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.FromContext(r.Context())
	page := ParsePage(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, offset := page.LimitOffset()
	ps, err := h.Service.ListPayments(ctx, userID, limit, offset)
	if err != nil {
		h.Log.Error("list payments", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if ps == nil {
		ps = []payments.Payment{}
	}

	if page.Disabled {
		writeJSON(w, http.StatusOK, ps)
		return
	}
	writeJSON(w, http.StatusOK, ListPaymentsResp{Page: page.Number, PageSize: page.Size, Results: ps})
}
