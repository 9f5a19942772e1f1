package httpx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-payment-intake.git/internal/auth"
	"github.com/ariefcatur/go-payment-intake.git/internal/httpx"
	"github.com/ariefcatur/go-payment-intake.git/internal/payments"
)

type memStore struct {
	mu      sync.Mutex
	orders  map[string]payments.Order
	byID    map[string]payments.Payment
	byOrder map[string]payments.Payment
}

func newMemStore(orders ...payments.Order) *memStore {
	s := &memStore{
		orders:  map[string]payments.Order{},
		byID:    map[string]payments.Payment{},
		byOrder: map[string]payments.Payment{},
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memStore) FindOrder(_ context.Context, orderID, userID string) (payments.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return payments.Order{}, payments.ErrNotFound
	}
	return o, nil
}

func (s *memStore) FindPaymentByOrder(_ context.Context, orderID string) (payments.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byOrder[orderID]; ok {
		return p, nil
	}
	return payments.Payment{}, payments.ErrNotFound
}

func (s *memStore) FindPayment(_ context.Context, paymentID, userID string) (payments.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[paymentID]
	if !ok {
		return payments.Payment{}, payments.ErrNotFound
	}
	if o, ok := s.orders[p.OrderID]; !ok || o.UserID != userID {
		return payments.Payment{}, payments.ErrNotFound
	}
	return p, nil
}

func (s *memStore) InsertPayment(_ context.Context, p payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOrder[p.OrderID]; exists {
		return payments.ErrDuplicatePayment
	}
	s.byOrder[p.OrderID] = p
	s.byID[p.ID] = p
	return nil
}

func (s *memStore) ListPayments(_ context.Context, userID string, limit, offset int) ([]payments.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payments.Payment
	for _, p := range s.byID {
		if o, ok := s.orders[p.OrderID]; ok && o.UserID == userID {
			out = append(out, p)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type publisherRecorder struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (r *publisherRecorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func newTestHandler(store payments.Store) (*httpx.PaymentsHandler, *publisherRecorder, http.Handler) {
	svc := payments.NewService(store, zap.NewNop())
	svc.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	rec := &publisherRecorder{}
	h := &httpx.PaymentsHandler{
		Service:  svc,
		Producer: rec,
		Log:      zap.NewNop(),
		Name:     "payment-api-test",
	}
	router := httpx.NewRouter()
	h.Register(router)
	return h, rec, router
}

func seedOrder(id, userID, total string) payments.Order {
	return payments.Order{
		ID:         id,
		UserID:     userID,
		TotalPrice: decimal.RequireFromString(total),
		CreatedAt:  time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC),
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(auth.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePaymentEndpoint_Created(t *testing.T) {
	_, rec, router := newTestHandler(newMemStore(seedOrder("O1", "U", "49.99")))

	w := doJSON(t, router, http.MethodPost, "/payments", "U",
		`{"order_id":"O1","amount":"49.99","method":"card"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var p payments.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, payments.StatusCompleted, p.Status)
	assert.Equal(t, "O1", p.OrderID)
	assert.NotEmpty(t, p.TransactionID)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("49.99")))

	// event PaymentRecorded kepublish sekali, partition key = order_id
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, []byte("O1"), rec.msgs[0].Key)

	var env payments.Envelope
	require.NoError(t, json.Unmarshal(rec.msgs[0].Value, &env))
	assert.Equal(t, payments.EventPaymentRecorded, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "O1", env.CorrelationID)

	var payload payments.PaymentRecordedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, p.ID, payload.PaymentID)
	assert.Equal(t, "U", payload.UserID)
	assert.Equal(t, "49.99", payload.Amount)
}

func TestCreatePaymentEndpoint_AmountAsNumber(t *testing.T) {
	_, _, router := newTestHandler(newMemStore(seedOrder("O1", "U", "49.99")))

	w := doJSON(t, router, http.MethodPost, "/payments", "U",
		`{"order_id":"O1","amount":49.99,"method":"card"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreatePaymentEndpoint_FieldKeyedErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing amount", `{"order_id":"O1"}`, "detail"},
		{"missing order_id", `{"amount":"49.99"}`, "detail"},
		{"foreign order", `{"order_id":"O2","amount":"10.00"}`, "order"},
		{"unknown order", `{"order_id":"NOPE","amount":"10.00"}`, "order"},
		{"wrong amount", `{"order_id":"O1","amount":"5.01"}`, "amount"},
		{"garbage amount", `{"order_id":"O1","amount":"abc"}`, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, router := newTestHandler(newMemStore(
				seedOrder("O1", "U", "49.99"),
				seedOrder("O2", "V", "10.00"),
			))
			w := doJSON(t, router, http.MethodPost, "/payments", "U", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, tt.field)
		})
	}
}

func TestCreatePaymentEndpoint_Duplicate(t *testing.T) {
	_, _, router := newTestHandler(newMemStore(seedOrder("O1", "U", "49.99")))
	body := `{"order_id":"O1","amount":"49.99","method":"card"}`

	first := doJSON(t, router, http.MethodPost, "/payments", "U", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, router, http.MethodPost, "/payments", "U", body)
	require.Equal(t, http.StatusBadRequest, second.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Contains(t, resp, "payment")
}

func TestCreatePaymentEndpoint_Unauthorized(t *testing.T) {
	_, _, router := newTestHandler(newMemStore(seedOrder("O1", "U", "49.99")))

	w := doJSON(t, router, http.MethodPost, "/payments", "",
		`{"order_id":"O1","amount":"49.99"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPaymentEndpoint(t *testing.T) {
	_, _, router := newTestHandler(newMemStore(seedOrder("O1", "U", "49.99")))

	created := doJSON(t, router, http.MethodPost, "/payments", "U",
		`{"order_id":"O1","amount":"49.99","method":"card"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	var p payments.Payment
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &p))

	got := doJSON(t, router, http.MethodGet, "/payments/"+p.ID, "U", "")
	require.Equal(t, http.StatusOK, got.Code)
	var fetched payments.Payment
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &fetched))
	assert.Equal(t, p.ID, fetched.ID)
	assert.Equal(t, p.TransactionID, fetched.TransactionID)

	// bukan owner -> 404, sama seperti id ngawur
	foreign := doJSON(t, router, http.MethodGet, "/payments/"+p.ID, "V", "")
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	absent := doJSON(t, router, http.MethodGet, "/payments/NOPE", "V", "")
	assert.Equal(t, http.StatusNotFound, absent.Code)
	assert.JSONEq(t, foreign.Body.String(), absent.Body.String())
}

func TestListPaymentsEndpoint(t *testing.T) {
	store := newMemStore(
		seedOrder("O1", "U", "49.99"),
		seedOrder("O2", "U", "15.00"),
		seedOrder("O3", "V", "10.00"),
	)
	_, _, router := newTestHandler(store)

	for _, body := range []string{
		`{"order_id":"O1","amount":"49.99","method":"card"}`,
		`{"order_id":"O2","amount":"15.00","method":"cash"}`,
	} {
		w := doJSON(t, router, http.MethodPost, "/payments", "U", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, router, http.MethodPost, "/payments", "V",
		`{"order_id":"O3","amount":"10.00","method":"card"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// default: paginated wrapper, cuma payment milik U
	paged := doJSON(t, router, http.MethodGet, "/payments", "U", "")
	require.Equal(t, http.StatusOK, paged.Code)
	var resp httpx.ListPaymentsResp
	require.NoError(t, json.Unmarshal(paged.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 10, resp.PageSize)
	assert.Len(t, resp.Results, 2)

	// no_paginate -> plain array
	raw := doJSON(t, router, http.MethodGet, "/payments?no_paginate=true", "U", "")
	require.Equal(t, http.StatusOK, raw.Code)
	var list []payments.Payment
	require.NoError(t, json.Unmarshal(raw.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	// page_size=1 -> satu hasil
	one := doJSON(t, router, http.MethodGet, "/payments?page=1&page_size=1", "U", "")
	require.Equal(t, http.StatusOK, one.Code)
	var small httpx.ListPaymentsResp
	require.NoError(t, json.Unmarshal(one.Body.Bytes(), &small))
	assert.Len(t, small.Results, 1)
}
