package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alovak/payment-gateway-playground/gateway/bank"
	"github.com/alovak/payment-gateway-playground/gateway/models"
	"github.com/alovak/payment-gateway-playground/internal/metrics"
	"github.com/stretchr/testify/require"
)

type fakeBank struct {
	mu      sync.Mutex
	resp    bank.ValidationResponse
	err     error
	calls   int
	lastReq bank.ValidationRequest
}

func (f *fakeBank) Validate(ctx context.Context, req bank.ValidationRequest) (bank.ValidationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeBank) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(b *fakeBank) (*Service, *Repository) {
	repo := NewRepository()
	s := NewService(repo, b, metrics.New())
	s.now = func() time.Time {
		return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	}
	return s, repo
}

func validRequest() models.PostPaymentRequest {
	return models.PostPaymentRequest{
		CardNumber:  "1111 2222 3333 4444",
		ExpiryMonth: 4,
		ExpiryYear:  2030,
		Currency:    "GBP",
		Amount:      100_00,
		CVV:         "123",
	}
}

func TestProcess_RejectedWithoutCallingBank(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.PostPaymentRequest)
	}{
		{"card number too long", func(r *models.PostPaymentRequest) { r.CardNumber = "1111 2222 3333 4444 5555" }},
		{"card number too short", func(r *models.PostPaymentRequest) { r.CardNumber = "1111 2222 3333" }},
		{"card number not numeric", func(r *models.PostPaymentRequest) { r.CardNumber = "A111 2b22 3333 4444" }},
		{"expiry month zero", func(r *models.PostPaymentRequest) { r.ExpiryMonth = 0 }},
		{"expiry month thirteen", func(r *models.PostPaymentRequest) { r.ExpiryMonth = 13 }},
		{"expiry in the past", func(r *models.PostPaymentRequest) { r.ExpiryMonth = 4; r.ExpiryYear = 2024 }},
		{"currency too long", func(r *models.PostPaymentRequest) { r.Currency = "GBRD" }},
		{"currency too short", func(r *models.PostPaymentRequest) { r.Currency = "GB" }},
		{"cvv too short", func(r *models.PostPaymentRequest) { r.CVV = "12" }},
		{"cvv too long", func(r *models.PostPaymentRequest) { r.CVV = "12345" }},
		{"cvv not numeric", func(r *models.PostPaymentRequest) { r.CVV = "1a2B" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := &fakeBank{resp: bank.ValidationResponse{Authorized: true}}
			s, repo := newTestService(b)

			req := validRequest()
			c.mutate(&req)

			payment, err := s.Process(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, models.PaymentStatusRejected, payment.Status)
			require.Equal(t, 0, b.callCount(), "bank must not be called for rejected payments")

			// the rejected attempt is stored and retrievable
			stored, err := s.Get(payment.ID)
			require.NoError(t, err)
			require.Equal(t, payment, stored)

			n, err := repo.Count()
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}
}

func TestProcess_AuthorizedAndDeclined(t *testing.T) {
	t.Run("authorized", func(t *testing.T) {
		b := &fakeBank{resp: bank.ValidationResponse{Authorized: true, AuthorizationCode: "12345"}}
		s, _ := newTestService(b)

		payment, err := s.Process(context.Background(), validRequest())
		require.NoError(t, err)
		require.Equal(t, models.PaymentStatusAuthorized, payment.Status)
		require.Equal(t, 1, b.callCount())
	})

	t.Run("declined", func(t *testing.T) {
		b := &fakeBank{resp: bank.ValidationResponse{Authorized: false}}
		s, _ := newTestService(b)

		payment, err := s.Process(context.Background(), validRequest())
		require.NoError(t, err)
		require.Equal(t, models.PaymentStatusDeclined, payment.Status)
	})
}

func TestProcess_BankUnavailableStoresNothing(t *testing.T) {
	b := &fakeBank{err: bank.ErrUnavailable}
	s, repo := newTestService(b)

	_, err := s.Process(context.Background(), validRequest())
	require.ErrorIs(t, err, bank.ErrUnavailable)

	n, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestProcess_GenericBankErrorStoresNothing(t *testing.T) {
	b := &fakeBank{err: fmt.Errorf("bank returned status=400")}
	s, repo := newTestService(b)

	_, err := s.Process(context.Background(), validRequest())
	require.Error(t, err)
	require.False(t, errors.Is(err, bank.ErrUnavailable))

	n, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestProcess_ValidationRequestCarriesLastFour(t *testing.T) {
	b := &fakeBank{resp: bank.ValidationResponse{Authorized: true}}
	s, _ := newTestService(b)

	payment, err := s.Process(context.Background(), validRequest())
	require.NoError(t, err)

	require.Equal(t, "4444", payment.CardNumberLastFour)
	require.Equal(t, bank.ValidationRequest{
		CardNumber: "4444",
		ExpiryDate: "4/2030",
		Currency:   "GBP",
		Amount:     100_00,
		CVV:        "123",
	}, b.lastReq)
}

func TestProcess_UniqueIDsUnderConcurrency(t *testing.T) {
	b := &fakeBank{resp: bank.ValidationResponse{Authorized: true}}
	s, repo := newTestService(b)

	const n = 50

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payment, err := s.Process(context.Background(), validRequest())
			if err != nil {
				t.Error(err)
				return
			}
			ids <- payment.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate payment id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, n)

	stored, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, n, stored)
}

func TestGet(t *testing.T) {
	b := &fakeBank{resp: bank.ValidationResponse{Authorized: true}}
	s, _ := newTestService(b)

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Get("d2b8b6b2-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("repeated lookups return identical values", func(t *testing.T) {
		payment, err := s.Process(context.Background(), validRequest())
		require.NoError(t, err)

		first, err := s.Get(payment.ID)
		require.NoError(t, err)
		second, err := s.Get(payment.ID)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, payment, first)
	})
}
