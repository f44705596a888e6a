package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alovak/payment-gateway-playground/gateway/bank"
	"github.com/alovak/payment-gateway-playground/gateway/models"
	"github.com/alovak/payment-gateway-playground/internal/metrics"
	"github.com/alovak/payment-gateway-playground/internal/validation"
	"github.com/google/uuid"
)

// bankValidator is the capability the processor needs from the bank leg.
// Both the HTTP client and the ISO 8583 connector satisfy it.
type bankValidator interface {
	Validate(ctx context.Context, req bank.ValidationRequest) (bank.ValidationResponse, error)
}

// Service processes payment requests: structural validation, the bank
// authorization call, status derivation and storage of the result.
type Service struct {
	repo    *Repository
	bank    bankValidator
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo *Repository, bankClient bankValidator, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		bank:    bankClient,
		metrics: m,
		now:     time.Now,
	}
}

// Process runs one payment attempt. A request that fails structural
// validation is stored as Rejected without calling the bank. When the bank
// is unreachable nothing is stored and bank.ErrUnavailable is returned.
// Each call produces exactly one new Payment; existing records are never
// updated.
func (s *Service) Process(ctx context.Context, req models.PostPaymentRequest) (*models.Payment, error) {
	payment := &models.Payment{
		ID:                 uuid.New().String(),
		CardNumberLastFour: lastFour(req.CardNumber),
		ExpiryMonth:        req.ExpiryMonth,
		ExpiryYear:         req.ExpiryYear,
		Currency:           req.Currency,
		Amount:             req.Amount,
		Status:             models.PaymentStatusAuthorized,
	}

	if !validation.ValidCardNumber(req.CardNumber) ||
		!validation.ValidFutureDate(req.ExpiryMonth, req.ExpiryYear, s.now()) ||
		!validation.ValidCurrency(req.Currency) ||
		!validation.ValidCVV(req.CVV) {
		payment.Status = models.PaymentStatusRejected

		if err := s.repo.Add(payment); err != nil {
			return nil, fmt.Errorf("storing rejected payment: %w", err)
		}
		s.metrics.PaymentsProcessed.WithLabelValues(string(payment.Status)).Inc()

		return payment, nil
	}

	// The card number sent to the bank is the stored last-four value, not
	// the full number from the request. Kept until the system owner
	// confirms the intended behavior.
	result, err := s.bank.Validate(ctx, bank.ValidationRequest{
		CardNumber: payment.CardNumberLastFour,
		ExpiryDate: fmt.Sprintf("%d/%d", req.ExpiryMonth, req.ExpiryYear),
		Currency:   req.Currency,
		Amount:     req.Amount,
		CVV:        req.CVV,
	})
	if err != nil {
		if errors.Is(err, bank.ErrUnavailable) {
			s.metrics.BankUnavailable.Inc()
		}
		return nil, fmt.Errorf("validating payment with bank: %w", err)
	}

	if result.Authorized {
		payment.Status = models.PaymentStatusAuthorized
	} else {
		payment.Status = models.PaymentStatusDeclined
	}

	if err := s.repo.Add(payment); err != nil {
		return nil, fmt.Errorf("storing payment: %w", err)
	}
	s.metrics.PaymentsProcessed.WithLabelValues(string(payment.Status)).Inc()

	return payment, nil
}

// Get returns a previously stored payment.
func (s *Service) Get(id string) (*models.Payment, error) {
	payment, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("finding payment: %w", err)
	}

	return payment, nil
}

func lastFour(cardNumber string) string {
	stripped := strings.ReplaceAll(cardNumber, " ", "")
	if len(stripped) <= 4 {
		return stripped
	}
	return stripped[len(stripped)-4:]
}
