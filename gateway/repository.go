package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/alovak/payment-gateway-playground/gateway/models"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
)

var ErrNotFound = fmt.Errorf("not found")

// Repository stores processed payments. The default backend keeps them in
// memory for the lifetime of the process; NewPGRepository switches to a
// Postgres table. Records are never updated or deleted after insertion.
type Repository struct {
	mu       sync.RWMutex
	payments []*models.Payment

	db *sql.DB
}

func NewRepository() *Repository {
	return &Repository{
		payments: make([]*models.Payment, 0),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(payment *models.Payment) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.payments = append(r.payments, payment)
		return nil
	}
	_, err := r.db.ExecContext(context.Background(), `
        INSERT INTO gateway.payments(payment_id, card_last_four, expiry_month, expiry_year, currency, amount, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, payment.ID, payment.CardNumberLastFour, payment.ExpiryMonth, payment.ExpiryYear, payment.Currency, payment.Amount, string(payment.Status))
	if isUniqueViolation(err) {
		return fmt.Errorf("payment id exists: %w", err)
	}
	return err
}

func (r *Repository) Get(id string) (*models.Payment, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, payment := range r.payments {
			if payment.ID == id {
				return payment, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(context.Background(), `
        SELECT payment_id, card_last_four, expiry_month, expiry_year, currency, amount, status
          FROM gateway.payments WHERE payment_id=$1
    `, id)
	var p models.Payment
	var status string
	if err := row.Scan(&p.ID, &p.CardNumberLastFour, &p.ExpiryMonth, &p.ExpiryYear, &p.Currency, &p.Amount, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	return &p, nil
}

// Count returns the number of stored payments (memory backend only; the
// pg backend answers with a query).
func (r *Repository) Count() (int, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return len(r.payments), nil
	}
	var n int
	err := r.db.QueryRowContext(context.Background(), `SELECT count(*) FROM gateway.payments`).Scan(&n)
	return n, err
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
