// Package banksim is a stand-in for the external bank-validation service.
// It authorizes card numbers ending in an odd digit, declines the rest,
// and reports itself unavailable for amount 503 so outage handling can be
// exercised end to end.
package banksim

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UnavailableAmount makes the simulator answer 503 Service Unavailable.
const UnavailableAmount = 503

type validationRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
	CVV        string `json:"cvv"`
}

type validationResponse struct {
	Authorized        bool   `json:"authorized"`
	AuthorizationCode string `json:"authorization_code"`
}

type API struct{}

func NewAPI() *API {
	return &API{}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Post("/payments", a.validatePayment)
}

func (a *API) validatePayment(w http.ResponseWriter, r *http.Request) {
	req := validationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Amount == UnavailableAmount {
		http.Error(w, "bank is down for maintenance", http.StatusServiceUnavailable)
		return
	}

	resp := validationResponse{}
	if authorized(req.CardNumber) {
		resp.Authorized = true
		resp.AuthorizationCode = uuid.New().String()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// authorized approves card numbers whose last digit is odd.
func authorized(cardNumber string) bool {
	if cardNumber == "" {
		return false
	}
	last := cardNumber[len(cardNumber)-1]
	return last >= '0' && last <= '9' && (last-'0')%2 == 1
}
