package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alovak/payment-gateway-playground/gateway/bank"
	"github.com/alovak/payment-gateway-playground/gateway/models"
	"github.com/go-chi/chi/v5"
)

// API is the HTTP API for the payment gateway service
type API struct {
	service *Service
}

func NewAPI(service *Service) *API {
	return &API{
		service: service,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", a.processPayment)
		r.Get("/{paymentID}", a.getPayment)
	})
}

func (a *API) processPayment(w http.ResponseWriter, r *http.Request) {
	req := models.PostPaymentRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payment, err := a.service.Process(r.Context(), req)
	if err != nil {
		if errors.Is(err, bank.ErrUnavailable) {
			http.Error(w, "bank validation service not available", http.StatusBadGateway)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payment)
}

func (a *API) getPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	payment, err := a.service.Get(paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payment)
}
