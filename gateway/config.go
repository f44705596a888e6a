package gateway

import "time"

// Config is a configuration for the payment gateway application
type Config struct {
	HTTPAddr string
	// BankBaseURL is the base URL of the bank-validation service.
	BankBaseURL string
	// BankTimeout bounds every bank-validation call.
	BankTimeout time.Duration
	// BankBackend selects the bank connector: "http" (default) or "iso8583".
	BankBackend string
	// ISO8583Addr is the card-network address used by the iso8583 backend.
	ISO8583Addr string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    "localhost:8090",
		BankBaseURL: "http://localhost:8080",
		BankTimeout: 10 * time.Second,
		BankBackend: "http",
		ISO8583Addr: "localhost:8583",
	}
}
