package models

type PaymentStatus string

const (
	// PaymentStatusAuthorized means the bank approved the payment.
	PaymentStatusAuthorized PaymentStatus = "Authorized"
	// PaymentStatusDeclined means the bank refused the payment.
	PaymentStatusDeclined PaymentStatus = "Declined"
	// PaymentStatusRejected means the request failed structural validation
	// and was never sent to the bank.
	PaymentStatusRejected PaymentStatus = "Rejected"
)

// PostPaymentRequest is a payment submission as received from the caller.
// Validity is decided by the processor, not at construction.
type PostPaymentRequest struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	CVV         string `json:"cvv"`
}

// Payment is the stored record of one processing attempt. Fields are fixed
// at creation; only the last four digits of the card are kept.
type Payment struct {
	ID                 string        `json:"id"`
	CardNumberLastFour string        `json:"card_number_last_four"`
	ExpiryMonth        int           `json:"expiry_month"`
	ExpiryYear         int           `json:"expiry_year"`
	Currency           string        `json:"currency"`
	Amount             int64         `json:"amount"`
	Status             PaymentStatus `json:"status"`
}
