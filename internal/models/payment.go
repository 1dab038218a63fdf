package models

import "time"

// PayRequest is the body of the order pay call.
type PayRequest struct {
	TransactionID string   `json:"transactionId" validate:"required"`
	Email         string   `json:"email,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
}

// PaymentDocument builds the payment record stored for an order.
func (r PayRequest) PaymentDocument(orderID string, at time.Time) Document {
	doc := Document{
		"orderId":       orderID,
		"transactionId": r.TransactionID,
		"createdAt":     at.UTC().Format(time.RFC3339),
	}
	if r.Email != "" {
		doc["email"] = r.Email
	}
	if r.Amount != nil {
		doc["amount"] = *r.Amount
	}
	return doc
}

// PaymentIntentRequest is the body of the payment intent call.
type PaymentIntentRequest struct {
	Price *float64 `json:"price" validate:"required"`
}

// PaymentIntentResponse carries the gateway secret back to the client.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// PaymentEvent is published after an order's payment has been recorded.
type PaymentEvent struct {
	PaymentID     string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	RecordedAt    time.Time `json:"recordedAt"`
}
