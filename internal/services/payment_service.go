package services

import (
	"context"

	"toolsnest/internal/gateway"
)

// PaymentGateway creates payment intents with an external provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// PaymentService turns prices into payment intents.
type PaymentService struct {
	gateway  PaymentGateway
	currency string
}

// NewPaymentService creates a new PaymentService charging in currency.
func NewPaymentService(gw PaymentGateway, currency string) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		gateway:  gw,
		currency: currency,
	}
}

// CreatePaymentIntent charges price, given in major currency units, and
// returns the client secret.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	amount := gateway.ToSmallestUnit(price)
	if amount <= 0 {
		return "", gateway.ErrInvalidAmount
	}
	return s.gateway.CreateIntent(ctx, amount, s.currency)
}
