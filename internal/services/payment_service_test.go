package services_test

import (
	"context"
	"testing"

	"toolsnest/internal/gateway"
	"toolsnest/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	mockGateway := new(MockGateway)
	service := services.NewPaymentService(mockGateway, "")

	mockGateway.On("CreateIntent", ctx, int64(1999), "usd").Return("pi_123_secret_456", nil).Once()

	secret, err := service.CreatePaymentIntent(ctx, 19.99)
	assert.NoError(t, err)
	assert.Equal(t, "pi_123_secret_456", secret)
	mockGateway.AssertExpectations(t)
}

func TestPaymentService_RejectsNonPositivePrice(t *testing.T) {
	mockGateway := new(MockGateway)
	service := services.NewPaymentService(mockGateway, "eur")

	for _, price := range []float64{0, -5, 0.004} {
		_, err := service.CreatePaymentIntent(context.Background(), price)
		assert.ErrorIs(t, err, gateway.ErrInvalidAmount)
	}
	mockGateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_PropagatesGatewayError(t *testing.T) {
	ctx := context.Background()
	mockGateway := new(MockGateway)
	service := services.NewPaymentService(mockGateway, "eur")

	upstream := &gateway.Error{Op: "create intent", Err: assert.AnError}
	mockGateway.On("CreateIntent", ctx, int64(500), "eur").Return("", upstream).Once()

	_, err := service.CreatePaymentIntent(ctx, 5)
	var gwErr *gateway.Error
	assert.ErrorAs(t, err, &gwErr)
	mockGateway.AssertExpectations(t)
}
