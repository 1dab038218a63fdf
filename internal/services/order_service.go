package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
)

var (
	// ErrOrderUpdateFailed means the payment was recorded but marking the order
	// paid failed; the payment record has been removed again.
	ErrOrderUpdateFailed = errors.New("order update failed after payment was recorded")
	// ErrPaymentOrphaned means marking the order paid failed and the payment
	// record could not be removed either.
	ErrPaymentOrphaned = errors.New("payment recorded but order not marked paid")
)

// PaymentRecordedRoutingKey is the routing key of payment events.
const PaymentRecordedRoutingKey = "payment.recorded"

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService handles order operations, including the pay flow.
type OrderService struct {
	store     repositories.DocumentStore
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case payment events are skipped.
func NewOrderService(store repositories.DocumentStore, publisher EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Document, error) {
	return s.store.FindMany(ctx, models.OrderCollection, models.Filter{})
}

// GetOrdersByEmail retrieves the orders placed by email.
func (s *OrderService) GetOrdersByEmail(ctx context.Context, email string) ([]models.Document, error) {
	return s.store.FindMany(ctx, models.OrderCollection, models.ByEmail(email))
}

// GetOrderByID retrieves a single order by its id.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (models.Document, error) {
	return s.store.FindOne(ctx, models.OrderCollection, models.ByID(id))
}

// CreateOrder inserts a new, unpaid order.
func (s *OrderService) CreateOrder(ctx context.Context, order models.Order) (*models.InsertResult, error) {
	return s.store.InsertOne(ctx, models.OrderCollection, order.Document())
}

// UpdateOrder upserts patch into the order with id.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) (*models.UpdateResult, error) {
	return s.store.UpsertOne(ctx, models.OrderCollection, models.ByID(id), patch.Patch())
}

// DeleteOrder deletes an order by its id.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (*models.DeleteResult, error) {
	return s.store.DeleteOne(ctx, models.OrderCollection, models.ByID(id))
}

// PayOrder records a payment for an existing order and marks the order paid.
// The two writes are not atomic: when the order write fails the payment is
// deleted again and ErrOrderUpdateFailed is returned, or ErrPaymentOrphaned if
// that deletion fails as well.
func (s *OrderService) PayOrder(ctx context.Context, id string, req models.PayRequest) (*models.PayResult, error) {
	if _, err := s.store.FindOne(ctx, models.OrderCollection, models.ByID(id)); err != nil {
		return nil, err
	}

	payment, err := s.store.InsertOne(ctx, models.PaymentCollection, req.PaymentDocument(id, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to record payment for order %s: %w", id, err)
	}

	// Published before the order write so an orphaned payment still reaches
	// the reconciler. A compensated payment is ignored there.
	s.publishPaymentRecorded(id, payment.InsertedID, req.TransactionID)

	order, err := s.store.UpsertOne(ctx, models.OrderCollection, models.ByID(id), models.PaidPatch(req.TransactionID))
	if err != nil {
		return nil, s.compensate(ctx, id, payment.InsertedID, err)
	}
	return &models.PayResult{Payment: payment, Order: order}, nil
}

func (s *OrderService) compensate(ctx context.Context, orderID string, paymentID interface{}, cause error) error {
	paymentKey := fmt.Sprint(paymentID)
	if _, err := s.store.DeleteOne(ctx, models.PaymentCollection, models.ByID(paymentKey)); err != nil {
		slog.Error("payment compensation failed",
			"order_id", orderID, "payment_id", paymentKey, "cause", cause, "error", err)
		return fmt.Errorf("%w: order %s, payment %s: %v", ErrPaymentOrphaned, orderID, paymentKey, cause)
	}
	slog.Warn("order update failed, payment rolled back",
		"order_id", orderID, "payment_id", paymentKey, "error", cause)
	return fmt.Errorf("%w: order %s: %v", ErrOrderUpdateFailed, orderID, cause)
}

func (s *OrderService) publishPaymentRecorded(orderID string, paymentID interface{}, transactionID string) {
	if s.publisher == nil {
		slog.Debug("event publisher not configured, skipping payment event", "order_id", orderID)
		return
	}
	body, err := json.Marshal(models.PaymentEvent{
		PaymentID:     fmt.Sprint(paymentID),
		OrderID:       orderID,
		TransactionID: transactionID,
		RecordedAt:    s.now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal payment event", "order_id", orderID, "error", err)
		return
	}
	if err := s.publisher.Publish(PaymentRecordedRoutingKey, body); err != nil {
		slog.Warn("failed to publish payment event", "order_id", orderID, "error", err)
		return
	}
	slog.Info("published payment event", "order_id", orderID)
}
