package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
)

// ReconcileOutcome describes what reconciliation did for one payment event.
type ReconcileOutcome string

const (
	OutcomeConsistent   ReconcileOutcome = "consistent"
	OutcomeRepaired     ReconcileOutcome = "repaired"
	OutcomeNoPayment    ReconcileOutcome = "payment_missing"
	OutcomeOrderMissing ReconcileOutcome = "order_missing"
)

// ErrMalformedEvent is returned for a message body that is not a payment event.
var ErrMalformedEvent = errors.New("malformed payment event")

// ReconcileService brings orders in line with their recorded payments.
type ReconcileService struct {
	store repositories.DocumentStore
}

func NewReconcileService(store repositories.DocumentStore) *ReconcileService {
	return &ReconcileService{store: store}
}

// HandleMessage decodes a payment event body and reconciles it.
func (s *ReconcileService) HandleMessage(ctx context.Context, body []byte) (ReconcileOutcome, error) {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.PaymentID == "" || event.OrderID == "" {
		return "", fmt.Errorf("%w: missing payment or order id", ErrMalformedEvent)
	}
	return s.Reconcile(ctx, event)
}

// Reconcile marks the event's order paid if its payment still exists and the
// order does not already carry the same transaction.
func (s *ReconcileService) Reconcile(ctx context.Context, event models.PaymentEvent) (ReconcileOutcome, error) {
	if _, err := s.store.FindOne(ctx, models.PaymentCollection, models.ByID(event.PaymentID)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrInvalidID) {
			return OutcomeNoPayment, nil
		}
		return "", err
	}

	order, err := s.store.FindOne(ctx, models.OrderCollection, models.ByID(event.OrderID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrInvalidID) {
			slog.Warn("payment references a missing order",
				"payment_id", event.PaymentID, "order_id", event.OrderID)
			return OutcomeOrderMissing, nil
		}
		return "", err
	}

	if paid, _ := order["paid"].(bool); paid && order["transactionId"] == event.TransactionID {
		return OutcomeConsistent, nil
	}

	if _, err := s.store.UpsertOne(ctx, models.OrderCollection, models.ByID(event.OrderID), models.PaidPatch(event.TransactionID)); err != nil {
		return "", fmt.Errorf("failed to repair order %s: %w", event.OrderID, err)
	}
	slog.Info("order repaired from payment record",
		"order_id", event.OrderID, "payment_id", event.PaymentID)
	return OutcomeRepaired, nil
}
