// Package gateway defines the payment gateway contract and a simulated
// implementation. The three-step create/pay/verify protocol mirrors real
// gateway integrations (order, charge, confirmation), so a real provider can
// be dropped in behind the same interface.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tiffin/internal/models"

	"github.com/google/uuid"
)

// Service is the gateway contract. A declined payment is reported through
// PaymentResult.Success, not through the error; errors mean the gateway
// itself could not be reached or refused the call.
type Service interface {
	CreateOrder(ctx context.Context, amount models.Money, currency string, metadata map[string]string) (*models.Order, error)
	Pay(ctx context.Context, order *models.Order, method string, details models.MethodDetails) (*models.PaymentResult, error)
	Verify(ctx context.Context, transactionID string) (*models.VerificationResult, error)
}

type simulator struct {
	config Config
	rng    *rand.Rand
	now    func() time.Time

	mu      sync.Mutex
	paid    map[string]bool
	settled map[string]bool
}

// NewSimulator builds the simulated gateway. A nil rng gets a time-seeded
// source; tests pass a seeded one for deterministic outcomes.
func NewSimulator(config Config, rng *rand.Rand) Service {
	if config.SuccessRate == 0 {
		config.SuccessRate = DefaultSuccessRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &simulator{
		config:  config,
		rng:     rng,
		now:     time.Now,
		paid:    make(map[string]bool),
		settled: make(map[string]bool),
	}
}

// CreateOrder allocates an order record. The amount is fixed here and never
// changes afterwards except for status.
func (s *simulator) CreateOrder(ctx context.Context, amount models.Money, currency string, metadata map[string]string) (*models.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid order amount %d", amount)
	}
	if err := s.roundTrip(ctx); err != nil {
		return nil, err
	}

	return &models.Order{
		OrderID:   "order_" + uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
		Metadata:  metadata,
		Status:    models.OrderStatusCreated,
		CreatedAt: s.now(),
	}, nil
}

// Pay charges the order once. A second attempt for the same order is a
// caller error. The simulated outcome succeeds with the configured
// probability; a failure is a terminal decline, never retried here.
func (s *simulator) Pay(ctx context.Context, order *models.Order, method string, details models.MethodDetails) (*models.PaymentResult, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if err := s.roundTrip(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paid[order.OrderID] {
		return nil, ErrOrderAlreadyPaid
	}
	s.paid[order.OrderID] = true

	if s.rng.Float64() >= s.config.SuccessRate {
		order.Status = models.OrderStatusFailed
		return &models.PaymentResult{
			Success: false,
			Message: "Payment failed. Please check your details.",
		}, nil
	}

	txnID := fmt.Sprintf("TXN%d", s.now().UnixNano())
	s.settled[txnID] = true
	order.Status = models.OrderStatusPaid

	return &models.PaymentResult{
		Success:       true,
		TransactionID: txnID,
		Message:       "Payment successful",
	}, nil
}

// Verify reports whether the gateway considers the transaction settled.
func (s *simulator) Verify(ctx context.Context, transactionID string) (*models.VerificationResult, error) {
	if err := s.roundTrip(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settled[transactionID] {
		return &models.VerificationResult{
			TransactionID: transactionID,
			Status:        "not_found",
			Verified:      false,
		}, nil
	}
	return &models.VerificationResult{
		TransactionID: transactionID,
		Status:        "captured",
		Verified:      true,
	}, nil
}

// roundTrip simulates the network hop: an optional latency honoring context
// cancellation. A hop that does not complete is a transport fault, reported
// as ErrGatewayUnavailable so callers can tell it apart from a decline.
func (s *simulator) roundTrip(ctx context.Context) error {
	if s.config.Latency <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
		}
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrGatewayUnavailable, ctx.Err())
	case <-time.After(s.config.Latency):
		return nil
	}
}
