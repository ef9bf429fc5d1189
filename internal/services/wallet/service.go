// Package wallet manages the session's stored-value balance and transaction
// history. Balance equals the net of all committed transactions since the
// last reset and is never debited below zero.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"

	"github.com/google/uuid"
)

// Service is the wallet owned by the current session.
type Service interface {
	Credit(ctx context.Context, amount models.Money, description, gatewayTxnID, orderID string) (*models.Transaction, error)
	Debit(ctx context.Context, amount models.Money, description, orderID string) (*models.Transaction, error)
	Balance() models.Money
	History() []models.Transaction
}

type service struct {
	store      repositories.Store
	walletKey  string
	historyKey string
	config     Config
	balance    models.Money
	history    []models.Transaction
	now        func() time.Time
}

type walletState struct {
	Balance models.Money `json:"balance"`
}

// NewService creates a wallet for the session, rehydrating persisted state.
// On first run the balance starts at the configured default.
func NewService(ctx context.Context, store repositories.Store, sessionID string, config Config) (Service, error) {
	if store == nil {
		panic("store is required")
	}

	if config.DefaultBalance == 0 {
		config.DefaultBalance = DefaultBalance
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = models.DefaultHistoryLimit
	}

	s := &service{
		store:      store,
		walletKey:  repositories.WalletKey(sessionID),
		historyKey: repositories.HistoryKey(sessionID),
		config:     config,
		balance:    config.DefaultBalance,
		now:        time.Now,
	}

	if err := s.rehydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Credit increases the balance and appends a credit transaction at the head
// of history.
func (s *service) Credit(ctx context.Context, amount models.Money, description, gatewayTxnID, orderID string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	txn := models.Transaction{
		ID:           uuid.NewString(),
		Kind:         models.TransactionKindCredit,
		Amount:       amount,
		Description:  description,
		CreatedAt:    s.now(),
		GatewayTxnID: gatewayTxnID,
		OrderID:      orderID,
	}

	if err := s.commit(ctx, s.balance+amount, txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Debit decreases the balance. The balance is left untouched when funds are
// insufficient.
func (s *service) Debit(ctx context.Context, amount models.Money, description, orderID string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > s.balance {
		return nil, ErrInsufficientFunds
	}

	txn := models.Transaction{
		ID:          uuid.NewString(),
		Kind:        models.TransactionKindDebit,
		Amount:      amount,
		Description: description,
		CreatedAt:   s.now(),
		OrderID:     orderID,
	}

	if err := s.commit(ctx, s.balance-amount, txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Balance returns the current balance.
func (s *service) Balance() models.Money {
	return s.balance
}

// History returns the retained transactions, most recent first.
func (s *service) History() []models.Transaction {
	out := make([]models.Transaction, len(s.history))
	copy(out, s.history)
	return out
}

// commit persists the new balance and history before mutating in-memory
// state, so a storage failure leaves the wallet unchanged.
func (s *service) commit(ctx context.Context, newBalance models.Money, txn models.Transaction) error {
	history := append([]models.Transaction{txn}, s.history...)
	if len(history) > s.config.HistoryLimit {
		history = history[:s.config.HistoryLimit]
	}

	state, err := json.Marshal(walletState{Balance: newBalance})
	if err != nil {
		return fmt.Errorf("failed to encode wallet state: %w", err)
	}
	rawHistory, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := s.store.Set(ctx, s.walletKey, state); err != nil {
		return fmt.Errorf("failed to persist wallet: %w", err)
	}
	if err := s.store.Set(ctx, s.historyKey, rawHistory); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}

	s.balance = newBalance
	s.history = history
	return nil
}

func (s *service) rehydrate(ctx context.Context) error {
	raw, err := s.store.Get(ctx, s.walletKey)
	switch {
	case errors.Is(err, repositories.ErrKeyNotFound):
		// First run, default balance applies.
	case err != nil:
		return fmt.Errorf("failed to load wallet: %w", err)
	default:
		var state walletState
		if err := json.Unmarshal(raw, &state); err != nil {
			return fmt.Errorf("failed to decode wallet state: %w", err)
		}
		s.balance = state.Balance
	}

	rawHistory, err := s.store.Get(ctx, s.historyKey)
	switch {
	case errors.Is(err, repositories.ErrKeyNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := json.Unmarshal(rawHistory, &s.history); err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}
	if len(s.history) > s.config.HistoryLimit {
		s.history = s.history[:s.config.HistoryLimit]
	}
	return nil
}
