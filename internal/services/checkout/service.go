// Package checkout orchestrates one checkout or wallet top-up attempt
// through the create → pay → verify → commit pipeline. Side effects (cart
// clear, wallet movement, last-order record) are committed all-or-nothing,
// only after the gateway agrees the payment settled.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/wallet"
	"tiffin/internal/validation"
)

type service struct {
	cart     CartService
	wallet   WalletService
	gateway  PaymentGateway
	store    repositories.Store
	config   Config
	pendKey  string
	orderKey string
	now      func() time.Time
}

// NewService creates the orchestrator for one session.
func NewService(cartSvc CartService, walletSvc WalletService, gw PaymentGateway, store repositories.Store, sessionID string, config Config) Service {
	if cartSvc == nil {
		panic("cart service is required")
	}
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if gw == nil {
		panic("payment gateway is required")
	}
	if store == nil {
		panic("store is required")
	}

	if config.MinTopUp == 0 {
		config.MinTopUp = DefaultMinTopUp
	}
	if config.MaxTopUp == 0 {
		config.MaxTopUp = DefaultMaxTopUp
	}

	return &service{
		cart:     cartSvc,
		wallet:   walletSvc,
		gateway:  gw,
		store:    store,
		config:   config,
		pendKey:  repositories.PendingCheckoutKey(sessionID),
		orderKey: repositories.LastOrderKey(sessionID),
		now:      time.Now,
	}
}

// Checkout settles the current cart. Validation failures and the wallet
// balance precondition are checked before any gateway call; until commit,
// neither cart nor wallet is touched.
func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (*OrderConfirmation, error) {
	lines := s.cart.Items()
	if len(lines) == 0 {
		return nil, newError(CodeEmptyCart, "cart is empty")
	}

	if v := validation.Customer(req.Customer); !v.Valid() {
		return nil, newError(CodeMissingMethodDetails, v.Summary())
	}
	if v := validation.MethodDetails(req.Method, req.Details); !v.Valid() {
		return nil, newError(CodeMissingMethodDetails, v.Summary())
	}

	subtotal := s.cart.Total()
	tax := models.Tax(subtotal)
	grandTotal := subtotal + tax + models.DeliveryFee

	if req.Method == models.PaymentMethodWallet && s.wallet.Balance() < grandTotal {
		return nil, newError(CodeInsufficientFunds, "wallet balance is too low for this order")
	}

	details := req.Details.Masked()
	metadata := map[string]string{
		"payment_method":   req.Method,
		"customer_name":    req.Customer.Name,
		"customer_phone":   req.Customer.Phone,
		"customer_address": req.Customer.Address,
	}
	if details.Card != nil {
		metadata["card"] = details.Card.Number
	}

	order, err := s.gateway.CreateOrder(ctx, grandTotal, models.Currency, metadata)
	if err != nil {
		return nil, wrapError(CodeGatewayUnavailable, "could not create order", err)
	}
	order.Lines = lines

	result, err := s.gateway.Pay(ctx, order, req.Method, details)
	if err != nil {
		return nil, wrapError(CodeGatewayUnavailable, "payment could not be processed", err)
	}
	if !result.Success {
		return nil, newError(CodePaymentDeclined, result.Message)
	}

	pending := pendingAttempt{
		Kind:          attemptKindCheckout,
		OrderID:       order.OrderID,
		TransactionID: result.TransactionID,
		Method:        req.Method,
		Amount:        grandTotal,
		Lines:         lines,
		CreatedAt:     s.now(),
	}
	s.savePending(ctx, pending)

	// Wallet-funded payments are settled locally; the debit below is
	// authoritative and the gateway is not consulted a second time.
	if req.Method != models.PaymentMethodWallet {
		if err := s.verify(ctx, result.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.commitCheckout(ctx, pending); err != nil {
		return nil, err
	}

	return &OrderConfirmation{
		OrderID:       order.OrderID,
		TransactionID: result.TransactionID,
		Subtotal:      subtotal,
		Tax:           tax,
		DeliveryFee:   models.DeliveryFee,
		GrandTotal:    grandTotal,
		PaymentMethod: req.Method,
		PlacedAt:      s.now(),
	}, nil
}

// TopUp credits the wallet through the same pipeline. The processing fee is
// charged via the gateway but only the principal reaches the balance.
func (s *service) TopUp(ctx context.Context, req TopUpRequest) (*TopUpConfirmation, error) {
	if req.Amount < s.config.MinTopUp || req.Amount > s.config.MaxTopUp {
		return nil, newError(CodeOutOfRange,
			fmt.Sprintf("amount must be between %d and %d", s.config.MinTopUp, s.config.MaxTopUp))
	}
	if v := validation.MethodDetails(req.Method, req.Details); !v.Valid() {
		return nil, newError(CodeMissingMethodDetails, v.Summary())
	}

	fee := models.ProcessingFee(req.Amount)
	total := req.Amount + fee

	metadata := map[string]string{
		"type":        "wallet_recharge",
		"description": fmt.Sprintf("Wallet recharge of %d", req.Amount),
	}

	order, err := s.gateway.CreateOrder(ctx, total, models.Currency, metadata)
	if err != nil {
		return nil, wrapError(CodeGatewayUnavailable, "could not create order", err)
	}

	result, err := s.gateway.Pay(ctx, order, req.Method, req.Details.Masked())
	if err != nil {
		return nil, wrapError(CodeGatewayUnavailable, "payment could not be processed", err)
	}
	if !result.Success {
		return nil, newError(CodePaymentDeclined, result.Message)
	}

	pending := pendingAttempt{
		Kind:          attemptKindTopUp,
		OrderID:       order.OrderID,
		TransactionID: result.TransactionID,
		Method:        req.Method,
		Amount:        total,
		CreditAmount:  req.Amount,
		CreatedAt:     s.now(),
	}
	s.savePending(ctx, pending)

	if err := s.verify(ctx, result.TransactionID); err != nil {
		return nil, err
	}

	if err := s.commitTopUp(ctx, pending); err != nil {
		return nil, err
	}

	return &TopUpConfirmation{
		OrderID:       order.OrderID,
		TransactionID: result.TransactionID,
		Amount:        req.Amount,
		Fee:           fee,
		Total:         total,
		NewBalance:    s.wallet.Balance(),
		Method:        req.Method,
	}, nil
}

// Recover completes an attempt interrupted between pay and commit: the
// stored transaction id is re-verified, never re-charged.
func (s *service) Recover(ctx context.Context) (*RecoveryResult, error) {
	raw, err := s.store.Get(ctx, s.pendKey)
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return &RecoveryResult{Pending: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending attempt: %w", err)
	}

	var pending pendingAttempt
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending attempt: %w", err)
	}

	vr, err := s.gateway.Verify(ctx, pending.TransactionID)
	if err != nil {
		// Pending record stays so recovery can be retried.
		return nil, wrapError(CodeGatewayUnavailable, "could not verify pending payment", err)
	}
	if !vr.Verified {
		log.Printf("anomaly: pending txn %s reported %q on recovery, discarding attempt",
			pending.TransactionID, vr.Status)
		s.clearPending(ctx)
		return &RecoveryResult{
			Pending:       true,
			Committed:     false,
			OrderID:       pending.OrderID,
			TransactionID: pending.TransactionID,
		}, nil
	}

	switch pending.Kind {
	case attemptKindTopUp:
		err = s.commitTopUp(ctx, pending)
	default:
		err = s.commitCheckout(ctx, pending)
	}
	if err != nil {
		return nil, err
	}

	return &RecoveryResult{
		Pending:       true,
		Committed:     true,
		OrderID:       pending.OrderID,
		TransactionID: pending.TransactionID,
	}, nil
}

// LastOrder returns the persisted last completed order.
func (s *service) LastOrder(ctx context.Context) (*models.OrderRecord, error) {
	raw, err := s.store.Get(ctx, s.orderKey)
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return nil, ErrNoLastOrder
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last order: %w", err)
	}
	var record models.OrderRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode last order: %w", err)
	}
	return &record, nil
}

// verify is the reconciliation step: commit happens only when pay and verify
// both agree the transaction settled.
func (s *service) verify(ctx context.Context, transactionID string) error {
	vr, err := s.gateway.Verify(ctx, transactionID)
	if err != nil {
		// The pending record is kept so the attempt can be re-verified
		// through Recover instead of charged again.
		return wrapError(CodeGatewayUnavailable, "payment made but could not be verified", err)
	}
	if !vr.Verified {
		log.Printf("anomaly: pay succeeded but gateway reports %q for txn %s", vr.Status, transactionID)
		s.clearPending(ctx)
		return newError(CodeVerificationFailed, "payment could not be verified; no charge was committed")
	}
	return nil
}

func (s *service) commitCheckout(ctx context.Context, pending pendingAttempt) error {
	// A commit may run twice for the same order: once inline and once
	// through Recover when a later step failed with the pending record
	// still in place. The wallet movement is the one non-retryable step,
	// so it is skipped when history already records it; every other write
	// is idempotent for the same order.
	if pending.Method == models.PaymentMethodWallet && !s.walletSettled(pending.OrderID) {
		_, err := s.wallet.Debit(ctx, pending.Amount, "Order payment", pending.OrderID)
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return newError(CodeInsufficientFunds, "wallet balance is too low for this order")
		}
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
	}

	if err := s.cart.Clear(ctx); err != nil {
		return err
	}

	record := models.OrderRecord{
		OrderID:       pending.OrderID,
		Lines:         pending.Lines,
		Total:         pending.Amount,
		PaymentMethod: pending.Method,
		TransactionID: pending.TransactionID,
		OrderDate:     s.now(),
		Status:        "completed",
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode order record: %w", err)
	}
	if err := s.store.Set(ctx, s.orderKey, raw); err != nil {
		return fmt.Errorf("failed to persist order record: %w", err)
	}

	s.clearPending(ctx)
	return nil
}

func (s *service) commitTopUp(ctx context.Context, pending pendingAttempt) error {
	if !s.walletSettled(pending.OrderID) {
		description := "Money Added - " + methodDisplayName(pending.Method)
		if _, err := s.wallet.Credit(ctx, pending.CreditAmount, description, pending.TransactionID, pending.OrderID); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
	}
	s.clearPending(ctx)
	return nil
}

// walletSettled reports whether a wallet movement for the order was already
// committed. History retention is far wider than the single pending attempt
// a session can carry, so the lookback cannot miss it.
func (s *service) walletSettled(orderID string) bool {
	for _, txn := range s.wallet.History() {
		if txn.OrderID == orderID {
			return true
		}
	}
	return false
}

// savePending records the attempt after a successful pay. A storage failure
// here must not fail the attempt; it only narrows crash recovery.
func (s *service) savePending(ctx context.Context, pending pendingAttempt) {
	raw, err := json.Marshal(pending)
	if err != nil {
		log.Printf("failed to encode pending attempt: %v", err)
		return
	}
	if err := s.store.Set(ctx, s.pendKey, raw); err != nil {
		log.Printf("failed to persist pending attempt: %v", err)
	}
}

func (s *service) clearPending(ctx context.Context) {
	if err := s.store.Delete(ctx, s.pendKey); err != nil {
		log.Printf("failed to clear pending attempt: %v", err)
	}
}
