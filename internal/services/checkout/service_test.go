package checkout

import (
	"context"
	"errors"
	"testing"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/cart"
	"tiffin/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount models.Money, currency string, metadata map[string]string) (*models.Order, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockGateway) Pay(ctx context.Context, order *models.Order, method string, details models.MethodDetails) (*models.PaymentResult, error) {
	args := m.Called(ctx, order, method, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentResult), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, transactionID string) (*models.VerificationResult, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationResult), args.Error(1)
}

type env struct {
	store  repositories.Store
	cart   cart.Service
	wallet wallet.Service
	gw     *MockGateway
	svc    Service
}

func newEnv(t *testing.T, balance models.Money) *env {
	return newEnvWith(t, repositories.NewMemoryStore(), balance)
}

func newEnvWith(t *testing.T, store repositories.Store, balance models.Money) *env {
	t.Helper()
	ctx := context.Background()

	cartSvc, err := cart.NewService(ctx, store, "s1")
	require.NoError(t, err)
	walletSvc, err := wallet.NewService(ctx, store, "s1", wallet.Config{DefaultBalance: balance})
	require.NoError(t, err)

	gw := new(MockGateway)
	svc := NewService(cartSvc, walletSvc, gw, store, "s1", Config{})

	return &env{store: store, cart: cartSvc, wallet: walletSvc, gw: gw, svc: svc}
}

// faultyStore drops a limited number of writes to specific keys, standing in
// for a store that fails partway through a commit.
type faultyStore struct {
	repositories.Store
	failSetKey    string
	failSets      int
	failDeleteKey string
	failDeletes   int
}

func (f *faultyStore) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failSetKey && f.failSets > 0 {
		f.failSets--
		return errors.New("write dropped")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	if key == f.failDeleteKey && f.failDeletes > 0 {
		f.failDeletes--
		return errors.New("delete dropped")
	}
	return f.Store.Delete(ctx, key)
}

// fillCart loads the reference scenario: 249x2 + 99x1 = 597 subtotal,
// 30 tax, 50 delivery, 677 grand total.
func (e *env) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.cart.Add(ctx, models.PricedItem{ID: "1", Name: "Chicken Biryani", Price: 249}, 2))
	require.NoError(t, e.cart.Add(ctx, models.PricedItem{ID: "2", Name: "Fresh Coffee", Price: 99}, 1))
}

var (
	testCustomer = models.CustomerDetails{Name: "A Kumar", Phone: "9999999999", Address: "42 MG Road"}
	testCard     = models.MethodDetails{Card: &models.CardDetails{
		Number: "4111 1111 1111 1111",
		Expiry: "12/27",
		CVV:    "123",
		Holder: "A Kumar",
	}}
)

func successPipeline(gw *MockGateway, amount models.Money, method string) *models.Order {
	order := &models.Order{OrderID: "order_1", Amount: amount, Currency: models.Currency, Status: models.OrderStatusCreated}
	gw.On("CreateOrder", mock.Anything, amount, models.Currency, mock.Anything).Return(order, nil)
	gw.On("Pay", mock.Anything, order, method, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1", Message: "Payment successful"}, nil)
	gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "captured", Verified: true}, nil)
	return order
}

func TestCheckout_CardSuccess(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)
	successPipeline(e.gw, 677, models.PaymentMethodCard)

	conf, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Money(597), conf.Subtotal)
	assert.Equal(t, models.Money(30), conf.Tax)
	assert.Equal(t, models.Money(50), conf.DeliveryFee)
	assert.Equal(t, models.Money(677), conf.GrandTotal)
	assert.Equal(t, "order_1", conf.OrderID)
	assert.Equal(t, "TXN1", conf.TransactionID)

	assert.Empty(t, e.cart.Items(), "cart cleared on commit")
	assert.Equal(t, models.Money(500), e.wallet.Balance(), "card payment never touches the wallet")

	record, err := e.svc.LastOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "completed", record.Status)
	assert.Equal(t, models.Money(677), record.Total)
	assert.Len(t, record.Lines, 2)

	e.gw.AssertExpectations(t)
}

func TestCheckout_MasksCardBeforeGateway(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.MatchedBy(func(md map[string]string) bool {
		return md["card"] == "**** **** **** 1111"
	})).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.MatchedBy(func(d models.MethodDetails) bool {
		return d.Card != nil && d.Card.Number == "**** **** **** 1111" && d.Card.CVV == ""
	})).Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)
	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "captured", Verified: true}, nil)

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	require.NoError(t, err)
	e.gw.AssertExpectations(t)
}

func TestCheckout_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		fill     bool
		req      CheckoutRequest
		wantCode Code
	}{
		{
			name:     "empty cart",
			fill:     false,
			req:      CheckoutRequest{Method: models.PaymentMethodCard, Details: testCard, Customer: testCustomer},
			wantCode: CodeEmptyCart,
		},
		{
			name:     "missing card details",
			fill:     true,
			req:      CheckoutRequest{Method: models.PaymentMethodCard, Customer: testCustomer},
			wantCode: CodeMissingMethodDetails,
		},
		{
			name:     "missing upi id",
			fill:     true,
			req:      CheckoutRequest{Method: models.PaymentMethodUPI, Customer: testCustomer},
			wantCode: CodeMissingMethodDetails,
		},
		{
			name:     "missing customer details",
			fill:     true,
			req:      CheckoutRequest{Method: models.PaymentMethodCard, Details: testCard},
			wantCode: CodeMissingMethodDetails,
		},
		{
			name:     "unknown method",
			fill:     true,
			req:      CheckoutRequest{Method: "cheque", Customer: testCustomer},
			wantCode: CodeMissingMethodDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, 500)
			if tt.fill {
				e.fillCart(t)
			}

			_, err := e.svc.Checkout(context.Background(), tt.req)
			assert.Equal(t, tt.wantCode, CodeOf(err))

			e.gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_WalletInsufficientBeforeGateway(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t) // grand total 677 > 500

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodWallet,
		Customer: testCustomer,
	})
	assert.Equal(t, CodeInsufficientFunds, CodeOf(err))

	assert.Equal(t, models.Money(500), e.wallet.Balance())
	assert.Len(t, e.cart.Items(), 2)
	e.gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_WalletDebitsWithoutVerify(t *testing.T) {
	e := newEnv(t, 1000)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodWallet, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)

	conf, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodWallet,
		Customer: testCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Money(677), conf.GrandTotal)

	assert.Equal(t, models.Money(323), e.wallet.Balance())
	assert.Empty(t, e.cart.Items())

	history := e.wallet.History()
	require.NotEmpty(t, history)
	assert.Equal(t, models.TransactionKindDebit, history[0].Kind)
	assert.Equal(t, models.Money(677), history[0].Amount)

	// The wallet debit is local and authoritative.
	e.gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestCheckout_Declined(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.Anything).
		Return(&models.PaymentResult{Success: false, Message: "Payment failed. Please check your details."}, nil)

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	assert.Equal(t, CodePaymentDeclined, CodeOf(err))

	assert.Len(t, e.cart.Items(), 2)
	assert.Equal(t, models.Money(500), e.wallet.Balance())
	e.gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestCheckout_VerificationMismatchCommitsNothing(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)
	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "failed", Verified: false}, nil)

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	assert.Equal(t, CodeVerificationFailed, CodeOf(err))

	assert.Len(t, e.cart.Items(), 2, "cart untouched")
	assert.Equal(t, models.Money(500), e.wallet.Balance(), "wallet untouched")

	_, err = e.svc.LastOrder(context.Background())
	assert.ErrorIs(t, err, ErrNoLastOrder)

	// Terminal mismatch leaves nothing to recover.
	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Pending)
}

func TestCheckout_GatewayUnavailable(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	assert.Equal(t, CodeGatewayUnavailable, CodeOf(err))

	assert.Len(t, e.cart.Items(), 2)
	assert.Equal(t, models.Money(500), e.wallet.Balance())
}

func TestTopUp_Success(t *testing.T) {
	e := newEnv(t, 500)
	// Charged total is amount plus fee; only the principal is credited.
	successPipeline(e.gw, 102, models.PaymentMethodUPI)

	conf, err := e.svc.TopUp(context.Background(), TopUpRequest{
		Amount:  100,
		Method:  models.PaymentMethodUPI,
		Details: models.MethodDetails{UPIID: "akumar@upi"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Money(100), conf.Amount)
	assert.Equal(t, models.Money(2), conf.Fee)
	assert.Equal(t, models.Money(102), conf.Total)
	assert.Equal(t, models.Money(600), conf.NewBalance)

	assert.Equal(t, models.Money(600), e.wallet.Balance(), "fee is never credited")

	history := e.wallet.History()
	require.NotEmpty(t, history)
	assert.Equal(t, models.TransactionKindCredit, history[0].Kind)
	assert.Equal(t, models.Money(100), history[0].Amount)
	assert.Equal(t, "Money Added - UPI Payment", history[0].Description)
	assert.Equal(t, "TXN1", history[0].GatewayTxnID)

	e.gw.AssertExpectations(t)
}

func TestTopUp_OutOfRange(t *testing.T) {
	for _, amount := range []models.Money{0, 5, 9, 10001} {
		e := newEnv(t, 500)

		_, err := e.svc.TopUp(context.Background(), TopUpRequest{
			Amount:  amount,
			Method:  models.PaymentMethodUPI,
			Details: models.MethodDetails{UPIID: "akumar@upi"},
		})
		assert.Equal(t, CodeOutOfRange, CodeOf(err), "amount %d", amount)
		assert.Equal(t, models.Money(500), e.wallet.Balance())
		e.gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestTopUp_BoundsInclusive(t *testing.T) {
	e := newEnv(t, 500)
	successPipeline(e.gw, 12, models.PaymentMethodUPI) // 10 + fee 2

	_, err := e.svc.TopUp(context.Background(), TopUpRequest{
		Amount:  10,
		Method:  models.PaymentMethodUPI,
		Details: models.MethodDetails{UPIID: "akumar@upi"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Money(510), e.wallet.Balance())
}

func TestRecover_NothingPending(t *testing.T) {
	e := newEnv(t, 500)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Pending)
	assert.False(t, result.Committed)
}

func TestRecover_CommitsAfterVerifyOutage(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)
	// Verification transport fails after a successful pay.
	e.gw.On("Verify", mock.Anything, "TXN1").Return(nil, errors.New("timeout")).Once()

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	assert.Equal(t, CodeGatewayUnavailable, CodeOf(err))
	assert.Len(t, e.cart.Items(), 2, "nothing committed yet")

	// The gateway comes back; recovery re-verifies the stored transaction
	// id instead of charging again.
	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "captured", Verified: true}, nil)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.True(t, result.Committed)
	assert.Equal(t, "TXN1", result.TransactionID)

	assert.Empty(t, e.cart.Items())
	record, err := e.svc.LastOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "order_1", record.OrderID)

	// Recovery re-verifies, never re-charges.
	e.gw.AssertNumberOfCalls(t, "Pay", 1)
}

func TestRecover_DiscardsUnverifiedAttempt(t *testing.T) {
	e := newEnv(t, 500)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)
	e.gw.On("Verify", mock.Anything, "TXN1").Return(nil, errors.New("timeout")).Once()

	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodCard,
		Details:  testCard,
		Customer: testCustomer,
	})
	assert.Equal(t, CodeGatewayUnavailable, CodeOf(err))

	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "failed", Verified: false}, nil)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.False(t, result.Committed)

	assert.Len(t, e.cart.Items(), 2)
	assert.Equal(t, models.Money(500), e.wallet.Balance())

	// The discarded attempt is gone.
	result, err = e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Pending)
}

func TestRecover_WalletDebitNotRepeated(t *testing.T) {
	store := &faultyStore{
		Store:      repositories.NewMemoryStore(),
		failSetKey: repositories.LastOrderKey("s1"),
		failSets:   1,
	}
	e := newEnvWith(t, store, 2000)
	e.fillCart(t)

	order := &models.Order{OrderID: "order_1", Amount: 677, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(677), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodWallet, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)

	// The debit lands but persisting the last-order record does not, so the
	// attempt errors with the pending record still in place.
	_, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		Method:   models.PaymentMethodWallet,
		Customer: testCustomer,
	})
	require.Error(t, err)
	require.Equal(t, models.Money(1323), e.wallet.Balance())

	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "captured", Verified: true}, nil)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Committed)

	assert.Equal(t, models.Money(1323), e.wallet.Balance(), "one debit for one order")

	var debits int
	for _, txn := range e.wallet.History() {
		if txn.OrderID == "order_1" {
			debits++
		}
	}
	assert.Equal(t, 1, debits)

	record, err := e.svc.LastOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "order_1", record.OrderID)

	// The completed attempt is gone.
	result, err = e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Pending)
}

func TestRecover_TopUpCreditNotRepeated(t *testing.T) {
	store := &faultyStore{
		Store:         repositories.NewMemoryStore(),
		failDeleteKey: repositories.PendingCheckoutKey("s1"),
		failDeletes:   1,
	}
	e := newEnvWith(t, store, 500)
	successPipeline(e.gw, 102, models.PaymentMethodUPI)

	// Clearing the pending record fails silently, so a committed top-up
	// leaves its record behind.
	conf, err := e.svc.TopUp(context.Background(), TopUpRequest{
		Amount:  100,
		Method:  models.PaymentMethodUPI,
		Details: models.MethodDetails{UPIID: "akumar@upi"},
	})
	require.NoError(t, err)
	require.Equal(t, models.Money(600), conf.NewBalance)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Committed)

	assert.Equal(t, models.Money(600), e.wallet.Balance(), "principal credited once")

	var credits int
	for _, txn := range e.wallet.History() {
		if txn.OrderID == "order_1" {
			credits++
		}
	}
	assert.Equal(t, 1, credits)
}

func TestRecover_TopUpCreditsPrincipal(t *testing.T) {
	e := newEnv(t, 500)

	order := &models.Order{OrderID: "order_1", Amount: 102, Currency: models.Currency}
	e.gw.On("CreateOrder", mock.Anything, models.Money(102), models.Currency, mock.Anything).Return(order, nil)
	e.gw.On("Pay", mock.Anything, order, models.PaymentMethodCard, mock.Anything).
		Return(&models.PaymentResult{Success: true, TransactionID: "TXN1"}, nil)
	e.gw.On("Verify", mock.Anything, "TXN1").Return(nil, errors.New("timeout")).Once()

	_, err := e.svc.TopUp(context.Background(), TopUpRequest{
		Amount:  100,
		Method:  models.PaymentMethodCard,
		Details: testCard,
	})
	assert.Equal(t, CodeGatewayUnavailable, CodeOf(err))
	assert.Equal(t, models.Money(500), e.wallet.Balance())

	e.gw.On("Verify", mock.Anything, "TXN1").
		Return(&models.VerificationResult{TransactionID: "TXN1", Status: "captured", Verified: true}, nil)

	result, err := e.svc.Recover(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, models.Money(600), e.wallet.Balance(), "principal credited, fee not")
}
