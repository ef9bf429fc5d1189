// Package session gives the otherwise process-wide cart and wallet state an
// explicit lifecycle: every piece of persisted state is scoped to a session
// id carried in a signed token, and starting a new session is the reset.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tiffin/internal/repositories"
	"tiffin/internal/services/cart"
	"tiffin/internal/services/checkout"
	"tiffin/internal/services/wallet"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Registry errors
var (
	ErrInvalidToken = errors.New("invalid session token")
)

// TokenTTL bounds how long a session token stays valid.
const TokenTTL = 24 * time.Hour

// Session bundles the services owned by one user session.
type Session struct {
	ID       string
	Cart     cart.Service
	Wallet   wallet.Service
	Checkout checkout.Service

	inFlight atomic.Bool
}

// BeginAttempt reserves the single checkout/top-up slot. It returns false
// while another attempt is still running; the caller must not start a second
// pipeline until EndAttempt.
func (s *Session) BeginAttempt() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// EndAttempt releases the slot once the attempt reached a terminal state.
func (s *Session) EndAttempt() {
	s.inFlight.Store(false)
}

// Claims are the session token contents.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// Registry builds and caches sessions. Attaching to a session id seen in a
// token rebuilds its services from the store, so sessions survive restarts.
type Registry struct {
	store       repositories.Store
	gateway     checkout.PaymentGateway
	secret      []byte
	walletCfg   wallet.Config
	checkoutCfg checkout.Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry.
func NewRegistry(store repositories.Store, gw checkout.PaymentGateway, secret string, walletCfg wallet.Config, checkoutCfg checkout.Config) *Registry {
	if store == nil {
		panic("store is required")
	}
	if gw == nil {
		panic("payment gateway is required")
	}

	return &Registry{
		store:       store,
		gateway:     gw,
		secret:      []byte(secret),
		walletCfg:   walletCfg,
		checkoutCfg: checkoutCfg,
		sessions:    make(map[string]*Session),
	}
}

// Start creates a fresh session and its signed token.
func (r *Registry) Start(ctx context.Context) (string, *Session, error) {
	id := uuid.NewString()

	sess, err := r.build(ctx, id)
	if err != nil {
		return "", nil, err
	}

	token, err := r.issueToken(id)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	return token, sess, nil
}

// Attach returns the session for an id, rebuilding it from persisted state
// when this process has not seen it yet.
func (r *Registry) Attach(ctx context.Context, sessionID string) (*Session, error) {
	r.mu.Lock()
	if sess, ok := r.sessions[sessionID]; ok {
		r.mu.Unlock()
		return sess, nil
	}
	r.mu.Unlock()

	sess, err := r.build(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sessionID]; ok {
		return existing, nil
	}
	r.sessions[sessionID] = sess
	return sess, nil
}

// ParseToken validates a session token and returns its session id.
func (r *Registry) ParseToken(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}

func (r *Registry) build(ctx context.Context, sessionID string) (*Session, error) {
	cartSvc, err := cart.NewService(ctx, r.store, sessionID)
	if err != nil {
		return nil, err
	}
	walletSvc, err := wallet.NewService(ctx, r.store, sessionID, r.walletCfg)
	if err != nil {
		return nil, err
	}
	checkoutSvc := checkout.NewService(cartSvc, walletSvc, r.gateway, r.store, sessionID, r.checkoutCfg)

	return &Session{
		ID:       sessionID,
		Cart:     cartSvc,
		Wallet:   walletSvc,
		Checkout: checkoutSvc,
	}, nil
}

func (r *Registry) issueToken(sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		SessionID: sessionID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
