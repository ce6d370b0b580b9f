package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// Loading tracks one in-flight flag per entity family. Unrelated loads run
// concurrently; each completion touches only its own slice of session state.
type Loading struct {
	Addresses bool `json:"addresses"`
	Dates     bool `json:"dates"`
	Methods   bool `json:"methods"`
	Totals    bool `json:"totals"`
	Discounts bool `json:"discounts"`
	Balance   bool `json:"balance"`
}

// Any reports whether any load is still pending.
func (l Loading) Any() bool {
	return l.Addresses || l.Dates || l.Methods || l.Totals || l.Discounts || l.Balance
}

// Session is the per-checkout-attempt state owned by one user. All access
// goes through Update/View on the store so mutations are serialized.
type Session struct {
	ID                   uuid.UUID
	UserID               string
	FingerprintSessionID string
	CreatedAt            time.Time
	ExpiresAt            time.Time

	Phase   domain.CheckoutPhase
	Loading Loading

	Addresses       []domain.Address
	SelectedAddress *domain.Address
	AddressIsValid  bool

	Dates        []domain.ShippingDate
	SelectedDate *domain.ShippingDate

	Methods        []domain.PaymentMethod
	SelectedMethod *domain.PaymentMethod

	Discounts        []domain.Discount
	RemovingDiscount bool

	Balance *domain.CustomerBalance
	Totals  *domain.OrderTotals

	MinimumOrderMessage string
	ErrorMessage        string
	WarningMessage      string

	// CVV is captured transiently for one payment attempt and cleared
	// after capture. It never appears in snapshots.
	CVV          string
	CvvCaptured  bool
	PlacingOrder bool
	OrderID      string
}

// Snapshot is the externally visible view of a session. The CVV is omitted.
type Snapshot struct {
	ID                   uuid.UUID              `json:"id"`
	UserID               string                 `json:"user_id"`
	FingerprintSessionID string                 `json:"fingerprint_session_id"`
	Phase                domain.CheckoutPhase   `json:"phase"`
	Loading              Loading                `json:"loading"`
	Addresses            []domain.Address       `json:"addresses"`
	SelectedAddress      *domain.Address        `json:"selected_address,omitempty"`
	AddressIsValid       bool                   `json:"address_is_valid"`
	Dates                []domain.ShippingDate  `json:"dates"`
	SelectedDate         *domain.ShippingDate   `json:"selected_date,omitempty"`
	Methods              []domain.PaymentMethod `json:"methods"`
	SelectedMethod       *domain.PaymentMethod  `json:"selected_method,omitempty"`
	Discounts            []domain.Discount      `json:"discounts"`
	RemovingDiscount     bool                   `json:"removing_discount"`
	Balance              *domain.CustomerBalance `json:"balance,omitempty"`
	Totals               *domain.OrderTotals     `json:"totals,omitempty"`
	MinimumOrderMessage  string                 `json:"minimum_order_message"`
	ErrorMessage         string                 `json:"error_message,omitempty"`
	WarningMessage       string                 `json:"warning_message,omitempty"`
	CvvCaptured          bool                   `json:"cvv_captured"`
	PlacingOrder         bool                   `json:"placing_order"`
	OrderID              string                 `json:"order_id,omitempty"`
}

// View builds a detached copy of the session state. Slices and pointed-to
// values are cloned so later mutations never reach a snapshot already handed
// out, and subscribers read it without touching live state.
func (s *Session) View() Snapshot {
	snap := Snapshot{
		ID:                   s.ID,
		UserID:               s.UserID,
		FingerprintSessionID: s.FingerprintSessionID,
		Phase:                s.Phase,
		Loading:              s.Loading,
		Addresses:            append([]domain.Address(nil), s.Addresses...),
		AddressIsValid:       s.AddressIsValid,
		Dates:                append([]domain.ShippingDate(nil), s.Dates...),
		Methods:              append([]domain.PaymentMethod(nil), s.Methods...),
		Discounts:            append([]domain.Discount(nil), s.Discounts...),
		RemovingDiscount:     s.RemovingDiscount,
		MinimumOrderMessage:  s.MinimumOrderMessage,
		ErrorMessage:         s.ErrorMessage,
		WarningMessage:       s.WarningMessage,
		CvvCaptured:          s.CvvCaptured,
		PlacingOrder:         s.PlacingOrder,
		OrderID:              s.OrderID,
	}
	if s.SelectedAddress != nil {
		a := *s.SelectedAddress
		snap.SelectedAddress = &a
	}
	if s.SelectedDate != nil {
		d := *s.SelectedDate
		snap.SelectedDate = &d
	}
	if s.SelectedMethod != nil {
		m := *s.SelectedMethod
		snap.SelectedMethod = &m
	}
	if s.Balance != nil {
		b := *s.Balance
		snap.Balance = &b
	}
	if s.Totals != nil {
		t := *s.Totals
		snap.Totals = &t
	}
	return snap
}

// Store holds checkout sessions in memory and notifies subscribers after
// every committed mutation. It replaces ambient shared state with an
// injected dependency; last-writer-wins applies per entity slice.
type Store struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]*Session
	subscribers map[uuid.UUID][]chan Snapshot
	ttl         time.Duration
	logger      *zap.Logger
}

// NewStore creates a session store. Sessions expire after ttl.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		byID:        make(map[uuid.UUID]*Session),
		subscribers: make(map[uuid.UUID][]chan Snapshot),
		ttl:         ttl,
		logger:      logger,
	}
}

// Create starts a new checkout session for the user, minting the
// per-attempt device fingerprint session ID.
func (s *Store) Create(userID string) *Session {
	now := time.Now()
	sess := &Session{
		ID:                   uuid.New(),
		UserID:               userID,
		FingerprintSessionID: uuid.NewString(),
		CreatedAt:            now,
		ExpiresAt:            now.Add(s.ttl),
		Phase:                domain.PhaseLoading,
	}

	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// View reads a snapshot of the session.
func (s *Store) View(id uuid.UUID) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return Snapshot{}, &apperrors.ErrNotFound{Resource: "checkout session", ID: id.String()}
	}
	return sess.View(), nil
}

// Read runs fn against the live session under the store lock without
// notifying subscribers. Used to pull transient fields (the CVV) that are
// excluded from snapshots. fn must not retain the pointer.
func (s *Store) Read(id uuid.UUID, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return &apperrors.ErrNotFound{Resource: "checkout session", ID: id.String()}
	}
	fn(sess)
	return nil
}

// Update applies fn to the session under the store lock and notifies
// subscribers with the resulting snapshot. fn must not block.
func (s *Store) Update(id uuid.UUID, fn func(*Session)) (Snapshot, error) {
	s.mu.Lock()

	sess, ok := s.byID[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		s.mu.Unlock()
		return Snapshot{}, &apperrors.ErrNotFound{Resource: "checkout session", ID: id.String()}
	}

	fn(sess)
	snap := sess.View()
	// Sends are non-blocking, so notifying under the lock is safe and
	// avoids racing a concurrent unsubscribe close.
	for _, ch := range s.subscribers[id] {
		select {
		case ch <- snap:
		default:
			// Slow subscriber, drop the notification.
		}
	}
	s.mu.Unlock()

	return snap, nil
}

// Subscribe registers for snapshots after each mutation of the session.
// The subscription ends when ctx is done.
func (s *Store) Subscribe(ctx context.Context, id uuid.UUID) (<-chan Snapshot, error) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return nil, &apperrors.ErrNotFound{Resource: "checkout session", ID: id.String()}
	}
	ch := make(chan Snapshot, 8)
	s.subscribers[id] = append(s.subscribers[id], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.subscribers[id]
		for i, sub := range subs {
			if sub == ch {
				s.subscribers[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Delete removes a session and its subscriptions.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.byID, id)
	delete(s.subscribers, id)
	s.mu.Unlock()
}

// StartReaper evicts expired sessions until ctx is cancelled.
func (s *Store) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *Store) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byID {
		if now.After(sess.ExpiresAt) {
			delete(s.byID, id)
			delete(s.subscribers, id)
			s.logger.Debug("evicted expired checkout session", zap.String("session_id", id.String()))
		}
	}
}
