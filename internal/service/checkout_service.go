package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	"github.com/marketfresh/checkoutapi/internal/session"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// ErrNotReady is returned by Submit when the session's preconditions do not
// hold. Submit readiness is always re-evaluated server-side.
var ErrNotReady = errors.New("checkout is not ready to submit")

const (
	genericErrorMessage  = "Something went wrong. Please try again."
	declinedErrorMessage = "Your payment was declined. Please try another payment method."
)

// CheckoutService drives the confirmation sequence for a checkout session:
// it keeps derived data (totals, available dates) consistent with user
// selections and gates order submission until every precondition holds.
// Remote failures are recorded on the session and never propagate past this
// boundary; nothing is retried automatically.
type CheckoutService struct {
	sessions *session.Store
	sf       Storefront
	captures *CaptureRegistry
	cards    CardManager
	logger   *zap.Logger

	balanceDelay time.Duration
	mu           sync.Mutex
	balanceTimer map[uuid.UUID]*time.Timer
}

// NewCheckoutService creates a new checkout orchestrator
func NewCheckoutService(
	sessions *session.Store,
	sf Storefront,
	captures *CaptureRegistry,
	cards CardManager,
	balanceDelay time.Duration,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		sessions:     sessions,
		sf:           sf,
		captures:     captures,
		cards:        cards,
		logger:       logger,
		balanceDelay: balanceDelay,
		balanceTimer: make(map[uuid.UUID]*time.Timer),
	}
}

// CanSubmit is the pure submit-gating predicate over a session snapshot.
// It is evaluated from current state and is not itself a state.
func CanSubmit(s session.Snapshot) bool {
	if !s.Phase.CanTransitionTo(domain.PhaseSubmitting) {
		return false
	}
	if s.SelectedAddress == nil || s.SelectedDate == nil || s.Totals == nil {
		return false
	}
	// A zero total needs no payment method at all.
	if s.SelectedMethod == nil && s.Totals.OrderTotal != 0 {
		return false
	}
	if s.SelectedMethod != nil && s.Totals.OrderTotal != 0 &&
		domain.RequiresCard(s.SelectedMethod.SystemName) && s.SelectedMethod.SavedCard == nil {
		return false
	}
	if s.ErrorMessage != "" || !s.AddressIsValid || s.MinimumOrderMessage != "" {
		return false
	}
	if s.RemovingDiscount || s.PlacingOrder || s.Loading.Any() {
		return false
	}
	return true
}

// StartSession opens a checkout session and runs the initial fan-out:
// addresses, payment methods, totals, discounts and balance load
// concurrently, each completion touching only its own slice of state.
func (s *CheckoutService) StartSession(ctx context.Context, userID string) (session.Snapshot, error) {
	sess := s.sessions.Create(userID)
	s.loadAll(ctx, sess.ID, userID)
	return s.sessions.Update(sess.ID, func(st *session.Session) {
		st.Phase = domain.PhaseReadyToSelect
	})
}

// Refresh re-runs the initial loads for an existing session. This is the
// only recovery path after a load failure; nothing retries on its own.
func (s *CheckoutService) Refresh(ctx context.Context, id uuid.UUID) (session.Snapshot, error) {
	snap, err := s.sessions.Update(id, func(st *session.Session) {
		st.ErrorMessage = ""
		st.WarningMessage = ""
	})
	if err != nil {
		return session.Snapshot{}, err
	}
	s.loadAll(ctx, id, snap.UserID)
	return s.sessions.View(id)
}

// View returns the current snapshot.
func (s *CheckoutService) View(id uuid.UUID) (session.Snapshot, error) {
	return s.sessions.View(id)
}

// Subscribe streams snapshots after each session mutation until ctx ends.
func (s *CheckoutService) Subscribe(ctx context.Context, id uuid.UUID) (<-chan session.Snapshot, error) {
	return s.sessions.Subscribe(ctx, id)
}

func (s *CheckoutService) loadAll(ctx context.Context, id uuid.UUID, userID string) {
	if _, err := s.sessions.Update(id, func(st *session.Session) {
		st.Loading = session.Loading{
			Addresses: true,
			Methods:   true,
			Totals:    true,
			Discounts: true,
			Balance:   true,
		}
	}); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		addresses, err := s.sf.ListAddresses(ctx, userID)
		s.sessions.Update(id, func(st *session.Session) {
			st.Loading.Addresses = false
			if err != nil {
				st.ErrorMessage = s.messageFor(err)
				return
			}
			st.Addresses = addresses
		})
	}()

	go func() {
		defer wg.Done()
		methods, err := s.sf.ListPaymentMethods(ctx, userID)
		s.sessions.Update(id, func(st *session.Session) {
			st.Loading.Methods = false
			if err != nil {
				st.ErrorMessage = s.messageFor(err)
				return
			}
			st.Methods = methods
		})
	}()

	go func() {
		defer wg.Done()
		totals, err := s.sf.GetOrderTotals(ctx, userID)
		s.sessions.Update(id, func(st *session.Session) {
			st.Loading.Totals = false
			if err != nil {
				st.ErrorMessage = s.messageFor(err)
				return
			}
			st.Totals = totals
		})
	}()

	go func() {
		defer wg.Done()
		discounts, err := s.sf.ListDiscounts(ctx, userID)
		s.sessions.Update(id, func(st *session.Session) {
			st.Loading.Discounts = false
			if err != nil {
				st.ErrorMessage = s.messageFor(err)
				return
			}
			st.Discounts = discounts
		})
	}()

	go func() {
		defer wg.Done()
		balance, err := s.sf.GetBalance(ctx, userID)
		s.sessions.Update(id, func(st *session.Session) {
			st.Loading.Balance = false
			if err != nil {
				st.ErrorMessage = s.messageFor(err)
				return
			}
			st.Balance = balance
		})
	}()

	wg.Wait()
}

// SelectAddress picks a delivery address. When the postal code differs from
// the previous selection the coverage check and the date refetch run,
// chained, and any date selected under the old address is invalidated.
func (s *CheckoutService) SelectAddress(ctx context.Context, id uuid.UUID, addressID string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	var addr *domain.Address
	for i := range snap.Addresses {
		if snap.Addresses[i].ID == addressID {
			addr = &snap.Addresses[i]
			break
		}
	}
	if addr == nil {
		return snap, &apperrors.ErrNotFound{Resource: "address", ID: addressID}
	}

	prevPostal := ""
	if snap.SelectedAddress != nil {
		prevPostal = snap.SelectedAddress.PostalCode
	}

	selected := *addr
	snap, err = s.sessions.Update(id, func(st *session.Session) {
		st.SelectedAddress = &selected
		st.WarningMessage = ""
		if selected.PostalCode != prevPostal {
			// Selections made under the old postal code are stale.
			st.SelectedDate = nil
			st.MinimumOrderMessage = ""
			st.AddressIsValid = false
		}
	})
	if err != nil || selected.PostalCode == prevPostal {
		return snap, err
	}

	covered, err := s.sf.ValidatePostalCode(ctx, selected.PostalCode)
	if err != nil {
		return s.sessions.Update(id, func(st *session.Session) {
			st.ErrorMessage = s.messageFor(err)
		})
	}
	if !covered {
		return s.sessions.Update(id, func(st *session.Session) {
			st.AddressIsValid = false
			st.WarningMessage = (&apperrors.CoverageError{PostalCode: selected.PostalCode}).Error()
		})
	}

	if _, err := s.sessions.Update(id, func(st *session.Session) {
		st.AddressIsValid = true
		st.Loading.Dates = true
	}); err != nil {
		return session.Snapshot{}, err
	}

	dates, datesErr := s.sf.ListShippingDates(ctx, selected.PostalCode)
	snap, err = s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Dates = false
		if datesErr != nil {
			st.ErrorMessage = s.messageFor(datesErr)
			return
		}
		st.Dates = dates
		for i := range dates {
			if dates[i].Selectable() {
				d := dates[i]
				st.SelectedDate = &d
				break
			}
		}
	})
	if err != nil || datesErr != nil {
		return snap, err
	}

	return s.refreshTotals(ctx, id, snap.UserID)
}

// CreateAddress adds a new delivery address to the user's book and to the
// session list.
func (s *CheckoutService) CreateAddress(ctx context.Context, id uuid.UUID, addr domain.Address) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	created, createErr := s.sf.CreateAddress(ctx, snap.UserID, addr)
	return s.sessions.Update(id, func(st *session.Session) {
		if createErr != nil {
			st.ErrorMessage = s.messageFor(createErr)
			return
		}
		st.Addresses = append(st.Addresses, *created)
	})
}

// DeleteAddress removes an address. Deleting the selected address clears the
// selection and everything derived from it.
func (s *CheckoutService) DeleteAddress(ctx context.Context, id uuid.UUID, addressID string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	deleteErr := s.sf.DeleteAddress(ctx, snap.UserID, addressID)
	return s.sessions.Update(id, func(st *session.Session) {
		if deleteErr != nil {
			st.ErrorMessage = s.messageFor(deleteErr)
			return
		}
		kept := make([]domain.Address, 0, len(st.Addresses))
		for _, a := range st.Addresses {
			if a.ID != addressID {
				kept = append(kept, a)
			}
		}
		st.Addresses = kept
		if st.SelectedAddress != nil && st.SelectedAddress.ID == addressID {
			st.SelectedAddress = nil
			st.AddressIsValid = false
			st.SelectedDate = nil
			st.Dates = nil
			st.MinimumOrderMessage = ""
		}
	})
}

// SelectDate picks a shipping slot and runs the date-specific minimum-order
// check. A non-empty message blocks submission.
func (s *CheckoutService) SelectDate(ctx context.Context, id uuid.UUID, date, timeSlot string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	var slot *domain.ShippingDate
	for i := range snap.Dates {
		if snap.Dates[i].Date == date && snap.Dates[i].TimeSlot == timeSlot {
			slot = &snap.Dates[i]
			break
		}
	}
	if slot == nil {
		return snap, &apperrors.ErrNotFound{Resource: "shipping date", ID: date + " " + timeSlot}
	}
	if !slot.Selectable() {
		return snap, &apperrors.ValidationError{StatusCode: 400, Message: "shipping date is not available"}
	}

	chosen := *slot
	if _, err := s.sessions.Update(id, func(st *session.Session) {
		st.SelectedDate = &chosen
	}); err != nil {
		return session.Snapshot{}, err
	}

	msg, msgErr := s.sf.GetMinimumOrderMessage(ctx, snap.UserID, date)
	return s.sessions.Update(id, func(st *session.Session) {
		if msgErr != nil {
			st.ErrorMessage = s.messageFor(msgErr)
			return
		}
		st.MinimumOrderMessage = msg
	})
}

// SelectPaymentMethod picks a payment option. A card-based method with no
// saved card enters the card-creation sub-state before it can be used.
func (s *CheckoutService) SelectPaymentMethod(ctx context.Context, id uuid.UUID, systemName string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	var method *domain.PaymentMethod
	for i := range snap.Methods {
		if snap.Methods[i].SystemName == systemName {
			method = &snap.Methods[i]
			break
		}
	}
	if method == nil {
		return snap, &apperrors.ErrNotFound{Resource: "payment method", ID: systemName}
	}

	selected := *method
	return s.sessions.Update(id, func(st *session.Session) {
		st.SelectedMethod = &selected
		if domain.RequiresCard(selected.SystemName) && selected.SavedCard == nil {
			st.Phase = domain.PhasePendingCardCreation
		} else if st.Phase == domain.PhasePendingCardCreation || st.Phase == domain.PhaseCvvRequired {
			st.Phase = domain.PhaseReadyToSelect
		}
	})
}

// CreateCard runs the tokenization chain and attaches the resulting card to
// the selected method and the method list. The creation flow captures the
// CVV contextually, so the session does not prompt for it again.
func (s *CheckoutService) CreateCard(ctx context.Context, id uuid.UUID, card domain.CardDetails, billing domain.Address, customer domain.Customer) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	customer.UserID = snap.UserID

	saved, createErr := s.cards.CreateCard(ctx, card, billing, customer)
	return s.sessions.Update(id, func(st *session.Session) {
		if createErr != nil {
			st.ErrorMessage = s.messageFor(createErr)
			return
		}
		for i := range st.Methods {
			if domain.RequiresCard(st.Methods[i].SystemName) {
				st.Methods[i].SavedCard = saved
			}
		}
		if st.SelectedMethod != nil && domain.RequiresCard(st.SelectedMethod.SystemName) {
			st.SelectedMethod.SavedCard = saved
		}
		st.CvvCaptured = true
		if st.Phase == domain.PhasePendingCardCreation {
			st.Phase = domain.PhaseReadyToSelect
		}
	})
}

// DeleteCard removes the saved card at the gateway and locally, detaching it
// from the session's methods.
func (s *CheckoutService) DeleteCard(ctx context.Context, id uuid.UUID, serviceCustomerID string) (session.Snapshot, error) {
	deleteErr := s.cards.DeleteCard(ctx, serviceCustomerID)
	return s.sessions.Update(id, func(st *session.Session) {
		if deleteErr != nil {
			st.ErrorMessage = s.messageFor(deleteErr)
			return
		}
		for i := range st.Methods {
			if st.Methods[i].SavedCard != nil && st.Methods[i].SavedCard.ServiceCustomerID == serviceCustomerID {
				st.Methods[i].SavedCard = nil
			}
		}
		if st.SelectedMethod != nil && st.SelectedMethod.SavedCard != nil &&
			st.SelectedMethod.SavedCard.ServiceCustomerID == serviceCustomerID {
			st.SelectedMethod.SavedCard = nil
			st.CvvCaptured = false
			if domain.RequiresCard(st.SelectedMethod.SystemName) {
				st.Phase = domain.PhasePendingCardCreation
			}
		}
	})
}

// AddDiscount applies a coupon code, then recomputes totals.
func (s *CheckoutService) AddDiscount(ctx context.Context, id uuid.UUID, couponCode string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	applied, addErr := s.sf.AddDiscount(ctx, snap.UserID, couponCode)
	snap, err = s.sessions.Update(id, func(st *session.Session) {
		if addErr != nil {
			st.WarningMessage = s.messageFor(addErr)
			return
		}
		st.Discounts = append(st.Discounts, *applied)
	})
	if err != nil || addErr != nil {
		return snap, err
	}

	return s.refreshTotals(ctx, id, snap.UserID)
}

// RemoveDiscount removes a coupon pessimistically: the coupon stays in the
// list until the server confirms removal. On failure the list is unchanged
// and a warning is shown. The in-flight removal blocks submission.
func (s *CheckoutService) RemoveDiscount(ctx context.Context, id uuid.UUID, discountID string) (session.Snapshot, error) {
	snap, err := s.sessions.Update(id, func(st *session.Session) {
		st.RemovingDiscount = true
		st.WarningMessage = ""
	})
	if err != nil {
		return session.Snapshot{}, err
	}

	removeErr := s.sf.RemoveDiscount(ctx, snap.UserID, discountID)
	snap, err = s.sessions.Update(id, func(st *session.Session) {
		st.RemovingDiscount = false
		if removeErr != nil {
			st.WarningMessage = s.messageFor(removeErr)
			return
		}
		kept := make([]domain.Discount, 0, len(st.Discounts))
		for _, d := range st.Discounts {
			if d.ID != discountID {
				kept = append(kept, d)
			}
		}
		st.Discounts = kept
	})
	if err != nil || removeErr != nil {
		return snap, err
	}

	return s.refreshTotals(ctx, id, snap.UserID)
}

// ToggleBalance flips store-credit usage. The server round-trip is debounced
// so rapid toggles collapse into one recompute carrying the final value.
func (s *CheckoutService) ToggleBalance(ctx context.Context, id uuid.UUID, active bool) (session.Snapshot, error) {
	snap, err := s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Balance = true
	})
	if err != nil {
		return session.Snapshot{}, err
	}
	userID := snap.UserID

	s.mu.Lock()
	if t, ok := s.balanceTimer[id]; ok {
		t.Stop()
	}
	s.balanceTimer[id] = time.AfterFunc(s.balanceDelay, func() {
		s.mu.Lock()
		delete(s.balanceTimer, id)
		s.mu.Unlock()
		s.applyBalanceToggle(id, userID, active)
	})
	s.mu.Unlock()

	return snap, nil
}

func (s *CheckoutService) applyBalanceToggle(id uuid.UUID, userID string, active bool) {
	// Detached from the request that scheduled it; bounded on its own.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balance, err := s.sf.SetBalanceActive(ctx, userID, active)
	if _, updErr := s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Balance = false
		if err != nil {
			st.ErrorMessage = s.messageFor(err)
			return
		}
		st.Balance = balance
	}); updErr != nil || err != nil {
		return
	}

	s.refreshTotals(ctx, id, userID)
}

// ProvideCvv records the CVV entered for this payment attempt. It is held
// only until the next capture call consumes it.
func (s *CheckoutService) ProvideCvv(id uuid.UUID, cvv string) (session.Snapshot, error) {
	snap, err := s.sessions.View(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	if snap.Phase == domain.PhaseSubmitting || snap.Phase == domain.PhaseSucceeded {
		return snap, &apperrors.ErrInvalidStateTransition{From: snap.Phase, To: domain.PhaseReadyToSelect}
	}
	return s.sessions.Update(id, func(st *session.Session) {
		st.CVV = cvv
		st.CvvCaptured = true
		if st.Phase == domain.PhaseCvvRequired {
			st.Phase = domain.PhaseReadyToSelect
		}
	})
}

// Submit places the order. A zero total bypasses payment capture entirely
// and submits an empty payment descriptor. Card methods without a captured
// CVV move to the CVV prompt instead of capturing. Failures surface the
// server message verbatim for 400-class errors and a generic message
// otherwise, and return the session to the selection state.
func (s *CheckoutService) Submit(ctx context.Context, id uuid.UUID) (session.Snapshot, error) {
	var rejected, needCvv, zeroTotal bool

	// The gate and the transition into Submitting commit atomically, so a
	// second submit racing this one sees PlacingOrder set and is rejected.
	snap, err := s.sessions.Update(id, func(st *session.Session) {
		if !CanSubmit(st.View()) {
			rejected = true
			return
		}
		zeroTotal = st.Totals.OrderTotal == 0

		// The CVV prompt happens before any capture attempt.
		if !zeroTotal && domain.RequiresCard(st.SelectedMethod.SystemName) && !st.CvvCaptured {
			needCvv = true
			st.Phase = domain.PhaseCvvRequired
			return
		}

		st.Phase = domain.PhaseSubmitting
		st.PlacingOrder = true
		st.ErrorMessage = ""
	})
	if err != nil {
		return session.Snapshot{}, err
	}
	if rejected {
		return snap, ErrNotReady
	}
	if needCvv {
		return snap, nil
	}

	paymentResult := ""
	methodName := ""
	if !zeroTotal {
		methodName = snap.SelectedMethod.SystemName
		if strategy := s.captures.Lookup(methodName); strategy != nil {
			var cvv string
			if err := s.sessions.Read(id, func(st *session.Session) {
				cvv = st.CVV
			}); err != nil {
				return session.Snapshot{}, err
			}

			result, captureErr := strategy.Capture(ctx, CaptureParams{
				Card:                 snap.SelectedMethod.SavedCard,
				CVV:                  cvv,
				Amount:               snap.Totals.OrderTotal,
				AddressID:            snap.SelectedAddress.ID,
				FingerprintSessionID: snap.FingerprintSessionID,
			})
			if captureErr != nil {
				s.logger.Warn("payment capture failed",
					zap.String("session_id", id.String()),
					zap.String("method", methodName),
					zap.Error(captureErr),
				)
				return s.sessions.Update(id, func(st *session.Session) {
					st.CVV = ""
					st.CvvCaptured = false
					st.PlacingOrder = false
					st.Phase = domain.PhaseReadyToSelect
					if apperrors.IsDeclined(captureErr) {
						st.ErrorMessage = declinedErrorMessage
					} else {
						st.ErrorMessage = s.messageFor(captureErr)
					}
				})
			}
			paymentResult = result

			if _, err := s.sessions.Update(id, func(st *session.Session) {
				st.CVV = ""
			}); err != nil {
				return session.Snapshot{}, err
			}
		}
	}

	orderID, placeErr := s.sf.PlaceOrder(ctx, snap.UserID, domain.PlaceOrderRequest{
		PaymentMethodSystemName: methodName,
		ShippingDate:            snap.SelectedDate.Date,
		ShippingTime:            snap.SelectedDate.TimeSlot,
		AddressID:               snap.SelectedAddress.ID,
		PaymentResult:           paymentResult,
		CartItemIDs:             snap.Totals.CartItemIDs,
	})
	return s.sessions.Update(id, func(st *session.Session) {
		st.PlacingOrder = false
		if placeErr != nil {
			st.Phase = domain.PhaseReadyToSelect
			st.ErrorMessage = s.messageFor(placeErr)
			return
		}
		st.Phase = domain.PhaseSucceeded
		st.OrderID = orderID
	})
}

// refreshTotals recomputes order totals after an upstream selection change
// and then refetches the applied-discount list, since the server may have
// dropped or restored coupons along with the totals.
func (s *CheckoutService) refreshTotals(ctx context.Context, id uuid.UUID, userID string) (session.Snapshot, error) {
	if _, err := s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Totals = true
		st.Loading.Discounts = true
	}); err != nil {
		return session.Snapshot{}, err
	}

	totals, totalsErr := s.sf.GetOrderTotals(ctx, userID)
	snap, err := s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Totals = false
		if totalsErr != nil {
			st.Loading.Discounts = false
			st.ErrorMessage = s.messageFor(totalsErr)
			return
		}
		st.Totals = totals
	})
	if err != nil || totalsErr != nil {
		return snap, err
	}

	discounts, discountsErr := s.sf.ListDiscounts(ctx, userID)
	return s.sessions.Update(id, func(st *session.Session) {
		st.Loading.Discounts = false
		if discountsErr != nil {
			st.ErrorMessage = s.messageFor(discountsErr)
			return
		}
		st.Discounts = discounts
	})
}

// messageFor maps an error to the user-visible message: 400-class server
// messages verbatim, everything else generic.
func (s *CheckoutService) messageFor(err error) string {
	if msg := apperrors.ValidationMessage(err); msg != "" {
		return msg
	}
	return genericErrorMessage
}
