package domain

// CheckoutPhase represents the phase of a checkout session
type CheckoutPhase string

const (
	PhaseLoading             CheckoutPhase = "LOADING"
	PhaseReadyToSelect       CheckoutPhase = "READY_TO_SELECT"
	PhasePendingCardCreation CheckoutPhase = "PENDING_CARD_CREATION"
	PhaseCvvRequired         CheckoutPhase = "CVV_REQUIRED"
	PhaseSubmitting          CheckoutPhase = "SUBMITTING"
	PhaseSucceeded           CheckoutPhase = "SUCCEEDED"
	PhaseFailed              CheckoutPhase = "FAILED"
)

// IsValid checks if the checkout phase is valid
func (p CheckoutPhase) IsValid() bool {
	switch p {
	case PhaseLoading,
		PhaseReadyToSelect,
		PhasePendingCardCreation,
		PhaseCvvRequired,
		PhaseSubmitting,
		PhaseSucceeded,
		PhaseFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a phase transition is valid
func (p CheckoutPhase) CanTransitionTo(next CheckoutPhase) bool {
	switch p {
	case PhaseLoading:
		return next == PhaseReadyToSelect || next == PhaseFailed
	case PhaseReadyToSelect:
		return next == PhasePendingCardCreation ||
			next == PhaseCvvRequired ||
			next == PhaseSubmitting
	case PhasePendingCardCreation:
		return next == PhaseReadyToSelect
	case PhaseCvvRequired:
		return next == PhaseReadyToSelect || next == PhaseSubmitting
	case PhaseSubmitting:
		return next == PhaseSucceeded ||
			next == PhaseFailed ||
			next == PhaseReadyToSelect
	case PhaseSucceeded:
		return false // Terminal state
	case PhaseFailed:
		return next == PhaseReadyToSelect
	default:
		return false
	}
}

// Known payment-method system names. Methods absent from this list are
// treated as pay-on-delivery and capture nothing.
const (
	MethodVisaGateway = "Payments.Visa"
	MethodCash        = "Payments.CashOnDelivery"
	MethodBenefits    = "Payments.Benefits"
)

// RequiresCard reports whether the method needs a tokenized card attached
// before it can place an order.
func RequiresCard(systemName string) bool {
	return systemName == MethodVisaGateway
}
