package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutPhaseIsValid(t *testing.T) {
	assert.True(t, PhaseLoading.IsValid())
	assert.True(t, PhaseSucceeded.IsValid())
	assert.False(t, CheckoutPhase("BOGUS").IsValid())
}

func TestCheckoutPhaseTransitions(t *testing.T) {
	assert.True(t, PhaseLoading.CanTransitionTo(PhaseReadyToSelect))
	assert.True(t, PhaseReadyToSelect.CanTransitionTo(PhasePendingCardCreation))
	assert.True(t, PhaseReadyToSelect.CanTransitionTo(PhaseSubmitting))
	assert.True(t, PhaseCvvRequired.CanTransitionTo(PhaseSubmitting))
	assert.True(t, PhaseSubmitting.CanTransitionTo(PhaseSucceeded))
	assert.True(t, PhaseSubmitting.CanTransitionTo(PhaseReadyToSelect))

	assert.False(t, PhaseSucceeded.CanTransitionTo(PhaseReadyToSelect))
	assert.False(t, PhaseLoading.CanTransitionTo(PhaseSubmitting))
	assert.False(t, PhasePendingCardCreation.CanTransitionTo(PhaseSubmitting))
}

func TestShippingDateSelectable(t *testing.T) {
	assert.True(t, ShippingDate{IsActive: true}.Selectable())
	assert.False(t, ShippingDate{IsActive: true, Disabled: true}.Selectable())
	assert.False(t, ShippingDate{}.Selectable())
}

func TestRequiresCard(t *testing.T) {
	assert.True(t, RequiresCard(MethodVisaGateway))
	assert.False(t, RequiresCard(MethodCash))
	assert.False(t, RequiresCard(MethodBenefits))
}
