package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/service"
	"github.com/marketfresh/checkoutapi/internal/session"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// StartSessionRequest opens a checkout session for a user
type StartSessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// SessionResponse wraps a session snapshot with the computed submit gate
type SessionResponse struct {
	Session   session.Snapshot `json:"session"`
	CanSubmit bool             `json:"can_submit"`
}

func respond(c *gin.Context, snap session.Snapshot) {
	c.JSON(http.StatusOK, SessionResponse{
		Session:   snap,
		CanSubmit: service.CanSubmit(snap),
	})
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var nf *apperrors.ErrNotFound
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Message})
		return
	}
	var st *apperrors.ErrInvalidStateTransition
	if errors.As(err, &st) {
		c.JSON(http.StatusConflict, gin.H{"error": st.Error()})
		return
	}
	logger.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

func HandleStartSession(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		snap, err := checkout.StartSession(c.Request.Context(), req.UserID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleGetSession(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.View(id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleRefreshSession(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.Refresh(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// SelectAddressRequest picks a delivery address
type SelectAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

func HandleSelectAddress(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req SelectAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.SelectAddress(c.Request.Context(), id, req.AddressID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// SelectDateRequest picks a shipping slot
type SelectDateRequest struct {
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required"`
}

func HandleSelectDate(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req SelectDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.SelectDate(c.Request.Context(), id, req.Date, req.TimeSlot)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// SelectPaymentMethodRequest picks a payment option by system name
type SelectPaymentMethodRequest struct {
	SystemName string `json:"system_name" binding:"required"`
}

func HandleSelectPaymentMethod(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req SelectPaymentMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.SelectPaymentMethod(c.Request.Context(), id, req.SystemName)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// AddDiscountRequest applies a coupon code
type AddDiscountRequest struct {
	CouponCode string `json:"coupon_code" binding:"required"`
}

func HandleAddDiscount(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req AddDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.AddDiscount(c.Request.Context(), id, req.CouponCode)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleRemoveDiscount(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.RemoveDiscount(c.Request.Context(), id, c.Param("discountId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// ToggleBalanceRequest flips store-credit usage
type ToggleBalanceRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func HandleToggleBalance(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req ToggleBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.ToggleBalance(c.Request.Context(), id, *req.Active)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

// ProvideCvvRequest carries the transient CVV for one payment attempt
type ProvideCvvRequest struct {
	CVV string `json:"cvv" binding:"required"`
}

func HandleProvideCvv(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req ProvideCvvRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}
		snap, err := checkout.ProvideCvv(id, req.CVV)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleSubmit(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.Submit(c.Request.Context(), id)
		if errors.Is(err, service.ErrNotReady) {
			c.JSON(http.StatusConflict, SessionResponse{Session: snap, CanSubmit: false})
			return
		}
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}
