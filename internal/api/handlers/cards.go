package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	"github.com/marketfresh/checkoutapi/internal/service"
)

// CreateCardRequest carries raw card details for tokenization. The card
// number and CVV travel through to the gateway and are never stored.
type CreateCardRequest struct {
	Number      string `json:"number" binding:"required"`
	ExpiryMonth string `json:"expiry_month" binding:"required"`
	ExpiryYear  string `json:"expiry_year" binding:"required"`
	CVV         string `json:"cvv" binding:"required"`
	OwnerName   string `json:"owner_name" binding:"required"`
	Brand       string `json:"brand" binding:"required"`

	BillingAddress CreateAddressRequest `json:"billing_address" binding:"required"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required"`
	CustomerPhone string `json:"customer_phone"`
}

func HandleCreateCard(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req CreateCardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		card := domain.CardDetails{
			Number:      req.Number,
			ExpiryMonth: req.ExpiryMonth,
			ExpiryYear:  req.ExpiryYear,
			CVV:         req.CVV,
			OwnerName:   req.OwnerName,
			Brand:       req.Brand,
		}
		billing := domain.Address{
			Line1:        req.BillingAddress.Line1,
			Line2:        req.BillingAddress.Line2,
			City:         req.BillingAddress.City,
			Region:       req.BillingAddress.Region,
			PostalCode:   req.BillingAddress.PostalCode,
			ContactEmail: req.BillingAddress.ContactEmail,
			Attributes:   req.BillingAddress.Attributes,
		}
		customer := domain.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		}

		snap, err := checkout.CreateCard(c.Request.Context(), id, card, billing, customer)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleDeleteCard(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.DeleteCard(c.Request.Context(), id, c.Param("customerId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}
