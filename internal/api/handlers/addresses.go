package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	"github.com/marketfresh/checkoutapi/internal/service"
)

// CreateAddressRequest adds a new delivery address
type CreateAddressRequest struct {
	Line1        string            `json:"line1" binding:"required"`
	Line2        string            `json:"line2"`
	City         string            `json:"city" binding:"required"`
	Region       string            `json:"region"`
	PostalCode   string            `json:"postal_code" binding:"required"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	ContactName  string            `json:"contact_name" binding:"required"`
	ContactEmail string            `json:"contact_email"`
	ContactPhone string            `json:"contact_phone"`
	Attributes   map[string]string `json:"attributes"`
}

func HandleCreateAddress(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		var req CreateAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		snap, err := checkout.CreateAddress(c.Request.Context(), id, domain.Address{
			Line1:        req.Line1,
			Line2:        req.Line2,
			City:         req.City,
			Region:       req.Region,
			PostalCode:   req.PostalCode,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			ContactName:  req.ContactName,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
			Attributes:   req.Attributes,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}

func HandleDeleteAddress(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		snap, err := checkout.DeleteAddress(c.Request.Context(), id, c.Param("addressId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, snap)
	}
}
