package api

import (
	"net/http"                       // HTTP status codes
	"rental_system/internal/service" // Rental workflows

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Money amounts
)

// PaymentRequest records a payment made outside the gateway
type PaymentRequest struct {
	LeaseID uuid.UUID       `json:"lease_id" binding:"required"` // Lease paid against
	Amount  decimal.Decimal `json:"amount"`                      // Amount, number or decimal string
	Method  string          `json:"payment_method"`              // card, cash, transfer...
}

// ChargeRequest starts a card charge against the caller's active lease
type ChargeRequest struct {
	Amount decimal.Decimal `json:"amount"` // Amount in major units
}

// RecordPaymentHandler appends a completed payment to the ledger
func RecordPaymentHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		payment, err := svc.RecordPayment(c.Request.Context(), actor(c), req.LeaseID, req.Amount, req.Method)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

// InitiateChargeHandler asks the gateway for a charge and returns its client handle
func InitiateChargeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChargeRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		intent, err := svc.InitiateCharge(c.Request.Context(), actor(c), req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, intent)
	}
}

// ConfirmChargeHandler records the gateway outcome of a charge
func ConfirmChargeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payment, err := svc.ConfirmCharge(c.Request.Context(), actor(c), c.Param("reference"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

// PaymentHistoryHandler lists the payments of one lease
func PaymentHistoryHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The raw id goes through so malformed ids report not found
		payments, err := svc.History(c.Request.Context(), actor(c), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

// BalanceHandler returns the caller's standing on their active lease
func BalanceHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		balance, err := svc.Balance(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balance.StringFixed(2)}) // Negative means arrears
	}
}

// OwnerPaymentsHandler lists payments received on the caller's active leases
func OwnerPaymentsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := svc.OwnerPayments(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}
