package service

import (
	"time"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
)

// ValidateCreateOrderParams validates checkout inputs before the
// transaction starts.
func ValidateCreateOrderParams(params *repository.CreateOrderParams) error {
	if params.ShippingCost < 0 {
		return apperrors.NewValidationError("shipping_cost", "shipping cost cannot be negative")
	}
	if params.TaxAmount < 0 {
		return apperrors.NewValidationError("tax_amount", "tax amount cannot be negative")
	}
	if params.DiscountAmount < 0 {
		return apperrors.NewValidationError("discount_amount", "discount amount cannot be negative")
	}
	return validateShipping(&params.Shipping)
}

func validateShipping(info *models.ShippingInfo) error {
	if info.Name == "" {
		return apperrors.NewValidationError("shipping.name", "recipient name is required")
	}
	if info.Phone == "" {
		return apperrors.NewValidationError("shipping.phone", "phone is required")
	}
	if info.Address == "" {
		return apperrors.NewValidationError("shipping.address", "address is required")
	}
	if info.City == "" {
		return apperrors.NewValidationError("shipping.city", "city is required")
	}
	if info.Country == "" {
		return apperrors.NewValidationError("shipping.country", "country is required")
	}
	return nil
}

// ValidateStatusRequest validates a status update request body.
func ValidateStatusRequest(status string, estimatedDelivery string) error {
	if status == "" {
		return apperrors.NewValidationError("status", "status is required")
	}
	if !models.OrderStatus(status).Valid() {
		return apperrors.NewValidationError("status", "invalid order status")
	}
	if estimatedDelivery != "" {
		if _, err := time.Parse(time.RFC3339, estimatedDelivery); err != nil {
			return apperrors.NewValidationError("estimated_delivery", "must be RFC 3339")
		}
	}
	return nil
}

// ValidatePaymentRequest validates a payment update request body.
func ValidatePaymentRequest(payment string) error {
	if payment == "" {
		return apperrors.NewValidationError("payment_status", "payment status is required")
	}
	if !models.PaymentStatus(payment).Valid() {
		return apperrors.NewValidationError("payment_status", "invalid payment status")
	}
	return nil
}

// ValidateManualPrice validates an admin manual price entry.
func ValidateManualPrice(karat string, price float64) error {
	if !models.Karat(karat).Valid() {
		return apperrors.NewValidationError("karat", "karat must be one of 18k, 21k, 24k")
	}
	if price <= 0 {
		return apperrors.NewValidationError("price_per_gram", "price must be positive")
	}
	return nil
}
