package handlers

import (
	"fmt"
	"strings"

	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var customValidators = map[string]validator.Func{
	"order_status": func(fl validator.FieldLevel) bool {
		_, ok := models.NormalizeOrderStatus(fl.Field().String())
		return ok
	},
	"payment_method": func(fl validator.FieldLevel) bool {
		return models.PaymentMethod(fl.Field().String()).Valid()
	},
	"gateway_status": func(fl validator.FieldLevel) bool {
		_, ok := models.GatewayStatus(strings.ToLower(fl.Field().String())).OrderStatusFor()
		return ok
	},
	"txn_status": func(fl validator.FieldLevel) bool {
		return models.TransactionStatus(fl.Field().String()).Valid()
	},
}

// RegisterValidators adds the domain enum tags to gin's binding engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	for tag, fn := range customValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}
