// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("role", validateRole)
		_ = v.RegisterValidation("cashflow_type", validateCashflowType)
		_ = v.RegisterValidation("value_status", validateValueStatus)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("group_by", validateGroupBy)
		_ = v.RegisterValidation("asset_class", validateAssetClass)
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	}
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateCashflowType(fl validator.FieldLevel) bool {
	switch models.CashflowType(fl.Field().String()) {
	case models.CashflowTypeEntrada, models.CashflowTypeDespesa, models.CashflowTypeInvestimento:
		return true
	}
	return false
}

func validateValueStatus(fl validator.FieldLevel) bool {
	switch models.ValueStatus(fl.Field().String()) {
	case models.ValueStatusPago, models.ValueStatusPendente:
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeEntrada, models.TransactionTypeSaida:
		return true
	}
	return false
}

func validateGroupBy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "category", "type", "asset", "month":
		return true
	}
	return false
}

func validateAssetClass(fl validator.FieldLevel) bool {
	return models.AssetClass(fl.Field().String()).Valid()
}

// decimalValue exposes decimals as float64 so numeric tags like gt=0 apply.
func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	}
	return nil
}
