package routing

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pay/internal/common"
	"github.com/noah-isme/backend-pay/internal/geo"
)

// Validator checks request-level invariants that hold regardless of which
// gateway is eventually selected. Pure function of its inputs.
type Validator struct {
	Geo geo.Resolver
}

// Payment validates a payment request against the resolved location.
func (v Validator) Payment(req PaymentRequest, loc geo.Location) error {
	if err := v.amountAndCurrency(req.Amount, req.Currency, loc); err != nil {
		return err
	}
	if strings.TrimSpace(req.PayerID) == "" {
		return common.NewAppError(common.CodeBadRequest, "payerId is required", http.StatusBadRequest, nil)
	}
	return nil
}

// Payout validates a payout request against the resolved location. Exactly
// one destination method must be present; absence of both is an error, not a
// silent default.
func (v Validator) Payout(req PayoutRequest, loc geo.Location) error {
	if err := v.amountAndCurrency(req.Amount, req.Currency, loc); err != nil {
		return err
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		return common.NewAppError(common.CodeBadRequest, "recipientId is required", http.StatusBadRequest, nil)
	}
	hasBank := req.BankAccount != nil && strings.TrimSpace(req.BankAccount.AccountNumber) != ""
	hasEmail := strings.TrimSpace(req.PayoutEmail) != ""
	if !hasBank && !hasEmail {
		return common.NewAppError(common.CodeDestinationRequired,
			"a payout destination is required: provide bankAccount or payoutEmail",
			http.StatusBadRequest, nil)
	}
	if hasBank && hasEmail {
		return common.NewAppError(common.CodeDestinationRequired,
			"provide exactly one payout destination, not both bankAccount and payoutEmail",
			http.StatusBadRequest, nil)
	}
	return nil
}

func (v Validator) amountAndCurrency(amount decimal.Decimal, currency string, loc geo.Location) error {
	if !amount.IsPositive() {
		return common.NewAppError(common.CodeAmountNotPositive, "amount must be positive", http.StatusBadRequest, nil)
	}
	currency = strings.TrimSpace(currency)
	if len(currency) != 3 {
		return common.NewAppError(common.CodeInvalidCurrency, "currency must be a 3-letter ISO 4217 code", http.StatusBadRequest, nil)
	}
	if v.Geo != nil && !v.Geo.IsCurrencySupportedInRegion(currency, loc.Region) {
		alternatives := v.Geo.AlternativeCurrencies(loc.Region)
		msg := fmt.Sprintf("currency %s is not commonly used in region %s", strings.ToUpper(currency), loc.Region)
		if len(alternatives) > 0 {
			msg = fmt.Sprintf("%s; supported currencies: %s", msg, strings.Join(alternatives, ", "))
		}
		return &common.AppError{
			Code:       common.CodeCurrencyNotSupported,
			Message:    msg,
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"alternatives": alternatives},
		}
	}
	return nil
}
