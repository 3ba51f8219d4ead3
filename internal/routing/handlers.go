package routing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pay/internal/common"
	"github.com/noah-isme/backend-pay/internal/gateway"
)

// Handler wires the router to HTTP. Every routed request answers 200 with a
// unified result; 4xx is reserved for requests that cannot be decoded at all.
type Handler struct {
	Router   *Router
	Validate *validator.Validate
}

type paymentPayload struct {
	PayerID       string            `json:"payerId" validate:"required"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency" validate:"required,len=3,alpha"`
	Country       string            `json:"country" validate:"omitempty,len=2,alpha"`
	PaymentMethod string            `json:"paymentMethod" validate:"omitempty,max=64"`
	Description   string            `json:"description" validate:"omitempty,max=500"`
	Metadata      map[string]string `json:"metadata" validate:"omitempty,max=32"`
	ReturnURL     string            `json:"returnUrl" validate:"omitempty,url"`
	CancelURL     string            `json:"cancelUrl" validate:"omitempty,url"`
}

type payoutPayload struct {
	RecipientID string               `json:"recipientId" validate:"required"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    string               `json:"currency" validate:"required,len=3,alpha"`
	Country     string               `json:"country" validate:"omitempty,len=2,alpha"`
	BankAccount *gateway.BankAccount `json:"bankAccount"`
	PayoutEmail string               `json:"payoutEmail" validate:"omitempty,email"`
	Description string               `json:"description" validate:"omitempty,max=500"`
	Metadata    map[string]string    `json:"metadata" validate:"omitempty,max=32"`
}

// CreatePayment handles POST /v1/payments.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if h.Router == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "routing service not configured", nil)
		return
	}
	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if details, ok := h.checkShape(payload); !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "request failed validation", details)
		return
	}

	req := PaymentRequest{
		PayerID:       payload.PayerID,
		Amount:        payload.Amount,
		Currency:      strings.ToUpper(payload.Currency),
		Country:       payload.Country,
		IPAddress:     common.ClientIP(r),
		Headers:       r.Header,
		PaymentMethod: payload.PaymentMethod,
		Description:   payload.Description,
		Metadata:      payload.Metadata,
		ReturnURL:     payload.ReturnURL,
		CancelURL:     payload.CancelURL,
	}
	result := h.Router.ProcessPayment(r.Context(), req)
	common.JSONData(w, http.StatusOK, result)
}

// CreatePayout handles POST /v1/payouts.
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	if h.Router == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "routing service not configured", nil)
		return
	}
	var payload payoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if details, ok := h.checkShape(payload); !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "request failed validation", details)
		return
	}

	req := PayoutRequest{
		RecipientID: payload.RecipientID,
		Amount:      payload.Amount,
		Currency:    strings.ToUpper(payload.Currency),
		Country:     payload.Country,
		IPAddress:   common.ClientIP(r),
		Headers:     r.Header,
		BankAccount: payload.BankAccount,
		PayoutEmail: payload.PayoutEmail,
		Description: payload.Description,
		Metadata:    payload.Metadata,
	}
	result := h.Router.ProcessPayout(r.Context(), req)
	common.JSONData(w, http.StatusOK, result)
}

// checkShape runs struct-tag validation and flattens failures into a
// field-to-reason map for the error response.
func (h *Handler) checkShape(payload any) (map[string]any, bool) {
	if h.Validate == nil {
		return nil, true
	}
	err := h.Validate.Struct(payload)
	if err == nil {
		return nil, true
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return map[string]any{"error": err.Error()}, false
	}
	fields := make(map[string]any, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = fe.Tag()
	}
	return map[string]any{"fields": fields}, false
}
