package handlers

import (
	"github.com/gin-gonic/gin"

	"khata/internal/domain/ledger"
	"khata/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes obligations and their payment ledger.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the obligation endpoints.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:obligationId", h.Get)
	rg.GET("/:obligationId/balance", h.Balance)
	rg.GET("/:obligationId/payments", h.History)
	rg.POST("/:obligationId/payments", h.RecordPayment)
	rg.DELETE("/:obligationId/payments/:eventId", h.Reverse)
}

// Create handles POST /obligations.
func (h *LedgerHandler) Create(c *gin.Context) {
	var req dto.CreateObligationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	total, err := dto.ParseMoney("totalAmount", req.TotalAmount)
	if err != nil {
		h.Error(c, err)
		return
	}
	createdDate, err := dto.ParseDate("createdDate", req.CreatedDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	counterparty, err := req.Counterparty()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.CreateObligation(c.Request.Context(), ledger.Kind(req.Kind), counterparty, total, createdDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromObligation(o))
}

// Get handles GET /obligations/:obligationId.
func (h *LedgerHandler) Get(c *gin.Context) {
	obligationID, ok := h.PathID(c, "obligationId")
	if !ok {
		return
	}

	o, err := h.service.Get(c.Request.Context(), obligationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromObligation(o))
}

// Balance handles GET /obligations/:obligationId/balance.
func (h *LedgerHandler) Balance(c *gin.Context) {
	obligationID, ok := h.PathID(c, "obligationId")
	if !ok {
		return
	}

	balance, err := h.service.CurrentBalance(c.Request.Context(), obligationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBalance(balance))
}

// History handles GET /obligations/:obligationId/payments.
func (h *LedgerHandler) History(c *gin.Context) {
	obligationID, ok := h.PathID(c, "obligationId")
	if !ok {
		return
	}

	events, err := h.service.History(c.Request.Context(), obligationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPaymentEvents(events))
}

// RecordPayment handles POST /obligations/:obligationId/payments.
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	obligationID, ok := h.PathID(c, "obligationId")
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, err := dto.ParseMoney("amount", req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}
	date, err := dto.ParseDate("date", req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.RecordPayment(c.Request.Context(), obligationID, amount, ledger.PaymentMode(req.Mode), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromObligation(o))
}

// Reverse handles DELETE /obligations/:obligationId/payments/:eventId.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	obligationID, ok := h.PathID(c, "obligationId")
	if !ok {
		return
	}
	eventID, ok := h.PathID(c, "eventId")
	if !ok {
		return
	}

	o, err := h.service.Reverse(c.Request.Context(), obligationID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromObligation(o))
}
