package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"khata/internal/domain/batch"
	"khata/internal/domain/ledger"
	"khata/internal/domain/party"
	"khata/internal/infrastructure/http/v1/dto"
)

// PartyHandler exposes wholesaler resolution and the customer catalog.
type PartyHandler struct {
	*BaseHandler
	resolver *party.Resolver
	ledger   *ledger.Service
	batches  *batch.Service
}

// NewPartyHandler creates a party handler. ledger and batches back the
// per-counterparty listing endpoints.
func NewPartyHandler(base *BaseHandler, resolver *party.Resolver, ledgerSvc *ledger.Service, batchSvc *batch.Service) *PartyHandler {
	return &PartyHandler{
		BaseHandler: base,
		resolver:    resolver,
		ledger:      ledgerSvc,
		batches:     batchSvc,
	}
}

// RegisterWholesalerRoutes mounts the wholesaler endpoints.
func (h *PartyHandler) RegisterWholesalerRoutes(rg *gin.RouterGroup) {
	rg.POST("/resolve", h.Resolve)
	rg.GET("/:wholesalerId", h.GetWholesaler)
	rg.GET("/:wholesalerId/obligations", h.WholesalerObligations)
	rg.GET("/:wholesalerId/batches", h.WholesalerBatches)
}

// RegisterCustomerRoutes mounts the customer endpoints.
func (h *PartyHandler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateCustomer)
	rg.GET("/:customerId", h.GetCustomer)
	rg.GET("/:customerId/obligations", h.CustomerObligations)
}

// Resolve handles POST /wholesalers/resolve. Resolving the same identity
// twice returns the same record, so 200 rather than 201.
func (h *PartyHandler) Resolve(c *gin.Context) {
	var req dto.ResolveWholesalerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.resolver.Resolve(c.Request.Context(), req.Name, req.Phone, req.Address)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromWholesaler(w))
}

// GetWholesaler handles GET /wholesalers/:wholesalerId.
func (h *PartyHandler) GetWholesaler(c *gin.Context) {
	wholesalerID, ok := h.PathID(c, "wholesalerId")
	if !ok {
		return
	}

	w, err := h.resolver.Get(c.Request.Context(), wholesalerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWholesaler(w))
}

// WholesalerObligations handles GET /wholesalers/:wholesalerId/obligations.
func (h *PartyHandler) WholesalerObligations(c *gin.Context) {
	wholesalerID, ok := h.PathID(c, "wholesalerId")
	if !ok {
		return
	}
	if _, err := h.resolver.Get(c.Request.Context(), wholesalerID); err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.ledger.ListByCounterparty(c.Request.Context(), wholesalerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromObligations(items))
}

// WholesalerBatches handles GET /wholesalers/:wholesalerId/batches.
func (h *PartyHandler) WholesalerBatches(c *gin.Context) {
	wholesalerID, ok := h.PathID(c, "wholesalerId")
	if !ok {
		return
	}
	if _, err := h.resolver.Get(c.Request.Context(), wholesalerID); err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.batches.ListByWholesaler(c.Request.Context(), wholesalerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseBatches(items))
}

// CreateCustomer handles POST /customers.
func (h *PartyHandler) CreateCustomer(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.resolver.CreateCustomer(c.Request.Context(), req.Name, req.Phone, req.Address)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCustomer(customer))
}

// GetCustomer handles GET /customers/:customerId.
func (h *PartyHandler) GetCustomer(c *gin.Context) {
	customerID, ok := h.PathID(c, "customerId")
	if !ok {
		return
	}

	customer, err := h.resolver.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(customer))
}

// CustomerObligations handles GET /customers/:customerId/obligations.
func (h *PartyHandler) CustomerObligations(c *gin.Context) {
	customerID, ok := h.PathID(c, "customerId")
	if !ok {
		return
	}
	if _, err := h.resolver.GetCustomer(c.Request.Context(), customerID); err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.ledger.ListByCounterparty(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromObligations(items))
}
