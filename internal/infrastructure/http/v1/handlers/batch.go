package handlers

import (
	"github.com/gin-gonic/gin"

	"khata/internal/core/apperror"
	"khata/internal/domain/batch"
	"khata/internal/infrastructure/http/v1/dto"
)

// BatchHandler exposes purchase batch recording and profit reports.
type BatchHandler struct {
	*BaseHandler
	service *batch.Service
}

// NewBatchHandler creates a batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service) *BatchHandler {
	return &BatchHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the purchase batch endpoints.
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.RecordPurchase)
	rg.GET("/:batchId", h.Get)
	rg.GET("/:batchId/lines/:lineId/profit", h.NetProfit)
}

// RecordPurchase handles POST /batches.
func (h *BatchHandler) RecordPurchase(c *gin.Context) {
	var req dto.RecordPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	obligation, err := h.service.RecordPurchase(c.Request.Context(), b)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewRecordPurchaseResponse(b, obligation))
}

// Get handles GET /batches/:batchId.
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.PathID(c, "batchId")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseBatch(b))
}

// NetProfit handles GET /batches/:batchId/lines/:lineId/profit.
func (h *BatchHandler) NetProfit(c *gin.Context) {
	batchID, ok := h.PathID(c, "batchId")
	if !ok {
		return
	}
	lineID, ok := h.PathID(c, "lineId")
	if !ok {
		return
	}

	var req dto.NetProfitRequest
	if !h.BindQuery(c, &req) {
		return
	}
	sellingPrice, err := dto.ParseMoney("sellingPrice", req.SellingPrice)
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	for _, line := range b.Lines {
		if line.LineID == lineID {
			report, err := batch.NetProfit(line, sellingPrice)
			if err != nil {
				h.Error(c, err)
				return
			}
			h.OK(c, dto.FromProfitReport(report))
			return
		}
	}
	h.Error(c, apperror.NewNotFound("batch line", lineID.String()))
}
