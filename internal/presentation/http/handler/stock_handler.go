package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/apperror"
)

// StockHandler handles the POS quick stock endpoints.
type StockHandler struct {
	stockService *service.StockService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// Adjust sets the on-hand quantity of a product in a warehouse.
func (h *StockHandler) Adjust(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input service.AdjustStockInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.stockService.Adjust(c.Request.Context(), a, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock adjusted", result)
}

// Level returns the stock level of a product or variation in a warehouse.
func (h *StockHandler) Level(c *gin.Context) {
	var query request.StockLevelQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	key, err := query.Parse()
	if err != nil {
		response.Error(c, err)
		return
	}

	level, err := h.stockService.GetLevel(c.Request.Context(), key.ProductID, key.VariationID, key.WarehouseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock level retrieved", level)
}

// Movements lists the ledger entries written under one reference.
func (h *StockHandler) Movements(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		response.Error(c, apperror.NewFieldError("reference", "is required"))
		return
	}

	movements, err := h.stockService.ListMovements(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock movements retrieved", movements)
}
