package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// PosOrderHandler handles POS order HTTP requests
type PosOrderHandler struct {
	orderService  *service.PosOrderService
	exportService *service.ExportService
}

// NewPosOrderHandler creates a new POS order handler
func NewPosOrderHandler(orderService *service.PosOrderService, exportService *service.ExportService) *PosOrderHandler {
	return &PosOrderHandler{orderService: orderService, exportService: exportService}
}

type orderListResponse struct {
	Items      []entity.PosOrder      `json:"items"`
	Pagination *pagination.Pagination `json:"pagination"`
	Insights   *service.OrderInsights `json:"insights"`
}

// List returns a page of orders with sales insights, or the whole filtered
// list as a file when export=excel|pdf.
func (h *PosOrderHandler) List(c *gin.Context) {
	var query request.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	params, err := query.FilterParams()
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	if query.Export != "" {
		file, err := h.exportService.Export(ctx, params, query.Export)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, file.Filename, file.ContentType, file.Data)
		return
	}

	result, err := h.orderService.ListOrders(ctx, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	insights, err := h.orderService.Insights(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders retrieved successfully", orderListResponse{
		Items:      result.Items,
		Pagination: result.Pagination,
		Insights:   insights,
	})
}

// Create stores a cart as a draft or completes it as a sale.
func (h *PosOrderHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input service.OrderInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), a, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, orderMessage(result.Order), result)
}

// Get returns an order with its lines and payments.
func (h *PosOrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// Update edits a draft, optionally completing it.
func (h *PosOrderHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input service.OrderInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.orderService.UpdateOrder(c.Request.Context(), a, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orderMessage(result.Order), result)
}

// Complete finalizes a draft with the submitted payments.
func (h *PosOrderHandler) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.PaymentsRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CompleteDraft(c.Request.Context(), a, id, req.Input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order completed", order)
}

// AddPayments records further payments against a completed order.
func (h *PosOrderHandler) AddPayments(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.PaymentsRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.AddPayments(c.Request.Context(), a, id, req.Input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment recorded", order)
}

// Void cancels an order and returns its stock.
func (h *PosOrderHandler) Void(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orderService.VoidOrder(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order voided", order)
}

// Destroy moves an order to the trash.
func (h *PosOrderHandler) Destroy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orderService.DestroyOrder(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order moved to trash", nil)
}

// Restore takes an order out of the trash.
func (h *PosOrderHandler) Restore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orderService.RestoreOrder(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order restored", nil)
}

// ForceDelete permanently removes a trashed order.
func (h *PosOrderHandler) ForceDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orderService.ForceDeleteOrder(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order permanently deleted", nil)
}

// Bulk applies trash, restore or force_delete to several orders.
func (h *PosOrderHandler) Bulk(c *gin.Context) {
	var input service.BulkActionInput
	if !bindJSON(c, &input) {
		return
	}

	affected, err := h.orderService.BulkAction(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Bulk action applied", gin.H{
		"action":   input.Action,
		"affected": affected,
	})
}

func orderMessage(order *entity.PosOrder) string {
	if order != nil && order.Status == enum.OrderStatusDraft {
		return "Order saved as draft"
	}
	return "Order completed"
}
