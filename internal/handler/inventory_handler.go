package handler

import (
	"errors"
	"net/http"
	"strconv"

	"teambot/internal/middleware"
	"teambot/internal/model"
	"teambot/internal/service"
	"teambot/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock", middleware.RequireRole(model.RoleAdmin, model.RoleMember))
	{
		stock.GET("", h.ListStock)
		stock.POST("/:id/purchase", h.Purchase)
	}
}

// ListStock handles GET /api/stock
// @Summary      Browse team inventory
// @Description  Returns in-stock items grouped by item and price
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.StockGroup}
// @Router       /api/stock [get]
func (h *InventoryHandler) ListStock(c *gin.Context) {
	groups, err := h.inventoryService.ListStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// Purchase handles POST /api/stock/:id/purchase
// @Summary      Buy an item
// @Description  Decrements stock and emails a purchase report
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                      true  "Stock item id"
// @Param        payload  body      service.PurchaseRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/{id}/purchase [post]
func (h *InventoryHandler) Purchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item id"))
		return
	}

	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.inventoryService.Purchase(c.Request.Context(), itemID, userID, req.Quantity)
	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "item not found" {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrInsufficientStock) {
			status = http.StatusConflict
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
