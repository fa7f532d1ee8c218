package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"teambot/internal/middleware"
	"teambot/internal/model"
	"teambot/internal/repository"
	"teambot/internal/service"
	"teambot/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxImageSize caps uploaded receipt images at 8 MiB
const maxImageSize = 8 << 20

type ReceiptHandler struct {
	receiptService service.ReceiptService
}

func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/api/receipts")
	{
		receipts.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleMember), h.CreateReceipt)
		receipts.GET("/mine", middleware.RequireRole(model.RoleAdmin, model.RoleMember), h.ListOwn)
		receipts.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleMember), h.DeleteOwn)
		receipts.GET("/summary", middleware.RequireRole(model.RoleAdmin), h.Summary)
	}
}

// CreateReceipt handles POST /api/receipts (multipart: amount, description, image)
// @Summary      Submit a receipt
// @Description  Stores a pending expense receipt with an optional image
// @Tags         receipts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        amount       formData  string  true   "Amount, 2 decimals"
// @Param        description  formData  string  true   "Description"
// @Param        image        formData  file    false  "Receipt image"
// @Success      201          {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400          {object}  response.Response
// @Router       /api/receipts [post]
func (h *ReceiptHandler) CreateReceipt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid amount"))
		return
	}

	description := c.PostForm("description")
	if description == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Description is required"))
		return
	}

	var image []byte
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Image is too large"))
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read image"))
			return
		}
		defer f.Close()
		image, err = io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read image"))
			return
		}
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), userID, service.CreateReceiptRequest{
		Amount:      amount,
		Description: description,
		Image:       image,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}

// ListOwn handles GET /api/receipts/mine
// @Summary      List own receipts
// @Description  Returns the caller's receipts newest first plus their total
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.OwnReceiptsResponse}
// @Router       /api/receipts/mine [get]
func (h *ReceiptHandler) ListOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	receipts, err := h.receiptService.ListOwn(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipts))
}

// DeleteOwn handles DELETE /api/receipts/:id
// @Summary      Delete own receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Receipt id"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/receipts/{id} [delete]
func (h *ReceiptHandler) DeleteOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid receipt id"))
		return
	}

	if err := h.receiptService.DeleteOwn(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrReceiptNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Receipt not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "receipt deleted"}))
}

// Summary handles GET /api/receipts/summary
// @Summary      Receipt summary by member
// @Description  Admin overview of every receipt grouped by owner with totals
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ReceiptSummaryResponse}
// @Router       /api/receipts/summary [get]
func (h *ReceiptHandler) Summary(c *gin.Context) {
	summary, err := h.receiptService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
