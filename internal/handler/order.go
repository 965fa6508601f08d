package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GoCowSwap/cowgate/internal/model"
	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/GoCowSwap/cowgate/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	flow *service.OrderFlow
}

func NewOrderHandler(flow *service.OrderFlow) *OrderHandler {
	return &OrderHandler{flow: flow}
}

// PlaceOrder runs the full pipeline and submits the signed order.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.flow.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, resp, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviewOrder runs the pipeline through signing without submitting.
func (h *OrderHandler) PreviewOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.flow.PreviewOrder(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, resp, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetQuote passes a quote request through to the quote service.
func (h *OrderHandler) GetQuote(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.flow.GetQuote(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ListOrders returns recent journal rows, newest first.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rows, err := h.flow.ListOrders(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": rows})
}

// renderError reports a failed pipeline run. The response carries the
// most recent state reached, so callers can tell a rejected submission
// from a quote that never arrived.
func (h *OrderHandler) renderError(c *gin.Context, resp *model.OrderResponse, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
	}
	if resp == nil {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr})
		return
	}
	c.JSON(appErr.HTTPStatus, gin.H{
		"state":  resp.State,
		"digest": resp.Digest,
		"error":  appErr,
	})
}
