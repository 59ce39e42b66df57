// Package interfaces 工具上下文接口层
package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/almrisk/internal/instrument/application"
	"github.com/wyfcoding/pkg/response"
)

// HTTPHandler HTTP 接口处理器
type HTTPHandler struct {
	service *application.Service
}

// NewHTTPHandler 创建 HTTP 处理器
func NewHTTPHandler(service *application.Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	instruments := r.Group("/instruments")
	{
		instruments.POST("", h.RegisterInstrument)
		instruments.GET("/:id", h.GetInstrument)
		instruments.PUT("/:id", h.UpdateInstrument)
		instruments.POST("/:id/retire", h.RetireInstrument)
		instruments.GET("", h.ListPortfolio)
	}
}

// RegisterInstrumentRequest 注册工具请求
type RegisterInstrumentRequest struct {
	Portfolio  string  `json:"portfolio" binding:"required"`
	Kind       string  `json:"kind" binding:"required"`
	Desk       string  `json:"desk" binding:"required"`
	Currency   string  `json:"currency" binding:"required"`
	Notional   float64 `json:"notional" binding:"required"`
	ParamsJSON string  `json:"params_json" binding:"required"`
}

// RegisterInstrument 注册工具
func (h *HTTPHandler) RegisterInstrument(c *gin.Context) {
	var req RegisterInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	id, err := h.service.RegisterInstrument(c.Request.Context(), application.RegisterInstrumentCommand{
		Portfolio:  req.Portfolio,
		Kind:       req.Kind,
		Desk:       req.Desk,
		Currency:   req.Currency,
		Notional:   decimal.NewFromFloat(req.Notional),
		ParamsJSON: req.ParamsJSON,
	})
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"instrument_id": id})
}

// GetInstrument 获取工具定义
func (h *HTTPHandler) GetInstrument(c *gin.Context) {
	def, err := h.service.GetInstrument(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	response.Success(c, def)
}

// UpdateInstrumentRequest 更新工具请求
type UpdateInstrumentRequest struct {
	Notional   float64 `json:"notional" binding:"required"`
	ParamsJSON string  `json:"params_json" binding:"required"`
}

// UpdateInstrument 更新工具参数
func (h *HTTPHandler) UpdateInstrument(c *gin.Context) {
	var req UpdateInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.service.UpdateInstrument(c.Request.Context(), c.Param("id"),
		decimal.NewFromFloat(req.Notional), req.ParamsJSON); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"message": "updated"})
}

// RetireInstrument 下线工具
func (h *HTTPHandler) RetireInstrument(c *gin.Context) {
	if err := h.service.RetireInstrument(c.Request.Context(), c.Param("id")); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"message": "retired"})
}

// ListPortfolio 获取组合下的工具定义
func (h *HTTPHandler) ListPortfolio(c *gin.Context) {
	portfolio := c.Query("portfolio")
	if portfolio == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "portfolio is required", "")
		return
	}
	activeOnly := c.DefaultQuery("active_only", "true") == "true"

	defs, err := h.service.ListPortfolio(c.Request.Context(), portfolio, activeOnly)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, defs)
}
