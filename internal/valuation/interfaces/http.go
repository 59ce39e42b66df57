// Package interfaces 估值服务接口层
package interfaces

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/almrisk/internal/valuation/application"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
	"github.com/wyfcoding/pkg/response"
)

// HTTPHandler HTTP 接口处理器
type HTTPHandler struct {
	commandService *application.CommandService
	queryService   *application.QueryService
}

// NewHTTPHandler 创建 HTTP 处理器
func NewHTTPHandler(
	commandService *application.CommandService,
	queryService *application.QueryService,
) *HTTPHandler {
	return &HTTPHandler{
		commandService: commandService,
		queryService:   queryService,
	}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	valuation := r.Group("/valuation")
	{
		valuation.POST("/runs", h.RunValuation)
		valuation.GET("/runs", h.ListRuns)
		valuation.GET("/runs/:id", h.GetRun)
		valuation.GET("/runs/:id/scenarios", h.ListScenarioResults)
		valuation.GET("/runs/:id/risk-profile", h.RiskProfile)
		valuation.GET("/runs/:id/contributions", h.TailContributions)
		valuation.GET("/runs/:id/export", h.ExportScenarioCSV)
		valuation.GET("/portfolios/:portfolio/latest", h.GetLatestSummary)
	}
}

// RunValuationRequest 提交估值任务请求
type RunValuationRequest struct {
	Portfolio     string   `json:"portfolio" binding:"required"`
	InstrumentIDs []string `json:"instrument_ids"`
	AsOfYears     float64  `json:"as_of_years"`

	CurveTenors        []float64 `json:"curve_tenors" binding:"required"`
	CurveZeroRates     []float64 `json:"curve_zero_rates" binding:"required"`
	CurveInterpolation string    `json:"curve_interpolation"`

	MeanReversion float64 `json:"mean_reversion"`
	Sigma         float64 `json:"sigma"`

	ShiftsBps       []float64 `json:"shifts_bps"`
	TwistsBps       []float64 `json:"twists_bps"`
	TwistPivotYears float64   `json:"twist_pivot_years"`
	NumPaths        int       `json:"num_paths"`
	NumSteps        int       `json:"num_steps"`
	HorizonYears    float64   `json:"horizon_years"`
	Seed            uint64    `json:"seed"`

	Confidences []float64 `json:"confidences"`
}

// RunValuation 提交并同步执行估值任务
func (h *HTTPHandler) RunValuation(c *gin.Context) {
	var req RunValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.CurveInterpolation == "" {
		req.CurveInterpolation = string(domain.InterpLogLinearDF)
	}

	result, err := h.commandService.RunValuation(c.Request.Context(), application.RunValuationCommand{
		Portfolio:          req.Portfolio,
		InstrumentIDs:      req.InstrumentIDs,
		AsOfYears:          req.AsOfYears,
		CurveTenors:        req.CurveTenors,
		CurveZeroRates:     req.CurveZeroRates,
		CurveInterpolation: req.CurveInterpolation,
		MeanReversion:      req.MeanReversion,
		Sigma:              req.Sigma,
		ShiftsBps:          req.ShiftsBps,
		TwistsBps:          req.TwistsBps,
		TwistPivotYears:    req.TwistPivotYears,
		NumPaths:           req.NumPaths,
		NumSteps:           req.NumSteps,
		HorizonYears:       req.HorizonYears,
		Seed:               req.Seed,
		Confidences:        req.Confidences,
	})
	if err != nil {
		response.ErrorWithStatus(c, statusFromError(err), err.Error(), "")
		return
	}
	response.Success(c, result)
}

// GetRun 获取估值任务
func (h *HTTPHandler) GetRun(c *gin.Context) {
	run, err := h.queryService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	response.Success(c, run)
}

// ListRuns 分页获取组合的估值任务
func (h *HTTPHandler) ListRuns(c *gin.Context) {
	portfolio := c.Query("portfolio")
	if portfolio == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "portfolio is required", "")
		return
	}
	offset, limit, err := pagination(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	runs, total, err := h.queryService.ListRuns(c.Request.Context(), portfolio, offset, limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"total": total, "runs": runs})
}

// ListScenarioResults 分页获取情景估值分布
func (h *HTTPHandler) ListScenarioResults(c *gin.Context) {
	offset, limit, err := pagination(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	results, total, err := h.queryService.ListScenarioResults(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"total": total, "scenarios": results})
}

// RiskProfile 按需风险查询
func (h *HTTPHandler) RiskProfile(c *gin.Context) {
	confidences, err := parseFloats(c.Query("confidences"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid confidences", "")
		return
	}
	var kinds []string
	if raw := c.Query("kinds"); raw != "" {
		kinds = strings.Split(raw, ",")
	}

	profile, err := h.queryService.RiskProfile(c.Request.Context(), c.Param("id"), confidences, kinds)
	if err != nil {
		response.ErrorWithStatus(c, statusFromError(err), err.Error(), "")
		return
	}
	response.Success(c, profile)
}

// TailContributions 尾部贡献查询
func (h *HTTPHandler) TailContributions(c *gin.Context) {
	confidence, err := strconv.ParseFloat(c.DefaultQuery("confidence", "0.95"), 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid confidence", "")
		return
	}

	contributions, err := h.queryService.TailContributions(c.Request.Context(), c.Param("id"), confidence, c.Query("group_by"))
	if err != nil {
		response.ErrorWithStatus(c, statusFromError(err), err.Error(), "")
		return
	}
	response.Success(c, contributions)
}

// ExportScenarioCSV 导出情景估值分布
func (h *HTTPHandler) ExportScenarioCSV(c *gin.Context) {
	data, err := h.queryService.ExportScenarioCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+c.Param("id")+".csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// GetLatestSummary 获取组合最新任务概览
func (h *HTTPHandler) GetLatestSummary(c *gin.Context) {
	summary, err := h.queryService.GetLatestSummary(c.Request.Context(), c.Param("portfolio"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if summary == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no completed run for portfolio", "")
		return
	}
	response.Success(c, summary)
}

func pagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, errors.New("invalid offset")
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 0, 0, errors.New("invalid limit")
	}
	return offset, limit, nil
}

func parseFloats(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// statusFromError 按领域错误分类映射 HTTP 状态码
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrRiskQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAggregation), errors.Is(err, domain.ErrSimulation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
