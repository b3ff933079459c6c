package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joe_shih/spin-wheel/internal/application/history"
)

// SessionCounter 回報目前線上的 session 數量。
type SessionCounter interface {
	Len() int
}

// Handler 處理所有 REST API 請求。
type Handler struct {
	history  history.Provider
	sessions SessionCounter
}

// NewHandler 建立一個新的 HTTP Handler。sessions 可為 nil (獨立的 API 服務沒有 gateway)。
func NewHandler(hp history.Provider, sessions SessionCounter) *Handler {
	return &Handler{
		history:  hp,
		sessions: sessions,
	}
}

// HandleHealth 回傳服務狀態。
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleGetSessions 回傳目前線上的 session 數量。
func (h *Handler) HandleGetSessions(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway not enabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.Len()})
}

// HandleGetHistory 回傳訪客最近的 spin 紀錄。
func (h *Handler) HandleGetHistory(c *gin.Context) {
	visitorID := c.Query("visitorID")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(history.DefaultLimit)))
	if err != nil {
		limit = history.DefaultLimit
	}

	records, qErr := h.history.GetHistory(c.Request.Context(), visitorID, limit)
	if qErr != nil {
		c.JSON(qErr.Code, gin.H{"error": qErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visitorID": visitorID,
		"history":   records,
	})
}

// HandleGetSummary 回傳訪客的中獎與未中獎次數。
func (h *Handler) HandleGetSummary(c *gin.Context) {
	summary, qErr := h.history.GetSummary(c.Request.Context(), c.Query("visitorID"))
	if qErr != nil {
		c.JSON(qErr.Code, gin.H{"error": qErr.Message})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Register 將所有路由掛到 /api/v1 底下。
func (h *Handler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.HandleHealth)
	apiV1 := engine.Group("/api/v1")
	{
		apiV1.GET("/history", h.HandleGetHistory)
		apiV1.GET("/summary", h.HandleGetSummary)
		apiV1.GET("/sessions", h.HandleGetSessions)
	}
}
