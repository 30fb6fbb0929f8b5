package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"TickerScope/internal/dashboard"
	"TickerScope/internal/model"
	"TickerScope/internal/session"
)

const apiBasePath = "/api/v1"

var (
	errUnknownTicker  = errors.New("unknown ticker")
	errInvalidHorizon = errors.New("horizon must be an integer between 1 and 30")
)

// Handler serves the dashboard JSON API.
type Handler struct {
	router    *gin.Engine
	dashboard *dashboard.Service
	sessions  session.Store
}

func NewHandler(svc *dashboard.Service, sessions session.Store) *Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &Handler{
		router:    router,
		dashboard: svc,
		sessions:  sessions,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/healthz", h.health)

	api := h.router.Group(apiBasePath)
	{
		api.GET("/tickers", h.listTickers)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.createSession)
			sessions.GET("/:id", h.getSession)
			sessions.PATCH("/:id", h.updateSession)
			sessions.DELETE("/:id", h.deleteSession)
			sessions.GET("/:id/page", h.renderSession)
		}

		api.GET("/overview/:ticker", h.overview)
		api.GET("/chart/:ticker", h.chart)
		api.GET("/news/:ticker", h.news)
		api.GET("/forecast/:ticker", h.forecast)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listTickers(c *gin.Context) {
	models := make([]gin.H, 0, len(model.ForecastModels))
	for _, m := range model.ForecastModels {
		models = append(models, gin.H{"id": m, "name": m.DisplayName()})
	}
	c.JSON(http.StatusOK, gin.H{
		"tickers": h.dashboard.Tickers(),
		"tabs":    session.Tabs,
		"models":  models,
		"horizon": gin.H{"min": model.MinHorizon, "max": model.MaxHorizon, "default": model.DefaultHorizon},
	})
}

// Sessions

func (h *Handler) createSession(c *gin.Context) {
	st := session.New(h.dashboard.Tickers())

	// An optional body sets the initial selection.
	if c.Request.ContentLength > 0 {
		var change session.Change
		if err := c.ShouldBindJSON(&change); err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		if err := st.Apply(change, h.dashboard.Tickers()); err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
	}

	if err := h.sessions.Create(c.Request.Context(), st); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) getSession(c *gin.Context) {
	st, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) updateSession(c *gin.Context) {
	var change session.Change
	if err := c.ShouldBindJSON(&change); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	st, err := h.sessions.Update(c.Request.Context(), c.Param("id"), func(st *session.State) error {
		return st.Apply(change, h.dashboard.Tickers())
	})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"session": st.ID, "tab": st.Tab, "ticker": st.Ticker}).Debug("session updated")
	c.JSON(http.StatusOK, st)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) renderSession(c *gin.Context) {
	st, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.dashboard.Render(c.Request.Context(), st))
}

// Panels

func (h *Handler) overview(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.dashboard.Overview(c.Request.Context(), ticker))
}

func (h *Handler) chart(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.dashboard.PriceChart(c.Request.Context(), ticker))
}

func (h *Handler) news(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.dashboard.News(c.Request.Context(), ticker))
}

func (h *Handler) forecast(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}

	horizon := model.DefaultHorizon
	if raw := c.Query("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < model.MinHorizon || n > model.MaxHorizon {
			writeError(c, http.StatusBadRequest, errInvalidHorizon)
			return
		}
		horizon = n
	}

	m := model.ModelARIMA
	if raw := c.Query("model"); raw != "" {
		parsed, err := model.ParseForecastModel(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		m = parsed
	}

	c.JSON(http.StatusOK, h.dashboard.Forecast(c.Request.Context(), ticker, horizon, m))
}

func (h *Handler) ticker(c *gin.Context) (string, bool) {
	t := strings.ToUpper(c.Param("ticker"))
	if !h.dashboard.HasTicker(t) {
		writeError(c, http.StatusNotFound, errUnknownTicker)
		return "", false
	}
	return t, true
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, session.ErrInvalidState):
		writeError(c, http.StatusBadRequest, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("http request")
	}
}
