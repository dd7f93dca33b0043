package handler

import (
	"coinwatch/internal/catalog"
	"coinwatch/internal/presence"
	"coinwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer  trace.Tracer
	catalog *catalog.Catalog
	market  *service.MarketService
	status  *presence.State
}

func New(tracer trace.Tracer, cat *catalog.Catalog, market *service.MarketService, status *presence.State) *Handler {
	return &Handler{
		tracer:  tracer,
		catalog: cat,
		market:  market,
		status:  status,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/coins/:token", h.GetCoin)
	api.GET("/trending", h.GetTrending)
	api.GET("/dominance", h.GetDominance)
	api.GET("/presence", h.GetPresence)
}
