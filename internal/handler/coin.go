package handler

import (
	"errors"
	"net/http"

	"coinwatch/internal/catalog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetCoin godoc
// @Summary      Get market snapshot for a coin
// @Description  Resolves a ticker symbol or coin id and returns formatted market statistics
// @Tags         coins
// @Produce      json
// @Param        token  path  string  true  "Ticker symbol or coin id (e.g., btc, bitcoin)"
// @Success      200  {object}  domain.MarketSnapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/coins/{token} [get]
func (h *Handler) GetCoin(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coin")
	defer span.End()

	token := c.Param("token")
	span.SetAttributes(attribute.String("token", token))

	id, err := h.catalog.Resolve(token)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown coin: " + token})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.market.Snapshot(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
