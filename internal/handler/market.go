package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTrending godoc
// @Summary      Get trending coins
// @Description  Returns the names of currently trending search coins in provider order
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/trending [get]
func (h *Handler) GetTrending(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trending")
	defer span.End()

	names, err := h.market.Trending(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"trending": names})
}

// GetDominance godoc
// @Summary      Get global market dominance
// @Description  Returns each asset's share of total market cap, provider-ranked
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dominance [get]
func (h *Handler) GetDominance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-dominance")
	defer span.End()

	shares, err := h.market.Dominance(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dominance": shares})
}

// GetPresence godoc
// @Summary      Get the bot's presence line
// @Description  Returns the last published live-price status text
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/presence [get]
func (h *Handler) GetPresence(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-presence")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"presence": h.status.Text()})
}
