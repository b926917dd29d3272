package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard is the home-screen snapshot for the caller.
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Dashboard(c.Request.Context(), user(c).ID, h.now())
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, d)
}
