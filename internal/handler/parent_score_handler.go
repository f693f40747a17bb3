package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teacherlink/teacherlink-api/internal/service"
	"github.com/teacherlink/teacherlink-api/pkg/response"
)

// ParentScoreHandler exposes the parent hostility score endpoint.
type ParentScoreHandler struct {
	service *service.ParentScoreService
}

// NewParentScoreHandler constructs a parent score handler.
func NewParentScoreHandler(svc *service.ParentScoreService) *ParentScoreHandler {
	return &ParentScoreHandler{service: svc}
}

// Score godoc
// @Summary Parent hostility score
// @Description Classify the tone of a parent's message history
// @Tags Parents
// @Produce json
// @Param id path string true "Parent user ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id}/score [get]
func (h *ParentScoreHandler) Score(c *gin.Context) {
	score, err := h.service.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}
